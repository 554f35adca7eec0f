package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// classify сопоставляет доменную ошибку с HTTP-статусом и кодом.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrOrderIncomplete):
		return http.StatusInternalServerError, "order_incomplete"
	case errors.Is(err, domain.ErrCancelIncomplete):
		return http.StatusInternalServerError, "cancel_incomplete"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrAddressOwnership):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrIllegalCancellation):
		return http.StatusConflict, "illegal_cancellation"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, domain.ErrReferenceViolation):
		return http.StatusConflict, "referenced"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, "validation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "validation", Message: "request validation failed", Fields: fields,
		})
		return
	}

	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		if code == "internal_error" {
			message = "internal error"
		}
	}
	writeError(w, status, code, message)
}

// decode читает JSON-тело и проверяет теги validate.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadJSON{err}
	}
	return h.validate.Struct(dst)
}

type errBadJSON struct{ err error }

func (e errBadJSON) Error() string { return "malformed request body: " + e.err.Error() }
func (e errBadJSON) Unwrap() error { return e.err }

func (h *Handler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad errBadJSON
	if errors.As(err, &bad) {
		writeError(w, http.StatusBadRequest, "bad_request", bad.Error())
		return
	}
	h.respondError(w, r, err)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeBadID(w http.ResponseWriter, name string) {
	writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+name)
}
