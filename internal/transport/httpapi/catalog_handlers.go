package httpapi

import (
	"net/http"
	"strconv"
)

// ListProducts — GET /products[?includeDeleted=true].
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("includeDeleted"))
	products, err := h.catalog.ListProducts(r.Context(), includeDeleted)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(products, toProductResponse))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "product id")
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "product id")
		return
	}
	var req productRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}
	p := req.toDomain()
	p.ID = id
	product, err := h.catalog.UpdateProduct(r.Context(), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct — мягкое удаление, позиции старых заказов остаются.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "product id")
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMyAddresses(w http.ResponseWriter, r *http.Request) {
	h.writeAddresses(w, r, currentUserID(r))
}

// ListUserAddresses — GET /users/{userId}/addresses, только свои.
func (h *Handler) ListUserAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeBadID(w, "user id")
		return
	}
	if err := requireSelf(r, userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeAddresses(w, r, userID)
}

func (h *Handler) writeAddresses(w http.ResponseWriter, r *http.Request, userID int64) {
	addresses, err := h.catalog.ListAddresses(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(addresses, toAddressResponse))
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}
	addr, err := h.catalog.CreateAddress(r.Context(), currentUserID(r), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(addr))
}

func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "address id")
		return
	}
	addr, err := h.catalog.GetAddress(r.Context(), currentUserID(r), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "address id")
		return
	}
	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}
	addr, err := h.catalog.UpdateAddress(r.Context(), currentUserID(r), id, req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "address id")
		return
	}
	if err := h.catalog.DeleteAddress(r.Context(), currentUserID(r), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

