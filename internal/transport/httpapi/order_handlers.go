package httpapi

import (
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/orders"
)

// CreateOrder — POST /orders. Заказ всегда оформляется на текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	in := orders.CreateOrderRequest{
		UserID:  currentUserID(r),
		Address: orders.AddressInput{ExistingID: req.AddressID},
		Items:   make([]orders.ItemRequest, 0, len(req.Items)),
	}
	if req.Address != nil {
		fields := req.Address.toDomain()
		in.Address.New = &fields
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, orders.ItemRequest{ProductID: item.ProductID, Amount: item.Amount})
	}

	order, err := h.orders.CreateOrder(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/orders/%d", order.ID))
	writeJSON(w, http.StatusCreated, toOrderDetailsResponse(order))
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, r, currentUserID(r))
}

// ListUserOrders — GET /users/{userId}/orders, только свои.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeBadID(w, "user id")
		return
	}
	if err := requireSelf(r, userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeOrders(w, r, userID)
}

func (h *Handler) writeOrders(w http.ResponseWriter, r *http.Request, userID int64) {
	list, err := h.orders.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toOrderResponse))
}

// ownedOrderID разбирает {id} и проверяет, что заказ принадлежит текущему пользователю.
func (h *Handler) ownedOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadID(w, "order id")
		return 0, false
	}
	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return 0, false
	}
	if order.UserID != currentUserID(r) {
		h.respondError(w, r, fmt.Errorf("%w: order %d", domain.ErrForbidden, id))
		return 0, false
	}
	return id, true
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedOrderID(w, r)
	if !ok {
		return
	}
	details, err := h.orders.GetOrderDetails(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailsResponse(details))
}

// UpdateOrderStatus — PUT /orders/{id} с телом {"status": "..."}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedOrderID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	order, err := h.orders.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedOrderID(w, r)
	if !ok {
		return
	}
	if err := h.orders.CancelOrder(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrderTotal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedOrderID(w, r)
	if !ok {
		return
	}
	total, err := h.orders.CalculateOrderTotal(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalResponse{OrderID: id, Total: total.StringFixed(2)})
}

func (h *Handler) OrderTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedOrderID(w, r)
	if !ok {
		return
	}
	events, err := h.orders.Timeline(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(events, func(e domain.TimelineEvent) timelineEventResponse {
		return timelineEventResponse{Type: e.Type, Status: e.Status, Reason: e.Reason, Occurred: e.Occurred}
	}))
}
