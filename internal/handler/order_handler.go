package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"luxbag/internal/auth"
	"luxbag/internal/model"
	"luxbag/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles staff order requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.StaffOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.PlaceStaffOrder(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, err, "failed to create order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeServiceError(w, err, "invalid pagination", h.logger)
		return
	}

	filter := model.OrderFilter{Limit: limit, Offset: offset}
	q := r.URL.Query()
	if s := q.Get("loai"); s != "" {
		channel, err := model.ParseChannel(s)
		if err != nil {
			writeServiceError(w, err, "invalid channel", h.logger)
			return
		}
		filter.Channel = &channel
	}
	if s := q.Get("trang_thai"); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			writeServiceError(w, err, "invalid status", h.logger)
			return
		}
		filter.Status = &status
	}

	orders, err := h.service.List(r.Context(), principal(r), filter)
	if err != nil {
		writeServiceError(w, err, "failed to list orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid order ID", h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

type transitionFunc func(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)

// transition runs a status action and reports the new status with msg.
func (h *OrderHandler) transition(fn transitionFunc, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeServiceError(w, err, "invalid order ID", h.logger)
			return
		}

		order, err := fn(r.Context(), principal(r), id)
		if err != nil {
			writeServiceError(w, err, "failed to update order", h.logger)
			return
		}

		writeJSON(w, http.StatusOK, model.TransitionResponse{Msg: msg, Status: order.Status})
	}
}

// Approve handles POST /api/orders/{id}/approve requests.
func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(h.service.Approve, "Order approved and moved to packing.")(w, r)
}

// Ship handles POST /api/orders/{id}/ship requests.
func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.transition(h.service.Ship, "Order is out for delivery.")(w, r)
}

// ConfirmDelivery handles POST /api/orders/{id}/confirm-delivery requests.
func (h *OrderHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(h.service.ConfirmDelivery, "Delivered. Loyalty spend credited.")(w, r)
}

// ConfirmPayment handles POST /api/orders/{id}/confirm-payment requests.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(h.service.ConfirmPayment, "Payment received.")(w, r)
}

// Cancel handles POST /api/orders/{id}/cancel requests. The body is optional.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req model.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	cancel := func(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
		return h.service.Cancel(ctx, p, id, req.Reason)
	}
	h.transition(cancel, "Order cancelled and stock restored.")(w, r)
}

// ClientOrderHandler handles self-service order requests of customers.
type ClientOrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewClientOrderHandler creates a new client order handler.
func NewClientOrderHandler(service service.OrderService, logger zerolog.Logger) *ClientOrderHandler {
	return &ClientOrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "client-order").Logger(),
	}
}

// Create handles POST /api/client/orders requests.
func (h *ClientOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ClientOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.PlaceOnlineOrder(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, err, "failed to place order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/client/orders requests.
func (h *ClientOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeServiceError(w, err, "invalid pagination", h.logger)
		return
	}

	orders, err := h.service.ListOwn(r.Context(), principal(r), limit, offset)
	if err != nil {
		writeServiceError(w, err, "failed to list orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: orders})
}

// GetByID handles GET /api/client/orders/{id} requests.
func (h *ClientOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid order ID", h.logger)
		return
	}

	order, err := h.service.GetOwn(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: order})
}

// Cancel handles POST /api/client/orders/{id}/cancel requests.
func (h *ClientOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid order ID", h.logger)
		return
	}

	if _, err := h.service.CancelOwn(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, err, "failed to cancel order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Order cancelled"})
}
