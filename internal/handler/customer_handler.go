package handler

import (
	"net/http"

	"luxbag/internal/service"

	"github.com/rs/zerolog"
)

// CustomerHandler serves staff customer lookups.
type CustomerHandler struct {
	service service.CustomerService
	logger  zerolog.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(service service.CustomerService, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		logger:  logger.With().Str("handler", "customer").Logger(),
	}
}

// GetByID handles GET /api/customers/{id} requests.
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid customer ID", h.logger)
		return
	}

	customer, err := h.service.GetByID(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve customer", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, customer)
}
