package handler

import (
	"errors"
	"net/http"

	"luxbag/internal/model"
	"luxbag/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products requests with pagination.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeServiceError(w, err, "invalid pagination", h.logger)
		return
	}

	products, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if errors.Is(err, model.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, model.ErrCodeProductNotFound, "product not found", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, err, "failed to retrieve product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// AdjustStock handles POST /api/products/{id}/stock requests.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	var req model.StockAdjustmentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.AdjustStock(r.Context(), principal(r), id, req.Delta)
	if errors.Is(err, model.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, model.ErrCodeProductNotFound, "product not found", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, err, "failed to adjust stock", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}
