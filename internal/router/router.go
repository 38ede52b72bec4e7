package router

import (
	"net/http"

	"luxbag/internal/handler"
	"luxbag/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Products    *handler.ProductHandler
	Customers   *handler.CustomerHandler
	Orders      *handler.OrderHandler
	ClientOrder *handler.ClientOrderHandler
	Designs     *handler.DesignHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	signedIn := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(fn)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue is public
	mux.HandleFunc("GET /api/products", h.Products.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.Handle("POST /api/products/{id}/stock", signedIn(h.Products.AdjustStock))

	mux.Handle("GET /api/customers/{id}", signedIn(h.Customers.GetByID))

	// Storefront checkout for signed-in shoppers
	mux.Handle("POST /api/client/orders", signedIn(h.ClientOrder.Create))
	mux.Handle("GET /api/client/orders", signedIn(h.ClientOrder.List))
	mux.Handle("GET /api/client/orders/{id}", signedIn(h.ClientOrder.GetByID))
	mux.Handle("POST /api/client/orders/{id}/cancel", signedIn(h.ClientOrder.Cancel))

	// Back office
	mux.Handle("POST /api/orders", signedIn(h.Orders.Create))
	mux.Handle("GET /api/orders", signedIn(h.Orders.List))
	mux.Handle("GET /api/orders/{id}", signedIn(h.Orders.GetByID))
	mux.Handle("POST /api/orders/{id}/approve", signedIn(h.Orders.Approve))
	mux.Handle("POST /api/orders/{id}/ship", signedIn(h.Orders.Ship))
	mux.Handle("POST /api/orders/{id}/confirm-delivery", signedIn(h.Orders.ConfirmDelivery))
	mux.Handle("POST /api/orders/{id}/confirm-payment", signedIn(h.Orders.ConfirmPayment))
	mux.Handle("POST /api/orders/{id}/cancel", signedIn(h.Orders.Cancel))

	mux.Handle("POST /api/designs", signedIn(h.Designs.Upload))
	mux.Handle("GET /api/designs", signedIn(h.Designs.List))
	mux.Handle("DELETE /api/designs/{id}", signedIn(h.Designs.Delete))
	mux.Handle("GET /api/designs/{id}/file", signedIn(h.Designs.File))

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Principal
	var handler http.Handler = mux
	handler = middleware.Principal(logger)(handler)
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
