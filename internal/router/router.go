package router

import (
	"net/http"

	"lumistore/internal/handler"
	"lumistore/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// Catalogue reads are public; configuration and order routes require a
// bearer token from the identity provider.
func New(
	productHandler *handler.ProductHandler,
	configurationHandler *handler.ConfigurationHandler,
	orderHandler *handler.OrderHandler,
	jwtSecret, jwtIssuer string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Public catalogue routes
	mux.HandleFunc("GET /api/products", productHandler.GetAll)
	mux.HandleFunc("GET /api/products/{sku}", productHandler.GetBySKU)

	// Authenticated checkout and order routes
	auth := middleware.BearerAuth(jwtSecret, jwtIssuer, logger)

	mux.Handle("POST /api/configurations", auth(http.HandlerFunc(configurationHandler.Create)))
	mux.Handle("GET /api/configurations/{id}", auth(http.HandlerFunc(configurationHandler.GetByID)))

	mux.Handle("POST /api/orders", auth(http.HandlerFunc(orderHandler.Create)))
	mux.Handle("GET /api/orders/{id}", auth(http.HandlerFunc(orderHandler.GetByID)))
	mux.Handle("POST /api/orders/{id}/cancel", auth(http.HandlerFunc(orderHandler.Cancel)))

	// Apply middleware in order: Recovery -> Logging -> CORS
	var h http.Handler = mux
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
