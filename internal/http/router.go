package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ServiceName labels server spans.
const ServiceName = "nexus-inventory-api"

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", app.listProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products", app.createProductHandler).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", app.deleteProductHandler).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", app.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/openapi.yaml", app.openapiHandler).Methods(http.MethodGet)
	r.HandleFunc("/docs", app.docsHandler).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	h := WithRequestID(WithLogging(WithCORS(app.Cfg.CORSAllowedOrigins)(r)))
	return otelhttp.NewHandler(h, ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.Path
		}),
	)
}
