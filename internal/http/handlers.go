package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/fairyhunter13/nexus-inventory/internal/config"
	httpopenapi "github.com/fairyhunter13/nexus-inventory/internal/http/openapi"
	"github.com/fairyhunter13/nexus-inventory/internal/model"
	"github.com/fairyhunter13/nexus-inventory/internal/obs"
	"github.com/fairyhunter13/nexus-inventory/internal/store"
)

// maxBodyBytes bounds create payloads.
const maxBodyBytes = 1 << 20

type App struct {
	Cfg     config.Config
	Store   store.Store
	started time.Time
}

func NewApp(cfg config.Config, st store.Store) *App {
	return &App{Cfg: cfg, Store: st, started: time.Now()}
}

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.Store.List(r.Context())
	if err != nil {
		obs.Logger.Error("product_list_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		WriteJSONError(w, http.StatusInternalServerError, errors.Cause(err).Error())
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *App) createProductHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := model.DecodeProduct(body)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.Store.Create(r.Context(), p)
	if err != nil {
		obs.Logger.Warn("product_create_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		WriteJSONError(w, http.StatusBadRequest, errors.Cause(err).Error())
		return
	}
	obs.Logger.Info("product_created",
		"id", created.ID,
		"name", created.Name,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusCreated, created)
}

func (a *App) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.Store.Delete(r.Context(), id); err != nil {
		obs.Logger.Error("product_delete_failed", "id", id, "error", err, "request_id", RequestIDFromContext(r.Context()))
		WriteJSONError(w, http.StatusInternalServerError, errors.Cause(err).Error())
		return
	}
	obs.Logger.Info("product_deleted", "id", id, "request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, jsonMessage{Message: "Product deleted"})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"message": errors.Cause(err).Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"backend":    a.Cfg.StoreBackend,
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}

func (a *App) openapiHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", httpopenapi.ContentType)
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, docsPage)
}

const docsPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Nexus Inventory API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' });
    </script>
  </body>
</html>`
