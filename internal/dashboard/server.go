// Package dashboard serves the browser dashboard: widgets, a low-stock chart,
// the product table, and spreadsheet import and export. It reaches the store
// only through the inventory API.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpapi "github.com/fairyhunter13/nexus-inventory/internal/http"
	"github.com/fairyhunter13/nexus-inventory/internal/importer"
	"github.com/fairyhunter13/nexus-inventory/internal/model"
	"github.com/fairyhunter13/nexus-inventory/internal/obs"
	"github.com/fairyhunter13/nexus-inventory/internal/sheet"
)

// ServiceName labels dashboard server spans.
const ServiceName = "nexus-inventory-dashboard"

const (
	alertMissingFields = "Please fill details"
	alertCreateFailed  = "Failed to add product"
	alertImportFailed  = "Failed to read spreadsheet"

	maxUploadBytes = 32 << 20
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var pageSizes = []int{10, 20}

//go:embed templates/index.html
var templatesFS embed.FS

// API is the subset of the inventory API the dashboard uses.
// *client.Client satisfies it.
type API interface {
	List(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, d model.Draft) (model.Product, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Options tunes the dashboard.
type Options struct {
	ImportConcurrency int
}

type Server struct {
	api  API
	inv  *Inventory
	opts Options
	tmpl *template.Template
}

func NewServer(api API, opts Options) *Server {
	tmpl := template.Must(template.New("index.html").
		Funcs(template.FuncMap{"amount": FormatAmount}).
		ParseFS(templatesFS, "templates/index.html"))
	return &Server{api: api, inv: NewInventory(), opts: opts, tmpl: tmpl}
}

// Inventory exposes the local product copy.
func (s *Server) Inventory() *Inventory { return s.inv }

// Handler returns the dashboard routes with request logging and tracing.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	r.HandleFunc("/products", s.createHandler).Methods(http.MethodPost)
	r.HandleFunc("/products/{id}/delete", s.deleteHandler).Methods(http.MethodPost)
	r.HandleFunc("/import", s.importHandler).Methods(http.MethodPost)
	r.HandleFunc("/export", s.exportHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	h := httpapi.WithRequestID(httpapi.WithLogging(r))
	return otelhttp.NewHandler(h, ServiceName)
}

// refresh replaces the local copy with a fresh list. On failure the
// previous copy is kept.
func (s *Server) refresh(ctx context.Context) {
	products, err := s.api.List(ctx)
	if err != nil {
		obs.Logger.Error("dashboard_fetch_failed", "error", err, "request_id", httpapi.RequestIDFromContext(ctx))
		return
	}
	s.inv.Replace(products)
}

type chartBar struct {
	ChartEntry
	Width int
}

type pageView struct {
	Stats     Stats
	Chart     []chartBar
	Rows      []model.Product
	Total     int
	Page      int
	Pages     int
	PageSize  int
	PageSizes []int
	PrevURL   string
	NextURL   string
	ShowForm  bool
	Notice    string
	Alert     string
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.refresh(r.Context())
	products, stats := s.inv.Snapshot()

	q := r.URL.Query()
	size := pageSizes[0]
	if n, err := strconv.Atoi(q.Get("size")); err == nil {
		for _, allowed := range pageSizes {
			if n == allowed {
				size = n
			}
		}
	}
	pages := (len(products) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	lo := (page - 1) * size
	hi := min(lo+size, len(products))

	v := pageView{
		Stats:     stats,
		Chart:     chartBars(stats.Chart),
		Rows:      products[lo:hi],
		Total:     len(products),
		Page:      page,
		Pages:     pages,
		PageSize:  size,
		PageSizes: pageSizes,
		ShowForm:  q.Get("new") == "1",
		Notice:    q.Get("notice"),
		Alert:     q.Get("alert"),
	}
	if page > 1 {
		v.PrevURL = pageURL(page-1, size)
	}
	if page < pages {
		v.NextURL = pageURL(page+1, size)
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, v); err != nil {
		obs.Logger.Error("dashboard_render_failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func chartBars(entries []ChartEntry) []chartBar {
	peak := 1.0
	for _, e := range entries {
		peak = max(peak, e.Stock)
	}
	bars := make([]chartBar, 0, len(entries))
	for _, e := range entries {
		width := int(e.Stock / peak * 100)
		bars = append(bars, chartBar{ChartEntry: e, Width: max(width, 0)})
	}
	return bars
}

func pageURL(page, size int) string {
	return "/?" + url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}.Encode()
}

func redirect(w http.ResponseWriter, r *http.Request, q url.Values) {
	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) createHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, url.Values{"new": {"1"}, "alert": {alertCreateFailed}})
		return
	}
	// Fields go to the service as typed; only empty name or price is refused.
	d := model.Draft{
		Name:     r.PostForm.Get("name"),
		Category: r.PostForm.Get("category"),
		Price:    model.Amount(r.PostForm.Get("price")),
		Stock:    model.Amount(r.PostForm.Get("stock")),
	}
	if d.Name == "" || d.Price == "" {
		redirect(w, r, url.Values{"new": {"1"}, "alert": {alertMissingFields}})
		return
	}
	if _, err := s.api.Create(r.Context(), d); err != nil {
		obs.Logger.Warn("dashboard_create_failed", "error", err, "request_id", httpapi.RequestIDFromContext(r.Context()))
		redirect(w, r, url.Values{"new": {"1"}, "alert": {alertCreateFailed}})
		return
	}
	redirect(w, r, nil)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.api.Delete(r.Context(), id); err != nil {
		obs.Logger.Error("dashboard_delete_failed", "id", id, "error", err, "request_id", httpapi.RequestIDFromContext(r.Context()))
	}
	redirect(w, r, nil)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		obs.Logger.Warn("dashboard_import_failed", "error", err)
		redirect(w, r, url.Values{"alert": {alertImportFailed}})
		return
	}
	defer func() { _ = file.Close() }()

	rows, err := sheet.ReadRows(file)
	if err != nil {
		obs.Logger.Warn("dashboard_import_failed", "error", err)
		redirect(w, r, url.Values{"alert": {alertImportFailed}})
		return
	}
	rep := importer.Run(r.Context(), s.api, rows, importer.Options{Concurrency: s.opts.ImportConcurrency})
	redirect(w, r, url.Values{"notice": {importNotice(rep)}})
}

func importNotice(rep importer.Report) string {
	msg := fmt.Sprintf("Added %d of %d items", rep.Succeeded, rep.Total)
	if rep.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", rep.Failed)
	}
	return msg
}

func (s *Server) exportHandler(w http.ResponseWriter, _ *http.Request) {
	products, _ := s.inv.Snapshot()
	var buf bytes.Buffer
	if err := sheet.WriteProducts(&buf, products); err != nil {
		obs.Logger.Error("dashboard_export_failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
