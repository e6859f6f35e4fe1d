package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
	"github.com/fairyhunter13/nexus-inventory/internal/sheet"
)

type fakeAPI struct {
	mu       sync.Mutex
	products []model.Product
	listErr  error
	fail     map[string]bool
	creates  int
	drafts   []model.Draft
	deleted  []string
}

func (f *fakeAPI) List(context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeAPI) Create(_ context.Context, d model.Draft) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.drafts = append(f.drafts, d)
	if f.fail[d.Name] {
		return model.Product{}, errors.New("validation failed")
	}
	price, _ := d.Price.Float64()
	stock, _ := d.Stock.Float64()
	p := model.Product{ID: fmt.Sprintf("p%d", len(f.products)+1), Name: d.Name, Category: d.Category, Price: price, Stock: stock}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.products[:0]
	for _, p := range f.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.products = kept
	return "Product deleted", nil
}

func setup(t *testing.T, api *fakeAPI) http.Handler {
	t.Helper()
	return NewServer(api, Options{ImportConcurrency: 2}).Handler()
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func redirectQuery(t *testing.T, rr *httptest.ResponseRecorder) url.Values {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	return loc.Query()
}

func TestComputeStats(t *testing.T) {
	products := []model.Product{
		{Name: "A", Price: 10, Stock: 5},
		{Name: "B", Price: 3, Stock: 2},
	}
	st := ComputeStats(products)
	assert.Equal(t, 2, st.TotalProducts)
	assert.Equal(t, 56.0, st.TotalValue)
	require.Len(t, st.Chart, 2)
	assert.Equal(t, ChartEntry{Name: "B", Stock: 2, Low: true}, st.Chart[0])
}

func TestComputeStatsExactSum(t *testing.T) {
	st := ComputeStats([]model.Product{{Price: 0.1, Stock: 1}, {Price: 0.2, Stock: 1}})
	assert.Equal(t, 0.3, st.TotalValue)
}

func TestComputeStatsChartIsStableTopFive(t *testing.T) {
	products := []model.Product{
		{Name: "a", Stock: 30},
		{Name: "b", Stock: 10},
		{Name: "c", Stock: 9},
		{Name: "d", Stock: 10},
		{Name: "e", Stock: 0},
		{Name: "f", Stock: 50},
		{Name: "g", Stock: 9},
	}
	st := ComputeStats(products)
	var names []string
	for _, e := range st.Chart {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"e", "c", "g", "b", "d"}, names)
	assert.True(t, st.Chart[2].Low, "stock 9 is low")
	assert.False(t, st.Chart[3].Low, "stock 10 is not low")
	assert.Equal(t, "a", products[0].Name, "input untouched")
}

func TestComputeStatsOverflowingTotal(t *testing.T) {
	st := ComputeStats([]model.Product{{Name: "Vault", Price: 1e308, Stock: 10}})
	assert.True(t, math.IsInf(st.TotalValue, 1))
	assert.Equal(t, 1, st.TotalProducts)
	assert.Equal(t, "∞", FormatAmount(st.TotalValue))

	st = ComputeStats([]model.Product{{Price: 1e308, Stock: 1}, {Price: -1e308, Stock: 1}})
	assert.Zero(t, st.TotalValue, "exact sum cancels before conversion")
}

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.TotalProducts)
	assert.Zero(t, st.TotalValue)
	assert.Empty(t, st.Chart)
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:            "0",
		56:           "56",
		999:          "999",
		1000:         "1,000",
		1234567.5:    "1,234,567.5",
		-2500.25:     "-2,500.25",
		199.999999:   "200",
		1e20:         "100,000,000,000,000,000,000",
		math.Inf(1):  "∞",
		math.Inf(-1): "-∞",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in), "FormatAmount(%v)", in)
	}
}

func TestIndexRendersWidgetsAndLowStock(t *testing.T) {
	api := &fakeAPI{products: []model.Product{
		{ID: "p1", Name: "Lamp", Category: "Lighting", Price: 10, Stock: 5},
		{ID: "p2", Name: "Desk", Category: "Furniture", Price: 3, Stock: 2},
		{ID: "p3", Name: "Chair", Category: "Furniture", Price: 1000, Stock: 10},
	}}
	h := setup(t, api)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, `<div class="figure" id="total-products">3</div>`)
	assert.Contains(t, body, `<div class="figure" id="total-value">$10,056</div>`)
	assert.Contains(t, body, `<td class="num low">5</td>`)
	assert.Contains(t, body, `<td class="num">10</td>`)
	assert.Contains(t, body, `action="/products/p1/delete"`)
	assert.Contains(t, body, "Are you sure you want to delete this product?")
	assert.NotContains(t, body, "<dialog", "form only opens on request")
}

func TestIndexRendersTotalBeyondFloatRange(t *testing.T) {
	api := &fakeAPI{products: []model.Product{
		{ID: "p1", Name: "Vault", Price: 1e308, Stock: 10},
		{ID: "p2", Name: "Lamp", Price: 10, Stock: 5},
	}}
	h := setup(t, api)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<div class="figure" id="total-value">$∞</div>`)
	assert.Contains(t, body, "Vault")
	assert.Contains(t, body, `<td class="num low">5</td>`)
}

func TestIndexPaging(t *testing.T) {
	api := &fakeAPI{}
	for i := 0; i < 25; i++ {
		api.products = append(api.products, model.Product{ID: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("item-%02d", i), Stock: 50})
	}
	h := setup(t, api)

	get := func(path string) string {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		return rr.Body.String()
	}

	first := get("/")
	assert.Contains(t, first, "Page 1 of 3")
	assert.Contains(t, first, "item-09")
	assert.NotContains(t, first, "item-10")

	last := get("/?page=2&size=20")
	assert.Contains(t, last, "Page 2 of 2")
	assert.Contains(t, last, "item-24")
	assert.NotContains(t, last, ">item-19<")

	clamped := get("/?page=99&size=7")
	assert.Contains(t, clamped, "Page 3 of 3", "unknown size falls back to 10")
}

func TestIndexKeepsPreviousCopyOnFetchFailure(t *testing.T) {
	api := &fakeAPI{products: []model.Product{{ID: "p1", Name: "Lamp", Price: 2, Stock: 3}}}
	srv := NewServer(api, Options{})
	h := srv.Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	api.listErr = errors.New("connection refused")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Lamp")

	products, st := srv.Inventory().Snapshot()
	assert.Len(t, products, 1)
	assert.Equal(t, 6.0, st.TotalValue)
}

func TestIndexOpensFormAndAlert(t *testing.T) {
	h := setup(t, &fakeAPI{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?new=1&alert=Please+fill+details&notice=hi", nil))
	body := rr.Body.String()
	assert.Contains(t, body, "<dialog open>")
	assert.Contains(t, body, `<div class="alert" role="alert">Please fill details</div>`)
	assert.Contains(t, body, `<div class="notice" role="status">hi</div>`)
}

func TestCreateRequiresNameAndPrice(t *testing.T) {
	api := &fakeAPI{}
	h := setup(t, api)

	for _, form := range []url.Values{
		{"name": {"Lamp"}},
		{"price": {"3"}},
		{"name": {""}, "price": {"3"}},
	} {
		q := redirectQuery(t, postForm(h, "/products", form))
		assert.Equal(t, "Please fill details", q.Get("alert"))
		assert.Equal(t, "1", q.Get("new"))
	}
	assert.Zero(t, api.creates, "no request is sent")
}

func TestCreateSuccessAndFailure(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"Broken": true}}
	h := setup(t, api)

	q := redirectQuery(t, postForm(h, "/products", url.Values{"name": {"Lamp"}, "category": {"Lighting"}, "price": {"12.5"}, "stock": {""}}))
	assert.Empty(t, q)
	require.Len(t, api.products, 1)
	assert.Equal(t, 12.5, api.products[0].Price)
	assert.Zero(t, api.products[0].Stock)

	q = redirectQuery(t, postForm(h, "/products", url.Values{"name": {"Broken"}, "price": {"1"}}))
	assert.Equal(t, "Failed to add product", q.Get("alert"))
	assert.Len(t, api.products, 1)
}

func TestCreateSendsFieldsAsTyped(t *testing.T) {
	api := &fakeAPI{}
	h := setup(t, api)

	q := redirectQuery(t, postForm(h, "/products", url.Values{"name": {"  "}, "category": {" Tools "}, "price": {"+5"}, "stock": {"1."}}))
	assert.Empty(t, q, "whitespace name is not empty")
	require.Len(t, api.drafts, 1)
	assert.Equal(t, model.Draft{Name: "  ", Category: " Tools ", Price: "+5", Stock: "1."}, api.drafts[0])
	require.Len(t, api.products, 1)
	assert.Equal(t, 5.0, api.products[0].Price)
	assert.Equal(t, 1.0, api.products[0].Stock)
}

func TestDeleteByID(t *testing.T) {
	api := &fakeAPI{products: []model.Product{{ID: "p1"}, {ID: "p2"}}}
	h := setup(t, api)

	redirectQuery(t, postForm(h, "/products/p1/delete", nil))
	assert.Equal(t, []string{"p1"}, api.deleted)
	require.Len(t, api.products, 1)
	assert.Equal(t, "p2", api.products[0].ID)
}

func uploadRequest(t *testing.T, rows [][]any) *http.Request {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	name := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
	var xlsx bytes.Buffer
	_, err := f.WriteTo(&xlsx)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "inventory.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportReportsAccurateCount(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"Broken": true}}
	h := setup(t, api)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, [][]any{
		{"Product Name", "Price", "Stock"},
		{"Bolt", 0.25, 100},
		{"Broken", 1, 1},
		{"Nut", nil, nil},
	}))
	q := redirectQuery(t, rr)
	assert.Equal(t, "Added 2 of 3 items (1 failed)", q.Get("notice"))

	require.Len(t, api.products, 2)
	for _, p := range api.products {
		assert.Equal(t, model.DefaultCategory, p.Category)
	}
}

func TestImportRejectsBadUpload(t *testing.T) {
	api := &fakeAPI{}
	h := setup(t, api)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	q := redirectQuery(t, rr)
	assert.Equal(t, "Failed to read spreadsheet", q.Get("alert"))
	assert.Zero(t, api.creates)
}

func TestExportServesLocalCopy(t *testing.T) {
	api := &fakeAPI{products: []model.Product{
		{ID: "p1", Name: "Lamp", Category: "Lighting", Price: 25, Stock: 4},
	}}
	h := setup(t, api)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	api.listErr = errors.New("api down")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="Nexus_Inventory_Data.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	grid, err := f.GetRows(sheet.ExportSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Product Name", "Category", "Price", "Stock"},
		{"Lamp", "Lighting", "25", "4"},
	}, grid)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	setup(t, &fakeAPI{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestIndexOffersExportNotice(t *testing.T) {
	h := setup(t, &fakeAPI{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `href="/export" download onclick="exported()"`)
	assert.Contains(t, body, `id="export-notice" role="status" hidden>Report Downloaded Successfully!</div>`)
}
