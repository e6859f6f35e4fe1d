package dashboard

import (
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// chartSize is how many of the lowest-stock products the chart shows.
const chartSize = 5

// ChartEntry is one bar of the low-stock chart.
type ChartEntry struct {
	Name  string
	Stock float64
	Low   bool
}

// Stats are the dashboard widgets derived from a product list.
type Stats struct {
	TotalProducts int
	TotalValue    float64
	Chart         []ChartEntry
}

// ComputeStats derives Stats from products without modifying them. Total
// value is summed exactly and becomes +Inf only when the exact sum exceeds
// float64 range; the chart keeps input order between equal stock levels.
func ComputeStats(products []model.Product) Stats {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromFloat(p.Stock)))
	}

	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Stock < sorted[j].Stock })
	if len(sorted) > chartSize {
		sorted = sorted[:chartSize]
	}
	chart := make([]ChartEntry, 0, len(sorted))
	for _, p := range sorted {
		chart = append(chart, ChartEntry{Name: p.Name, Stock: p.Stock, Low: p.LowStock()})
	}

	return Stats{
		TotalProducts: len(products),
		TotalValue:    total.InexactFloat64(),
		Chart:         chart,
	}
}

// Inventory is the dashboard's local copy of the product list. Each fetch
// replaces it wholesale and stats are recomputed only then.
type Inventory struct {
	mu       sync.RWMutex
	products []model.Product
	stats    Stats
}

// NewInventory returns an empty Inventory.
func NewInventory() *Inventory {
	inv := &Inventory{}
	inv.Replace(nil)
	return inv
}

// Replace swaps in a fresh list.
func (inv *Inventory) Replace(products []model.Product) {
	if products == nil {
		products = []model.Product{}
	}
	stats := ComputeStats(products)
	inv.mu.Lock()
	inv.products = products
	inv.stats = stats
	inv.mu.Unlock()
}

// Snapshot returns the current list and its stats. Callers must not modify
// the returned slice.
func (inv *Inventory) Snapshot() ([]model.Product, Stats) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.products, inv.stats
}

// FormatAmount renders v with thousands separators and at most three
// fractional digits. Totals beyond float64 range render as "∞".
func FormatAmount(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case math.IsNaN(v):
		return "NaN"
	}
	return message.NewPrinter(language.English).Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}
