// Package sheet reads and writes inventory spreadsheets.
package sheet

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

const (
	// ExportFileName is the download name of exported workbooks.
	ExportFileName = "Nexus_Inventory_Data.xlsx"
	// ExportSheet is the worksheet written on export.
	ExportSheet = "Inventory"
)

// ErrNoSheet is returned for a workbook without worksheets.
var ErrNoSheet = errors.New("workbook has no worksheets")

var exportHeader = []any{"Product Name", "Category", "Price", "Stock"}

// Column aliases, first non-empty match wins.
var (
	nameCols     = []string{"Product Name", "name"}
	categoryCols = []string{"Category", "category"}
	priceCols    = []string{"Price", "price"}
	stockCols    = []string{"Stock", "stock"}
)

// Row is one data row of an imported sheet.
type Row struct {
	// Number is the 1-based sheet row, so the first data row is 2.
	Number int
	Draft  model.Draft
}

// ReadRows parses the first worksheet of an xlsx workbook. The first row is
// the header; blank rows are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(grid[0]))
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup && h != "" {
			index[h] = i
		}
	}

	var out []Row
	for i, cells := range grid[1:] {
		if blank(cells) {
			continue
		}
		get := func(names []string) string {
			for _, n := range names {
				col, ok := index[n]
				if !ok || col >= len(cells) {
					continue
				}
				if v := strings.TrimSpace(cells[col]); v != "" {
					return v
				}
			}
			return ""
		}
		category := get(categoryCols)
		if category == "" {
			category = model.DefaultCategory
		}
		out = append(out, Row{
			Number: i + 2,
			Draft: model.Draft{
				Name:     get(nameCols),
				Category: category,
				Price:    number(get(priceCols)),
				Stock:    number(get(stockCols)),
			},
		})
	}
	return out, nil
}

// number normalises numeric cell text into a JSON number literal. Empty
// cells become 0; anything else non-numeric is kept verbatim and is
// rejected by the service when the row is submitted.
func number(s string) model.Amount {
	if s == "" {
		return "0"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return model.Amount(s)
	}
	return model.Amount(strconv.FormatFloat(f, 'f', -1, 64))
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteProducts writes products as an xlsx workbook with a single
// "Inventory" sheet.
func WriteProducts(w io.Writer, products []model.Product) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return err
	}
	header := exportHeader
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Name, p.Category, p.Price, p.Stock}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
