// Package model defines domain types used by the service and its clients.
package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LowStockThreshold is the stock level below which a product is flagged.
const LowStockThreshold = 10

// DefaultCategory is applied to imported rows without a category.
const DefaultCategory = "Uncategorized"

// Product is a persisted inventory record.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       float64   `json:"stock"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// LowStock reports whether the product is below LowStockThreshold.
func (p Product) LowStock() bool { return IsLowStock(p.Stock) }

// Value is price multiplied by stock.
func (p Product) Value() float64 { return p.Price * p.Stock }

// IsLowStock reports whether stock is strictly below LowStockThreshold.
func IsLowStock(stock float64) bool { return stock < LowStockThreshold }

// Draft is the create payload sent by clients. Price and Stock keep the
// caller's numeric text so the service, not the client, owns coercion.
type Draft struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    Amount `json:"price"`
	Stock    Amount `json:"stock"`
}

var numberLiteral = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

// Amount is numeric text as the caller typed it. A JSON number literal is
// sent as a number; any other text, including "", "+5" and "1.", is sent as
// a string and left to the service to cast or reject.
type Amount string

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if numberLiteral.MatchString(string(a)) {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts both a JSON number and a JSON string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n)
	return nil
}

// Float64 parses the text the way the service casts a string. Empty text is 0.
func (a Amount) Float64() (float64, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
