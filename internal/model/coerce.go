package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a create body is not a JSON object.
var ErrNotObject = errors.New("request body must be a JSON object")

// CastError describes fields whose values could not be coerced to the
// declared type of the Product document.
type CastError struct {
	Fields []FieldError
}

// FieldError is a single failed coercion.
type FieldError struct {
	Path  string
	Kind  string
	Value string
	Type  string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: Cast to %s failed for value %s (type %s) at path %q", e.Path, e.Kind, e.Value, e.Type, e.Path)
}

func (e *CastError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "Product validation failed: " + strings.Join(parts, ", ")
}

// DecodeProduct coerces a JSON create body into a Product the way a typed
// document schema does: strings and numbers are cast to the field type,
// unknown fields are dropped and absent fields keep their zero value.
// ID and LastUpdated are left for the store to assign.
func DecodeProduct(body []byte) (Product, error) {
	var p Product
	if len(bytes.TrimSpace(body)) == 0 {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return p, err
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return p, ErrNotObject
	}

	var cerr CastError
	str := func(path string, dst *string) {
		v, ok := doc[path]
		if !ok {
			return
		}
		s, fe, ok := castString(path, v)
		if !ok {
			cerr.Fields = append(cerr.Fields, fe)
			return
		}
		*dst = s
	}
	num := func(path string, dst *float64) {
		v, ok := doc[path]
		if !ok {
			return
		}
		n, fe, ok := castNumber(path, v)
		if !ok {
			cerr.Fields = append(cerr.Fields, fe)
			return
		}
		*dst = n
	}
	str("name", &p.Name)
	str("category", &p.Category)
	num("price", &p.Price)
	num("stock", &p.Stock)
	if len(cerr.Fields) > 0 {
		return Product{}, &cerr
	}
	return p, nil
}

func castString(path string, v any) (string, FieldError, bool) {
	switch t := v.(type) {
	case nil:
		return "", FieldError{}, true
	case string:
		return t, FieldError{}, true
	case bool:
		return strconv.FormatBool(t), FieldError{}, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String(), FieldError{}, true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), FieldError{}, true
	}
	return "", fieldError(path, "string", v), false
}

func castNumber(path string, v any) (float64, FieldError, bool) {
	switch t := v.(type) {
	case nil:
		return 0, FieldError{}, true
	case bool:
		if t {
			return 1, FieldError{}, true
		}
		return 0, FieldError{}, true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, FieldError{}, true
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, FieldError{}, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f, FieldError{}, true
		}
	}
	return 0, fieldError(path, "Number", v), false
}

func fieldError(path, kind string, v any) FieldError {
	typ := "Object"
	switch v.(type) {
	case string:
		typ = "string"
	case []any:
		typ = "Array"
	case json.Number:
		typ = "number"
	case bool:
		typ = "boolean"
	}
	b, _ := json.Marshal(v)
	return FieldError{Path: path, Kind: kind, Value: string(b), Type: typ}
}
