// Package client talks to the inventory API over HTTP. It is the only way
// the dashboard and the terminal commands reach the store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// ErrEmptyID is returned by Delete when no identifier is given.
var ErrEmptyID = errors.New("product id is required")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.Status, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a Client for baseURL with trace propagation on every request.
// A zero timeout means no client-side timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	})
}

// NewWithHTTPClient returns a Client using hc as-is.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

// List fetches the full collection.
func (c *Client) List(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, http.StatusOK, &out); err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	if out == nil {
		out = []model.Product{}
	}
	return out, nil
}

// Create posts a draft and returns the stored product.
func (c *Client) Create(ctx context.Context, d model.Draft) (model.Product, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return model.Product{}, errors.Wrap(err, "encoding product")
	}
	var out model.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", body, http.StatusCreated, &out); err != nil {
		return model.Product{}, errors.Wrap(err, "creating product")
	}
	return out, nil
}

// Delete removes a product by identifier and returns the service's
// confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return "", errors.Wrapf(err, "deleting product %s", id)
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var m struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &m) == nil && m.Message != "" {
			apiErr.Message = m.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
