// Package store persists Product documents. Every backend assigns the
// document identifier and creation timestamp on Create and keeps insertion
// order on List.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fairyhunter13/nexus-inventory/internal/config"
	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// ErrUnknownBackend is returned by Open for an unsupported STORE_BACKEND.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a single-collection document store.
type Store interface {
	// List returns every product in insertion order.
	List(ctx context.Context) ([]model.Product, error)
	// Create persists p with a fresh identifier and timestamp and returns the
	// stored record.
	Create(ctx context.Context, p model.Product) (model.Product, error)
	// Delete removes the product with the given identifier. Unknown
	// identifiers are not an error.
	Delete(ctx context.Context, id string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// Open builds the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "mongo":
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case "redis":
		return NewRedisFromURL(cfg.RedisURL, cfg.RedisPrefix)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StoreBackend)
}

// stamp assigns a new document identifier and the creation timestamp.
func stamp(p model.Product) model.Product {
	p.ID = primitive.NewObjectID().Hex()
	p.LastUpdated = time.Now().UTC().Truncate(time.Millisecond)
	return p
}
