package store

import (
	"context"
	"sync"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// Memory is an in-process Store guarded by a RWMutex.
type Memory struct {
	mu    sync.RWMutex
	m     map[string]model.Product
	order []string
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]model.Product)}
}

func (s *Memory) List(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.m[id])
	}
	return out, nil
}

func (s *Memory) Create(_ context.Context, p model.Product) (model.Product, error) {
	p = stamp(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return nil
	}
	delete(s.m, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Memory) Ping(context.Context) error { return nil }

func (s *Memory) Close(context.Context) error { return nil }
