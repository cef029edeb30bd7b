package catalog

import (
	"context"
	"sync"
)

// MemSource serves a fixed catalog from memory. It counts calls so tests can
// assert on network usage.
type MemSource struct {
	mu       sync.RWMutex
	products []Product
	err      error

	catalogCalls int
	productCalls int
}

func NewMemSource(products ...Product) *MemSource {
	return &MemSource{products: products}
}

// Set replaces the served catalog and the error returned by every fetch.
func (s *MemSource) Set(products []Product, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products, s.err = products, err
}

func (s *MemSource) FetchCatalog(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogCalls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]Product(nil), s.products...), nil
}

func (s *MemSource) FetchProduct(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productCalls++

	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	if s.err != nil {
		return Product{}, s.err
	}
	p, ok := FindByID(s.products, id)
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemSource) Calls() (catalog, product int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogCalls, s.productCalls
}
