package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNotLoaded = errors.New("catalog not loaded")

type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "empty"
}

// Snapshot is one published catalog. Products must be treated as read-only.
type Snapshot struct {
	Products []Product
	State    State
	Err      error
	LoadID   string
	LoadedAt time.Time
}

// CatalogReader is the read side of Store.
type CatalogReader interface {
	Get() []Product
}

// Store holds the session catalog. Load is the only writer; every load
// builds its result fully before publishing it under the lock.
type Store struct {
	src     Source
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu        sync.RWMutex
	snap      Snapshot
	started   uint64
	published uint64
}

type StoreOption func(*Store)

func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

func NewStore(src Source, opts ...StoreOption) *Store {
	s := &Store{
		src:  src,
		log:  zap.NewNop(),
		now:  time.Now,
		snap: Snapshot{Products: []Product{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the catalog once and replaces the stored one. A failed fetch
// publishes an empty catalog with the error. A load that finishes after a
// newer load has already published is discarded.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	gen := s.started
	if s.snap.State == StateEmpty {
		s.snap.State = StateLoading
	}
	s.mu.Unlock()

	loadID := uuid.NewString()
	start := s.now()

	products, err := s.src.FetchCatalog(ctx)
	if err != nil || products == nil {
		products = []Product{}
	}

	next := Snapshot{
		Products: products,
		State:    StateReady,
		LoadID:   loadID,
		LoadedAt: s.now(),
	}
	if err != nil {
		next.State = StateFailed
		next.Err = err
	}

	s.mu.Lock()
	stale := gen < s.published
	if !stale {
		s.snap = next
		s.published = gen
	}
	s.mu.Unlock()

	result := next.State.String()
	if stale {
		result = "stale"
	}
	s.metrics.observeLoad(result, !stale, len(products))

	fields := []zap.Field{
		zap.String("load_id", loadID),
		zap.Uint64("generation", gen),
		zap.Int("products", len(products)),
		zap.Duration("duration", s.now().Sub(start)),
	}
	switch {
	case stale:
		s.log.Debug("catalog load discarded: newer load published", fields...)
	case err != nil:
		s.log.Error("catalog load failed", append(fields, zap.Error(err))...)
	default:
		s.log.Info("catalog loaded", fields...)
	}

	return err
}

func (s *Store) Get() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Products
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Ping is nil once a load has succeeded and the catalog is ready.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.Snapshot()
	switch snap.State {
	case StateReady:
		return nil
	case StateFailed:
		return snap.Err
	}
	return errNotLoaded
}
