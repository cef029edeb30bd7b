package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultPointFetchTimeout = 5 * time.Second

type Outcome int

const (
	Pending Outcome = iota
	Found
	NotFound
	FetchFailed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case FetchFailed:
		return "fetch_failed"
	}
	return "pending"
}

type Result struct {
	Outcome Outcome
	Product Product
	Err     error
}

// Resolution is an in-progress detail lookup.
type Resolution struct {
	done   chan struct{}
	result Result
}

func resolved(r Result) *Resolution {
	res := &Resolution{done: make(chan struct{}), result: r}
	close(res.done)
	return res
}

// State is Pending until the lookup reaches a terminal outcome.
func (r *Resolution) State() Outcome {
	select {
	case <-r.done:
		return r.result.Outcome
	default:
		return Pending
	}
}

func (r *Resolution) Done() <-chan struct{} { return r.done }

// Wait blocks until the lookup is terminal or ctx is done. In the second
// case it returns a Pending result and the fetch keeps running unobserved.
func (r *Resolution) Wait(ctx context.Context) Result {
	select {
	case <-r.done:
		return r.result
	case <-ctx.Done():
		return Result{Outcome: Pending, Err: ctx.Err()}
	}
}

// Lookup resolves product ids, preferring the in-memory catalog over a
// point fetch.
type Lookup struct {
	catalog CatalogReader
	src     Source
	log     *zap.Logger
	metrics *Metrics
	timeout time.Duration

	group singleflight.Group
}

type LookupOption func(*Lookup)

func WithLookupLogger(l *zap.Logger) LookupOption {
	return func(lk *Lookup) {
		if l != nil {
			lk.log = l
		}
	}
}

func WithLookupMetrics(m *Metrics) LookupOption {
	return func(lk *Lookup) { lk.metrics = m }
}

func WithPointFetchTimeout(d time.Duration) LookupOption {
	return func(lk *Lookup) {
		if d > 0 {
			lk.timeout = d
		}
	}
}

func NewLookup(catalog CatalogReader, src Source, opts ...LookupOption) *Lookup {
	l := &Lookup{
		catalog: catalog,
		src:     src,
		log:     zap.NewNop(),
		timeout: defaultPointFetchTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lookup) Resolve(ctx context.Context, id string) Result {
	return l.Begin(ctx, id).Wait(ctx)
}

// Begin scans the catalog synchronously and only starts a point fetch when
// the id is absent. Concurrent fetches of the same id share one request.
func (l *Lookup) Begin(ctx context.Context, id string) *Resolution {
	if id == "" {
		return resolved(Result{Outcome: NotFound, Err: ErrNotFound})
	}
	if p, ok := FindByID(l.catalog.Get(), id); ok {
		return resolved(Result{Outcome: Found, Product: p})
	}

	r := &Resolution{done: make(chan struct{})}
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(r.done)
		r.result = l.fetch(fetchCtx, id)
	}()
	return r
}

func (l *Lookup) fetch(ctx context.Context, id string) Result {
	v, err, _ := l.group.Do(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		p, err := l.src.FetchProduct(ctx, id)
		l.metrics.observePointFetch(outcomeOf(err))
		if err != nil && !errors.Is(err, ErrNotFound) {
			l.log.Warn("point fetch failed", zap.String("id", id), zap.Error(err))
		}
		return p, err
	})

	switch o := outcomeOf(err); o {
	case Found:
		return Result{Outcome: o, Product: v.(Product)}
	default:
		return Result{Outcome: o, Err: err}
	}
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Found
	case errors.Is(err, ErrNotFound):
		return NotFound
	}
	return FetchFailed
}
