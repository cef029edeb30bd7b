package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fetchReply struct {
	products []Product
	err      error
}

// gatedSource hands every FetchCatalog call to the test, which decides when
// and with what it completes.
type gatedSource struct {
	calls chan chan fetchReply
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan chan fetchReply)}
}

func (s *gatedSource) FetchCatalog(ctx context.Context) ([]Product, error) {
	reply := make(chan fetchReply)
	s.calls <- reply
	r := <-reply
	return r.products, r.err
}

func (s *gatedSource) FetchProduct(ctx context.Context, id string) (Product, error) {
	return Product{}, ErrNotFound
}

func TestStore_LoadPublishes(t *testing.T) {
	src := NewMemSource(phones()...)
	s := NewStore(src)

	require.Equal(t, StateEmpty, s.Snapshot().State)
	require.Empty(t, s.Get())
	require.Error(t, s.Ping(context.Background()))

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	require.Equal(t, StateReady, snap.State)
	require.NoError(t, snap.Err)
	require.NotEmpty(t, snap.LoadID)
	require.False(t, snap.LoadedAt.IsZero())
	require.Equal(t, []string{"1", "2"}, ids(s.Get()))
	require.NoError(t, s.Ping(context.Background()))

	catalogCalls, productCalls := src.Calls()
	require.Equal(t, 1, catalogCalls)
	require.Zero(t, productCalls)
}

func TestStore_ReloadReplacesWholesale(t *testing.T) {
	src := NewMemSource(phones()...)
	s := NewStore(src)
	require.NoError(t, s.Load(context.Background()))
	firstID := s.Snapshot().LoadID

	src.Set([]Product{prod("9", "Nine", "1", "1")}, nil)
	require.NoError(t, s.Load(context.Background()))

	require.Equal(t, []string{"9"}, ids(s.Get()))
	require.NotEqual(t, firstID, s.Snapshot().LoadID)
}

func TestStore_FailureEmptiesCatalog(t *testing.T) {
	src := NewMemSource(phones()...)
	s := NewStore(src)
	require.NoError(t, s.Load(context.Background()))

	boom := errors.New("boom")
	src.Set(nil, boom)

	err := s.Load(context.Background())
	require.ErrorIs(t, err, boom)

	snap := s.Snapshot()
	require.Equal(t, StateFailed, snap.State)
	require.ErrorIs(t, snap.Err, boom)
	require.NotNil(t, snap.Products)
	require.Empty(t, snap.Products)
	require.ErrorIs(t, s.Ping(context.Background()), boom)
}

func TestStore_LoadingUntilFirstLoadCompletes(t *testing.T) {
	src := newGatedSource()
	s := NewStore(src)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	reply := <-src.calls
	require.Equal(t, StateLoading, s.Snapshot().State)

	reply <- fetchReply{products: phones()}
	require.NoError(t, <-done)
	require.Equal(t, StateReady, s.Snapshot().State)
}

func TestStore_StaleLoadIsDiscarded(t *testing.T) {
	src := newGatedSource()
	s := NewStore(src)

	older := make(chan error, 1)
	go func() { older <- s.Load(context.Background()) }()
	olderReply := <-src.calls

	newer := make(chan error, 1)
	go func() { newer <- s.Load(context.Background()) }()
	newerReply := <-src.calls

	newerReply <- fetchReply{products: []Product{prod("new", "New", "1", "1")}}
	require.NoError(t, <-newer)

	olderReply <- fetchReply{products: []Product{prod("old", "Old", "1", "1")}}
	require.NoError(t, <-older)

	require.Equal(t, []string{"new"}, ids(s.Get()))
}

func TestStore_StaleFailureDoesNotClobber(t *testing.T) {
	src := newGatedSource()
	s := NewStore(src)

	older := make(chan error, 1)
	go func() { older <- s.Load(context.Background()) }()
	olderReply := <-src.calls

	newer := make(chan error, 1)
	go func() { newer <- s.Load(context.Background()) }()
	newerReply := <-src.calls

	newerReply <- fetchReply{products: phones()}
	require.NoError(t, <-newer)

	olderReply <- fetchReply{err: ErrNetworkFailure}
	require.ErrorIs(t, <-older, ErrNetworkFailure)

	require.Equal(t, StateReady, s.Snapshot().State)
	require.Equal(t, []string{"1", "2"}, ids(s.Get()))
}

func TestStore_ConcurrentLoadsAndReads(t *testing.T) {
	s := NewStore(NewMemSource(numbered(50)...))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Load(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = ComputePage(s.Get(), DefaultQuery(), 10)
		}()
	}
	wg.Wait()

	require.Len(t, s.Get(), 50)
	require.Equal(t, StateReady, s.Snapshot().State)
}
