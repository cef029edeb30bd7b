package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CatalogView/pkg/kit"
)

const (
	msgLoading       = "Loading..."
	msgListFailed    = "Failed to fetch products. Please try again later."
	msgNotFound      = "Product not found"
	msgDetailFailed  = "Failed to fetch product details"
	reloadTimeout    = 30 * time.Second
	readyCheckBudget = 1 * time.Second
)

type Server struct {
	Store    *Store
	Lookup   *Lookup
	View     Renderer
	PageSize int
	Log      *zap.Logger

	// ReloadLimiter guards POST /catalog/reload. Nil means unlimited.
	ReloadLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckBudget)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/filters", s.filters)

	reload := http.Handler(http.HandlerFunc(s.reload))
	if s.ReloadLimiter != nil {
		reload = s.ReloadLimiter.Middleware(reload)
	}
	r.Method(http.MethodPost, "/catalog/reload", reload)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q, size, err := parseListQuery(r.URL.Query(), s.pageSize())
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid query", map[string]any{"cause": err.Error()})
		return
	}

	snap := s.Store.Snapshot()
	switch snap.State {
	case StateEmpty, StateLoading:
		kit.WriteError(w, r, http.StatusServiceUnavailable, msgLoading, nil)
		return
	case StateFailed:
		kit.WriteError(w, r, http.StatusBadGateway, msgListFailed, nil)
		return
	}

	page := ComputePage(snap.Products, q, size)
	kit.WriteJSON(w, http.StatusOK, s.View.List(page, max(q.Page, 1), size))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product id", nil)
		return
	}

	res := s.Lookup.Resolve(r.Context(), id)
	switch res.Outcome {
	case Found:
		kit.WriteJSON(w, http.StatusOK, s.View.Detail(res.Product))
	case NotFound:
		kit.WriteError(w, r, http.StatusNotFound, msgNotFound, map[string]any{"id": id})
	case Pending:
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", map[string]any{"id": id})
	default:
		s.logger().Error("get product failed", zap.Error(res.Err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusBadGateway, msgDetailFailed, map[string]any{"id": id})
	}
}

func (s *Server) filters(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, Filters())
}

type reloadResp struct {
	LoadID   string `json:"load_id"`
	Products int    `json:"products"`
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	if err := s.Store.Load(ctx); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		kit.WriteError(w, r, status, msgListFailed, nil)
		return
	}

	snap := s.Store.Snapshot()
	kit.WriteJSON(w, http.StatusOK, reloadResp{LoadID: snap.LoadID, Products: len(snap.Products)})
}

// productID returns the {id} param decoded exactly once. chi matches on
// RawPath when the request carries one, so only then is the param still
// escaped.
func productID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, nil
	}
	return url.PathUnescape(id)
}

func (s *Server) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}

func (s *Server) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

func parseListQuery(v url.Values, defaultSize int) (Query, int, error) {
	q := DefaultQuery()
	q.Search = v.Get("search")

	var err error
	if q.Price, err = ParseRange(v.Get("price")); err != nil {
		return Query{}, 0, err
	}
	if q.Popularity, err = ParseRange(v.Get("popularity")); err != nil {
		return Query{}, 0, err
	}
	if q.Sort, err = ParseSortKey(v.Get("sort")); err != nil {
		return Query{}, 0, err
	}
	if q.Page, err = positiveParam(v, "page", 1); err != nil {
		return Query{}, 0, err
	}

	size, err := positiveParam(v, "page_size", defaultSize)
	if err != nil {
		return Query{}, 0, err
	}
	return q, min(size, MaxPageSize), nil
}

func positiveParam(v url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.Join(ErrInvalidQuery, errors.New(key+" must be a positive integer"))
	}
	return n, nil
}
