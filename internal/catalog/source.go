package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 32 << 20

var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNotFound          = errors.New("product not found")
)

// Source is the remote product feed.
type Source interface {
	FetchCatalog(ctx context.Context) ([]Product, error)
	FetchProduct(ctx context.Context, id string) (Product, error)
}

// HTTPSource reads the catalog from a JSON endpoint. ProductURL is a
// template containing "{id}"; when it is empty a point fetch downloads the
// whole catalog and scans it.
type HTTPSource struct {
	CatalogURL string
	ProductURL string
	Client     *http.Client
}

func NewHTTPSource(catalogURL, productURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		CatalogURL: strings.TrimSpace(catalogURL),
		ProductURL: strings.TrimSpace(productURL),
		Client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPSource) FetchCatalog(ctx context.Context) ([]Product, error) {
	body, err := c.get(ctx, c.CatalogURL, false)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(body)
}

func (c *HTTPSource) FetchProduct(ctx context.Context, id string) (Product, error) {
	if c.ProductURL == "" {
		products, err := c.FetchCatalog(ctx)
		if err != nil {
			return Product{}, err
		}
		p, ok := FindByID(products, id)
		if !ok {
			return Product{}, ErrNotFound
		}
		return p, nil
	}

	u := strings.ReplaceAll(c.ProductURL, "{id}", url.PathEscape(id))
	body, err := c.get(ctx, u, true)
	if err != nil {
		return Product{}, err
	}
	return DecodeProduct(body, id)
}

func (c *HTTPSource) get(ctx context.Context, u string, notFoundOK bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound && notFoundOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrNetworkFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetworkFailure, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, maxBodyBytes)
	}
	return body, nil
}

func (c *HTTPSource) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
