package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CatalogView/internal/catalog"
	"CatalogView/internal/config"
	"CatalogView/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := catalog.NewMetrics(reg)

	src := catalog.NewHTTPSource(cfg.CatalogURL, cfg.ProductURL, cfg.FetchTimeout)
	store := catalog.NewStore(src,
		catalog.WithStoreLogger(log),
		catalog.WithStoreMetrics(metrics),
	)
	lookup := catalog.NewLookup(store, src,
		catalog.WithLookupLogger(log),
		catalog.WithLookupMetrics(metrics),
		catalog.WithPointFetchTimeout(cfg.FetchTimeout),
	)

	s := &catalog.Server{
		Store:    store,
		Lookup:   lookup,
		View:     catalog.Renderer{PlaceholderImage: cfg.PlaceholderImage},
		PageSize: cfg.PageSize,
		Log:      log,
	}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:               log,
		Service:           service,
		Registry:          reg,
		MetricsEnabled:    cfg.MetricsEnabled,
		MetricsToken:      cfg.MetricsToken,
		ReloadLimitPerMin: cfg.ReloadLimitPerMin,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kit.RunHTTPServer(gctx, ":"+cfg.Port, h, log)
	})
	g.Go(func() error {
		// A failed initial load leaves the service up in the failed state;
		// POST /catalog/reload retries it.
		_ = store.Load(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
