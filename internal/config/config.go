// Package config loads service settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultCatalogURL = "https://cdn.drcode.ai/interview-materials/products.json"

type Config struct {
	Port string

	CatalogURL   string
	ProductURL   string
	FetchTimeout time.Duration

	PageSize          int
	ReloadLimitPerMin int
	PlaceholderImage  string

	LogLevel       string
	MetricsEnabled bool
	MetricsToken   string
}

// Load reads .env (or the given files) without overriding variables already
// set, then builds a Config from the environment. Missing files are fine.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	cfg := Config{
		Port:              e.str("PORT", "8082"),
		CatalogURL:        e.str("CATALOG_SOURCE_URL", DefaultCatalogURL),
		ProductURL:        e.str("CATALOG_PRODUCT_URL", ""),
		FetchTimeout:      e.dur("FETCH_TIMEOUT", 10*time.Second),
		PageSize:          e.num("PAGE_SIZE", 20),
		ReloadLimitPerMin: e.num("RELOAD_LIMIT_PER_MIN", 6),
		PlaceholderImage:  e.str("PLACEHOLDER_IMAGE_URL", "https://via.placeholder.com/300"),
		LogLevel:          e.str("LOG_LEVEL", "info"),
		MetricsEnabled:    e.flag("METRICS_ENABLED", true),
		MetricsToken:      e.str("METRICS_TOKEN", ""),
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %q is not a port", c.Port))
	}
	if err := checkURL(c.CatalogURL); err != nil {
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE_URL: %w", err))
	}
	if c.ProductURL != "" {
		if !strings.Contains(c.ProductURL, "{id}") {
			errs = append(errs, errors.New("CATALOG_PRODUCT_URL: missing {id} placeholder"))
		} else if err := checkURL(strings.ReplaceAll(c.ProductURL, "{id}", "x")); err != nil {
			errs = append(errs, fmt.Errorf("CATALOG_PRODUCT_URL: %w", err))
		}
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT: must be positive"))
	}
	if c.PageSize < 1 {
		errs = append(errs, errors.New("PAGE_SIZE: must be positive"))
	}
	if c.ReloadLimitPerMin < 0 {
		errs = append(errs, errors.New("RELOAD_LIMIT_PER_MIN: must not be negative"))
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

type env struct {
	get func(string) string
	err error
}

func (e *env) str(k, def string) string {
	if v := strings.TrimSpace(e.get(k)); v != "" {
		return v
	}
	return def
}

func (e *env) num(k string, def int) int {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v)
		return def
	}
	return n
}

func (e *env) flag(k string, def bool) bool {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(k, v)
		return def
	}
	return b
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v)
		return def
	}
	return d
}

func (e *env) fail(k, v string) {
	e.err = errors.Join(e.err, fmt.Errorf("%s: invalid value %q", k, v))
}
