package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidQuery = errors.New("invalid query")

type SortKey string

const (
	SortPriceAsc       SortKey = "price-asc"
	SortPriceDesc      SortKey = "price-desc"
	SortPopularityAsc  SortKey = "popularity-asc"
	SortPopularityDesc SortKey = "popularity-desc"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortPriceAsc, nil
	case SortPriceAsc, SortPriceDesc, SortPopularityAsc, SortPopularityDesc:
		return k, nil
	}
	return "", fmt.Errorf("%w: sort %q", ErrInvalidQuery, s)
}

// Range is an inclusive numeric filter. The zero value matches everything.
type Range struct {
	Min  float64
	Max  float64
	Open bool

	set bool
}

var AllRange = Range{}

func Between(lo, hi float64) Range { return Range{Min: lo, Max: hi, set: true} }

func AtLeast(lo float64) Range { return Range{Min: lo, Open: true, set: true} }

func (r Range) IsAll() bool { return !r.set }

// Contains reports whether n falls in r. Values that do not coerce to a
// number only match the "all" range.
func (r Range) Contains(n Number) bool {
	if !r.set {
		return true
	}
	v, ok := n.Float()
	if !ok {
		return false
	}
	return v >= r.Min && (r.Open || v <= r.Max)
}

func (r Range) String() string {
	switch {
	case !r.set:
		return "all"
	case r.Open:
		return formatBound(r.Min) + "-inf"
	}
	return formatBound(r.Min) + "-" + formatBound(r.Max)
}

// ParseRange accepts "all", "<min>-<max>" and "<min>-inf".
func ParseRange(s string) (Range, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return AllRange, nil
	}

	loText, hiText, ok := strings.Cut(s, "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: range %q", ErrInvalidQuery, s)
	}
	lo, err := parseBound(loText)
	if err != nil {
		return Range{}, fmt.Errorf("%w: range %q", ErrInvalidQuery, s)
	}
	if strings.TrimSpace(hiText) == "inf" {
		return AtLeast(lo), nil
	}
	hi, err := parseBound(hiText)
	if err != nil || hi < lo {
		return Range{}, fmt.Errorf("%w: range %q", ErrInvalidQuery, s)
	}
	return Between(lo, hi), nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("bound out of range")
	}
	return v, nil
}

func formatBound(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Query is the user-controlled listing state.
type Query struct {
	Search     string
	Price      Range
	Popularity Range
	Sort       SortKey
	Page       int
}

func DefaultQuery() Query {
	return Query{Sort: SortPriceAsc, Page: 1}
}

type Page struct {
	Items      []Product
	TotalPages int
	TotalItems int
}

// ComputePage filters, sorts and slices catalog for q. It never modifies
// catalog. Pages past the end are empty; page < 1 reads as 1 and
// pageSize < 1 as DefaultPageSize.
func ComputePage(catalog []Product, q Query, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	page := max(q.Page, 1)

	filtered := Filter(catalog, q)
	SortProducts(filtered, q.Sort)

	total := len(filtered)
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}

	if page > pages {
		return Page{Items: []Product{}, TotalPages: pages, TotalItems: total}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, total-start)

	return Page{
		Items:      filtered[start:end:end],
		TotalPages: pages,
		TotalItems: total,
	}
}

// Filter returns a new slice with the products matching the search text and
// both ranges of q, in their original order.
func Filter(catalog []Product, q Query) []Product {
	needle := strings.ToLower(q.Search)

	out := make([]Product, 0, len(catalog))
	for _, p := range catalog {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		if !q.Price.Contains(p.Price) || !q.Popularity.Contains(p.Popularity) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortProducts stable-sorts products in place. Values that do not coerce go
// last in either direction. Unknown keys leave the order alone.
func SortProducts(products []Product, key SortKey) {
	var (
		field func(Product) Number
		desc  bool
	)
	switch key {
	case SortPriceAsc:
		field = func(p Product) Number { return p.Price }
	case SortPriceDesc:
		field, desc = func(p Product) Number { return p.Price }, true
	case SortPopularityAsc:
		field = func(p Product) Number { return p.Popularity }
	case SortPopularityDesc:
		field, desc = func(p Product) Number { return p.Popularity }, true
	default:
		return
	}

	slices.SortStableFunc(products, func(a, b Product) int {
		av, aok := field(a).Float()
		bv, bok := field(b).Float()
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		case desc:
			return cmp.Compare(bv, av)
		}
		return cmp.Compare(av, bv)
	})
}
