package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Product is one catalog entry as published by the source.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       Number `json:"price"`
	Popularity  Number `json:"popularity"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type rawProduct struct {
	ID          json.RawMessage `json:"id"`
	Title       json.RawMessage `json:"title"`
	Price       Number          `json:"price"`
	Popularity  Number          `json:"popularity"`
	Description json.RawMessage `json:"description"`
	Image       json.RawMessage `json:"image"`
}

// UnmarshalJSON is lenient: text fields accept strings or numbers and
// anything else decodes as empty.
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw rawProduct
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Product{
		ID:          text(raw.ID),
		Title:       text(raw.Title),
		Price:       raw.Price,
		Popularity:  raw.Popularity,
		Description: text(raw.Description),
		Image:       text(raw.Image),
	}
	return nil
}

func text(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(b)
	}
	return ""
}

// Number is a numeric field that may arrive as a JSON number or a string.
// It keeps the source form so it re-encodes unchanged.
type Number struct {
	text    string
	literal bool
}

// Num returns a Number that arrived as a JSON string.
func Num(s string) Number { return Number{text: s} }

// NumLit returns a Number that arrived as a bare JSON literal.
func NumLit(s string) Number { return Number{text: s, literal: true} }

// Float coerces the value. ok is false for empty, non-numeric, NaN or
// infinite input.
func (n Number) Float() (v float64, ok bool) {
	s := strings.TrimSpace(n.text)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (n Number) String() string { return n.text }

func (n Number) IsZero() bool { return n == Number{} }

func (n Number) Equal(o Number) bool { return n == o }

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*n = Number{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number{text: s}
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*n = Number{text: buf.String(), literal: true}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	switch {
	case n.IsZero():
		return []byte("null"), nil
	case n.literal:
		return []byte(n.text), nil
	}
	return json.Marshal(n.text)
}
