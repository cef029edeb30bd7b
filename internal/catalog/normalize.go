package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeCatalog turns a catalog response body into products in source order.
//
// Accepted shapes are {"products": [...]}, {"products": {"<id>": {...}}} and
// a bare top-level array. In the keyed form the key becomes the product id.
// A missing or unrecognised products field yields an empty catalog; only a
// body that is not JSON at all is an error. Entries that are not objects are
// skipped, and duplicate ids are kept.
func DecodeCatalog(body []byte) ([]Product, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	if len(body) > 0 && body[0] == '[' {
		return decodeProducts(body), nil
	}

	var env struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return []Product{}, nil
	}
	return decodeProducts(env.Products), nil
}

// DecodeProduct decodes a point-fetch body. Besides a bare product object it
// accepts a {"product": {...}} envelope and a full catalog response, which is
// searched for wantID. A product without an id takes wantID.
func DecodeProduct(body []byte, wantID string) (Product, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Product{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Product{}, fmt.Errorf("%w: product is not an object", ErrMalformedResponse)
	}

	if raw, ok := fields["products"]; ok {
		p, found := FindByID(decodeProducts(raw), wantID)
		if !found {
			return Product{}, ErrNotFound
		}
		return p, nil
	}

	if raw, ok := fields["product"]; ok {
		body = raw
	}

	p, ok := decodeProduct(body)
	if !ok {
		return Product{}, fmt.Errorf("%w: product is not an object", ErrMalformedResponse)
	}
	if p.ID == "" {
		p.ID = wantID
	}
	return p, nil
}

// FindByID returns the first product whose id equals id exactly.
func FindByID(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func decodeProducts(raw json.RawMessage) []Product {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []Product{}
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []Product{}
		}
		out := make([]Product, 0, len(items))
		for _, it := range items {
			if p, ok := decodeProduct(it); ok {
				out = append(out, p)
			}
		}
		return out
	case '{':
		return decodeKeyed(raw)
	}
	return []Product{}
}

// decodeKeyed walks the object token by token so entries keep document order.
func decodeKeyed(raw json.RawMessage) []Product {
	out := []Product{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return out
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		key, _ := tok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		p, ok := decodeProduct(v)
		if !ok {
			continue
		}
		p.ID = key
		out = append(out, p)
	}
	return out
}

func decodeProduct(raw json.RawMessage) (Product, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Product{}, false
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, false
	}
	return p, true
}
