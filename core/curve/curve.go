// Package curve holds short-Weierstrass curve parameter tables. The values
// are passed to a curve engine as opaque hex and never evaluated here.
package curve

import (
	"crypto/elliptic"
	"maps"
	"math/big"
	"slices"
	"strings"
	"sync"

	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/errors"
)

// Custom names a curve whose parameters are supplied by the caller.
const Custom = "custom"

// Params describes y^2 = x^3 + ax + b over GF(p) with base point (Gx, Gy) of order N.
type Params struct {
	Name string           `json:"name"`
	P    hexstr.HexString `json:"p"`
	A    hexstr.HexString `json:"a"`
	B    hexstr.HexString `json:"b"`
	Gx   hexstr.HexString `json:"gx"`
	Gy   hexstr.HexString `json:"gy"`
	N    hexstr.HexString `json:"n"`
}

var (
	P256 = fromElliptic(elliptic.P256())
	P384 = fromElliptic(elliptic.P384())
	P521 = fromElliptic(elliptic.P521())
)

// NIST curves use a = -3 mod p.
func fromElliptic(c elliptic.Curve) Params {
	p := c.Params()
	a := new(big.Int).Sub(p.P, big.NewInt(3))
	return Params{
		Name: p.Name,
		P:    hexstr.FromBytes(p.P.Bytes()),
		A:    hexstr.FromBytes(a.Bytes()),
		B:    hexstr.FromBytes(p.B.Bytes()),
		Gx:   hexstr.FromBytes(p.Gx.Bytes()),
		Gy:   hexstr.FromBytes(p.Gy.Bytes()),
		N:    hexstr.FromBytes(p.N.Bytes()),
	}
}

// FromStrings parses raw hex parameters, for example from configuration.
func FromStrings(name, p, a, b, gx, gy, n string) (Params, error) {
	raw := map[string]string{"p": p, "a": a, "b": b, "gx": gx, "gy": gy, "n": n}
	obj, failed := hexstr.ParseObject(raw)
	if len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		for _, field := range slices.Sorted(maps.Keys(failed)) {
			errs = append(errs, errors.FromError(failed[field]).WithMetadata(map[string]string{"field": field}))
		}
		return Params{}, errors.Join(errs...)
	}

	get := func(k string) hexstr.HexString {
		h, _ := obj.Get(k)
		return h
	}
	params := Params{Name: name, P: get("p"), A: get("a"), B: get("b"), Gx: get("gx"), Gy: get("gy"), N: get("n")}
	return params, params.Validate()
}

// Validate checks that the name and every numeric field except a are set.
// a may legitimately be zero.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.BadRequest("curve name is required")
	}
	required := []struct {
		field string
		value hexstr.HexString
	}{{"p", p.P}, {"b", p.B}, {"gx", p.Gx}, {"gy", p.Gy}, {"n", p.N}}
	for _, r := range required {
		if r.value.IsZero() {
			return errors.BadRequest("curve parameter is required").
				WithMetadata(map[string]string{"curve": p.Name, "field": r.field})
		}
	}
	return nil
}

// FieldBytes is the byte length of an element of GF(p).
func (p Params) FieldBytes() int {
	return byteLen(p.P)
}

// ScalarBytes is the byte length of a scalar modulo n.
func (p Params) ScalarBytes() int {
	return byteLen(p.N)
}

func byteLen(h hexstr.HexString) int {
	if h.IsZero() {
		return 0
	}
	v, ok := new(big.Int).SetString(h.String(), 16)
	if !ok {
		return 0
	}
	return (v.BitLen() + 7) / 8
}

// Catalog is a set of named curves. It starts with the NIST presets.
type Catalog struct {
	mu     sync.RWMutex
	curves map[string]Params
}

func NewCatalog(extra ...Params) (*Catalog, error) {
	c := &Catalog{curves: make(map[string]Params, 3+len(extra))}
	for _, p := range []Params{P256, P384, P521} {
		c.curves[p.Name] = p
	}
	for _, p := range extra {
		if err := c.Register(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds or replaces a curve. The reserved name "custom" is rejected.
func (c *Catalog) Register(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if strings.EqualFold(p.Name, Custom) {
		return errors.BadRequest("curve name %q is reserved", Custom)
	}
	c.mu.Lock()
	c.curves[p.Name] = p
	c.mu.Unlock()
	return nil
}

// Lookup returns the named curve.
func (c *Catalog) Lookup(name string) (Params, error) {
	c.mu.RLock()
	p, ok := c.curves[name]
	c.mu.RUnlock()
	if !ok {
		return Params{}, errors.UnknownCurve(name)
	}
	return p, nil
}

// Names returns every registered curve name in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.curves))
}

// List returns every registered curve, sorted by name.
func (c *Catalog) List() []Params {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Params, 0, len(names))
	for _, n := range names {
		if p, ok := c.curves[n]; ok {
			out = append(out, p)
		}
	}
	return out
}
