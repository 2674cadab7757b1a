// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rtconst

import (
	"encoding/json"
	"fmt"
)

// Registry tags of the built-in kinds.
const (
	KindFixed  = "fixed"
	KindLookup = "lookup"
)

// Fixed is a constant whose value is known when it is described.
type Fixed struct {
	Name string `json:"name"`
	T    Type   `json:"type"`
	Bits uint32 `json:"bits"`
}

// FixedFloat returns a Fixed float constant.
func FixedFloat(name string, v float32) Fixed {
	return Fixed{Name: name, T: TypeFloat, Bits: floatBits(v)}
}

// FixedInt returns a Fixed int constant.
func FixedInt(name string, v int32) Fixed {
	return Fixed{Name: name, T: TypeInt, Bits: uint32(v)}
}

// FixedUint returns a Fixed uint constant.
func FixedUint(name string, v uint32) Fixed {
	return Fixed{Name: name, T: TypeUint, Bits: v}
}

// FixedBool returns a Fixed bool constant.
func FixedBool(name string, v bool) Fixed {
	var bits uint32
	if v {
		bits = 1
	}
	return Fixed{Name: name, T: TypeBool, Bits: bits}
}

func (c Fixed) Kind() string { return KindFixed }
func (c Fixed) Type() Type   { return c.T }

func (c Fixed) Equal(other Constant) bool {
	o, ok := other.(Fixed)
	return ok && o == c
}

func (c Fixed) LoadData() ([]byte, error) {
	return encodeValue(c.Bits), nil
}

func (c Fixed) Describe() ([]byte, error) {
	return json.Marshal(c)
}

func decodeFixed(data []byte) (Constant, error) {
	var c Fixed
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.T > TypeFloat {
		return nil, fmt.Errorf("rtconst: invalid type %d", c.T)
	}
	return c, nil
}

// LookupFunc fetches the current value of key in source, e.g. the device
// index an asset registry assigned to a texture.
type LookupFunc func(source, key string) (uint32, error)

// Lookup is a constant whose value is fetched from a live source when the
// pipeline is instantiated. Its description names the source and key only.
type Lookup struct {
	Source string
	Key    string
	T      Type

	fetch LookupFunc
}

// NewLookup returns a Lookup constant bound to fetch.
func NewLookup(source, key string, t Type, fetch LookupFunc) *Lookup {
	return &Lookup{Source: source, Key: key, T: t, fetch: fetch}
}

func (c *Lookup) Kind() string { return KindLookup }
func (c *Lookup) Type() Type   { return c.T }

func (c *Lookup) Equal(other Constant) bool {
	o, ok := other.(*Lookup)
	return ok && o.Source == c.Source && o.Key == c.Key && o.T == c.T
}

func (c *Lookup) LoadData() ([]byte, error) {
	if c.fetch == nil {
		return nil, fmt.Errorf("rtconst: lookup %s/%s has no source bound", c.Source, c.Key)
	}
	v, err := c.fetch(c.Source, c.Key)
	if err != nil {
		return nil, fmt.Errorf("rtconst: lookup %s/%s: %w", c.Source, c.Key, err)
	}
	return encodeValue(v), nil
}

type lookupDescription struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Type   Type   `json:"type"`
}

func (c *Lookup) Describe() ([]byte, error) {
	return json.Marshal(lookupDescription{Source: c.Source, Key: c.Key, Type: c.T})
}

// RegisterLookup registers the Lookup kind, binding every deserialized
// constant to fetch.
func RegisterLookup(r *Registry, fetch LookupFunc) error {
	return r.Register(KindLookup, func(data []byte) (Constant, error) {
		var d lookupDescription
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if d.Source == "" || d.Key == "" {
			return nil, fmt.Errorf("rtconst: lookup description without source or key")
		}
		return NewLookup(d.Source, d.Key, d.Type, fetch), nil
	})
}
