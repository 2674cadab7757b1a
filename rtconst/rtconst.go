// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rtconst

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
)

// Type is the scalar type of a runtime constant.
type Type uint8

const (
	TypeBool Type = iota
	TypeInt
	TypeUint
	TypeFloat
)

// String returns the shading-language scalar name.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Size is the byte size of the constant's value; all kinds use 4 bytes.
const Size = 4

// Constant is a typed placeholder whose bytes are produced when a concrete
// pipeline is instantiated.
//
// Two constants describing the same underlying value must be Equal so that a
// module declares one specialization-constant slot for both.
type Constant interface {
	// Kind is the registry tag used to deserialize the description.
	Kind() string

	// Type is the scalar type of the value.
	Type() Type

	// Equal reports whether other describes the same value.
	Equal(other Constant) bool

	// LoadData computes the current value.
	LoadData() ([]byte, error)

	// Describe serializes the description (not the value) of the constant.
	Describe() ([]byte, error)
}

// Description is the persisted form of a Constant.
type Description struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Serialize returns the description of c.
func Serialize(c Constant) (Description, error) {
	data, err := c.Describe()
	if err != nil {
		return Description{}, fmt.Errorf("rtconst: describe %s: %w", c.Kind(), err)
	}
	return Description{Kind: c.Kind(), Data: data}, nil
}

// Deserializer reconstructs constants from descriptions.
// Implementations report false for kinds they do not know.
type Deserializer interface {
	Deserialize(d Description) (Constant, bool)
}

// DecodeFunc rebuilds a constant from its description data.
type DecodeFunc func(data []byte) (Constant, error)

// Registry is a Deserializer over a closed set of kinds registered by the
// embedding application. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

// NewRegistry creates a registry that already knows the Fixed kind.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]DecodeFunc)}
	r.decoders[KindFixed] = decodeFixed
	return r
}

// Register adds a decoder for kind. Registering a kind twice is an error.
func (r *Registry) Register(kind string, fn DecodeFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[kind]; exists {
		return fmt.Errorf("rtconst: kind %q already registered", kind)
	}
	r.decoders[kind] = fn
	return nil
}

// Deserialize implements Deserializer.
func (r *Registry) Deserialize(d Description) (Constant, bool) {
	r.mu.RLock()
	fn, ok := r.decoders[d.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	c, err := fn(d.Data)
	if err != nil || c == nil {
		return nil, false
	}
	return c, true
}

// encodeValue packs bits into the little-endian 4-byte layout used for
// specialization data.
func encodeValue(bits uint32) []byte {
	b := make([]byte, Size)
	binary.LittleEndian.PutUint32(b, bits)
	return b
}

// floatBits returns the IEEE-754 bits of f.
func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}
