package ir

import (
	"fmt"
	"strings"
)

// TypeRegistry interns types by structure, so equal types share one
// handle and handles compare directly.
type TypeRegistry struct {
	types []Type
	index map[string]TypeHandle
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{index: make(map[string]TypeHandle, 16)}
}

// Intern returns the handle of inner, registering it under name the first
// time it is seen. The name of a later registration is ignored.
func (r *TypeRegistry) Intern(name string, inner TypeInner) TypeHandle {
	key := typeKey(inner)
	if h, ok := r.index[key]; ok {
		return h
	}
	h := TypeHandle(len(r.types)) //nolint:gosec // G115: type count fits in uint32
	r.types = append(r.types, Type{Name: name, Inner: inner})
	r.index[key] = h
	return h
}

// All returns the registered types in handle order.
func (r *TypeRegistry) All() []Type {
	return r.types
}

// typeKey renders the structure of a type. Component types of arrays and
// structs are already interned, so their handles identify them.
func typeKey(inner TypeInner) string {
	switch t := inner.(type) {
	case ScalarType:
		return fmt.Sprintf("s%d.%d", t.Kind, t.Width)
	case VectorType:
		return fmt.Sprintf("v%d<%s>", t.Size, typeKey(t.Scalar))
	case MatrixType:
		return fmt.Sprintf("m%dx%d<%s>", t.Columns, t.Rows, typeKey(t.Scalar))
	case ArrayType:
		return fmt.Sprintf("a%d[%d]", t.Base, t.Size)
	case StructType:
		var sb strings.Builder
		sb.WriteString("struct " + t.Name + "{")
		for _, m := range t.Members {
			fmt.Fprintf(&sb, "%s:%d;", m.Name, m.Type)
		}
		sb.WriteByte('}')
		return sb.String()
	case OpaqueType:
		return "o" + t.Name
	default:
		return fmt.Sprintf("%T", inner)
	}
}

// Lookup finds a type by its handle.
func (r *TypeRegistry) Lookup(handle TypeHandle) (Type, bool) {
	if int(handle) >= len(r.types) {
		return Type{}, false
	}
	return r.types[handle], true
}

// Inner returns the inner type of handle, or nil for NoType and invalid handles.
func (r *TypeRegistry) Inner(handle TypeHandle) TypeInner {
	if int(handle) >= len(r.types) {
		return nil
	}
	return r.types[handle].Inner
}

// Len returns the number of distinct types.
func (r *TypeRegistry) Len() int {
	return len(r.types)
}
