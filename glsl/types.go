// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/shaderlink/ir"
)

// Basic GLSL type names.
const (
	glslTypeInt   = "int"
	glslTypeUint  = "uint"
	glslTypeFloat = "float"
)

// TypeName returns the GLSL spelling of a type in module. Arrays are
// spelled with the element count attached, as in "vec4[3]".
func TypeName(module *ir.Module, h ir.TypeHandle) (string, error) {
	inner := module.Types.Inner(h)
	if inner == nil {
		return "", fmt.Errorf("glsl: invalid type handle %d", h)
	}
	switch t := inner.(type) {
	case ir.ScalarType:
		return scalarToGLSL(t), nil
	case ir.VectorType:
		return vectorToGLSL(t), nil
	case ir.MatrixType:
		return matrixToGLSL(t), nil
	case ir.ArrayType:
		base, err := TypeName(module, t.Base)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%d]", base, t.Size), nil
	case ir.StructType:
		return escapeKeyword(t.Name), nil
	case ir.OpaqueType:
		return t.Name, nil
	default:
		return "", fmt.Errorf("glsl: unsupported type %T", inner)
	}
}

// scalarToGLSL returns the GLSL name for a scalar type.
func scalarToGLSL(t ir.ScalarType) string {
	switch t.Kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		if t.Width == 8 {
			return "int64_t" // Requires extension
		}
		return glslTypeInt
	case ir.ScalarUint:
		if t.Width == 8 {
			return "uint64_t" // Requires extension
		}
		return glslTypeUint
	case ir.ScalarFloat:
		if t.Width == 8 {
			return "double"
		}
		return glslTypeFloat
	}
	return glslTypeInt // Default fallback
}

// vectorToGLSL returns the GLSL name for a vector type.
func vectorToGLSL(t ir.VectorType) string {
	size := t.Size
	if size < 2 || size > 4 {
		size = 4 // Clamp to valid range
	}

	switch t.Scalar.Kind {
	case ir.ScalarBool:
		return fmt.Sprintf("bvec%d", size)
	case ir.ScalarSint:
		return fmt.Sprintf("ivec%d", size)
	case ir.ScalarUint:
		return fmt.Sprintf("uvec%d", size)
	default:
		if t.Scalar.Width == 8 {
			return fmt.Sprintf("dvec%d", size)
		}
		return fmt.Sprintf("vec%d", size)
	}
}

// matrixToGLSL returns the GLSL name for a matrix type.
func matrixToGLSL(t ir.MatrixType) string {
	cols, rows := t.Columns, t.Rows
	if cols < 2 || cols > 4 {
		cols = 4
	}
	if rows < 2 || rows > 4 {
		rows = 4
	}

	prefix := "mat"
	if t.Scalar.Width == 8 {
		prefix = "dmat"
	}
	if cols == rows {
		return fmt.Sprintf("%s%d", prefix, cols)
	}
	return fmt.Sprintf("%s%dx%d", prefix, cols, rows)
}

// isFloatType reports whether a type is float-based, for choosing between
// mod() and the % operator.
func isFloatType(module *ir.Module, h ir.TypeHandle) bool {
	if h == ir.NoType {
		return false
	}
	switch t := module.Types.Inner(h).(type) {
	case ir.ScalarType:
		return t.Kind == ir.ScalarFloat
	case ir.VectorType:
		return t.Scalar.Kind == ir.ScalarFloat
	case ir.MatrixType:
		return true
	default:
		return false
	}
}

// WriteStructs declares every struct type of module, in registration order.
func WriteStructs(w *Writer, module *ir.Module) error {
	for _, typ := range module.Types.All() {
		st, ok := typ.Inner.(ir.StructType)
		if !ok {
			continue
		}
		w.writeLine("struct %s {", escapeKeyword(st.Name))
		w.pushIndent()
		for _, m := range st.Members {
			name, err := TypeName(module, m.Type)
			if err != nil {
				return fmt.Errorf("struct %s member %s: %w", st.Name, m.Name, err)
			}
			w.writeLine("%s %s;", name, m.Name)
		}
		w.popIndent()
		w.writeLine("};")
		w.writeLine("")
	}
	return nil
}
