// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderlink/ir"
)

// TypeLayout is the size and alignment of a GLSL type in the std430 layout
// used by push-constant blocks.
type TypeLayout struct {
	Size  uint32
	Align uint32
}

// LayoutOf returns the std430 layout of a GLSL type name. Arrays are
// written "float[4]". Unknown names report false.
func LayoutOf(typeName string) (TypeLayout, bool) {
	typeName = strings.TrimSpace(typeName)
	if base, n, ok := splitArray(typeName); ok {
		elem, ok := LayoutOf(base)
		if !ok {
			return TypeLayout{}, false
		}
		stride := AlignUp(elem.Size, elem.Align)
		return TypeLayout{Size: stride * n, Align: elem.Align}, true
	}

	inner, ok := ParseType(typeName)
	if !ok {
		return TypeLayout{}, false
	}
	return layoutOfInner(inner)
}

func layoutOfInner(inner ir.TypeInner) (TypeLayout, bool) {
	switch t := inner.(type) {
	case ir.ScalarType:
		w := uint32(t.Width)
		if t.Kind == ir.ScalarBool {
			w = 4
		}
		return TypeLayout{Size: w, Align: w}, true
	case ir.VectorType:
		w := uint32(t.Scalar.Width)
		if t.Scalar.Kind == ir.ScalarBool {
			w = 4
		}
		size := w * uint32(t.Size)
		align := size
		if t.Size == ir.Vec3 {
			align = w * 4
		}
		return TypeLayout{Size: size, Align: align}, true
	case ir.MatrixType:
		col, _ := layoutOfInner(ir.VectorType{Size: t.Rows, Scalar: t.Scalar})
		stride := AlignUp(col.Size, col.Align)
		return TypeLayout{Size: stride * uint32(t.Columns), Align: col.Align}, true
	default:
		return TypeLayout{}, false
	}
}

func splitArray(name string) (string, uint32, bool) {
	open := strings.LastIndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return "", 0, false
	}
	n, err := strconv.ParseUint(name[open+1:len(name)-1], 10, 32)
	if err != nil || n == 0 {
		return "", 0, false
	}
	return strings.TrimSpace(name[:open]), uint32(n), true
}

// AlignUp rounds v up to a multiple of align.
func AlignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

var scalarNames = map[string]ir.ScalarType{
	"float":  ir.F32,
	"double": ir.F64,
	"int":    ir.I32,
	"uint":   ir.U32,
	"bool":   ir.Bool,
}

var vectorPrefixes = map[string]ir.ScalarType{
	"vec":  ir.F32,
	"dvec": ir.F64,
	"ivec": ir.I32,
	"uvec": ir.U32,
	"bvec": ir.Bool,
}

// opaqueNames are GLSL opaque types accepted by ParseType.
var opaqueNames = map[string]bool{}

func init() {
	for _, name := range strings.Fields(`
		sampler sampler1D sampler2D sampler3D samplerCube samplerBuffer
		sampler1DArray sampler2DArray samplerCubeArray sampler2DMS
		sampler2DShadow sampler2DArrayShadow samplerCubeShadow
		isampler2D usampler2D
		texture1D texture2D texture3D textureCube texture2DArray texture2DMS textureBuffer
		image1D image2D image3D imageCube imageBuffer iimage2D uimage2D
		subpassInput accelerationStructureEXT rayQueryEXT`) {
		opaqueNames[name] = true
	}
}

// ParseType parses a GLSL scalar, vector, matrix or opaque type name into
// an IR type. Struct and block types are not parsed.
func ParseType(name string) (ir.TypeInner, bool) {
	name = strings.TrimSpace(name)
	if s, ok := scalarNames[name]; ok {
		return s, true
	}
	if opaqueNames[name] {
		return ir.OpaqueType{Name: name}, true
	}
	for prefix, scalar := range vectorPrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			if size, ok := parseDim(rest); ok {
				return ir.VectorType{Size: size, Scalar: scalar}, true
			}
		}
	}
	if rest, ok := strings.CutPrefix(name, "mat"); ok {
		cols, rows, ok := parseMatrixDims(rest)
		if ok {
			return ir.MatrixType{Columns: cols, Rows: rows, Scalar: ir.F32}, true
		}
	}
	return nil, false
}

func parseDim(s string) (ir.VectorSize, bool) {
	switch s {
	case "2":
		return ir.Vec2, true
	case "3":
		return ir.Vec3, true
	case "4":
		return ir.Vec4, true
	default:
		return 0, false
	}
}

func parseMatrixDims(s string) (ir.VectorSize, ir.VectorSize, bool) {
	if c, r, found := strings.Cut(s, "x"); found {
		cols, ok1 := parseDim(c)
		rows, ok2 := parseDim(r)
		return cols, rows, ok1 && ok2
	}
	n, ok := parseDim(s)
	return n, n, ok
}
