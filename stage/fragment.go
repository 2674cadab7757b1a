// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"fmt"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
)

// Parameter is a surface shading parameter produced by a fragment module.
type Parameter uint8

const (
	ParamColor     Parameter = iota // vec4, mandatory
	ParamNormal                     // vec3, mandatory
	ParamEmissive                   // vec3
	ParamMetallic                   // float
	ParamRoughness                  // float
	ParamOcclusion                  // float

	paramCount
)

var paramNames = [paramCount]string{"color", "normal", "emissive", "metallic", "roughness", "occlusion"}

// String returns the parameter name.
func (p Parameter) String() string {
	if p >= paramCount {
		return fmt.Sprintf("Parameter(%d)", uint8(p))
	}
	return paramNames[p]
}

// Mandatory reports whether the parameter must be set before Build unless
// FillDefaults runs.
func (p Parameter) Mandatory() bool {
	return p == ParamColor || p == ParamNormal
}

// Fragment output locations written by FragmentBuilder.
const (
	LocationColor    uint32 = 0
	LocationNormal   uint32 = 1
	LocationMaterial uint32 = 2
)

// FragmentBuilder builds a fragment module from shading parameters. The
// module writes the shaded color, the surface normal and the packed
// metallic, roughness and occlusion terms to three outputs.
type FragmentBuilder struct {
	*Builder

	params [paramCount]*ir.ValueHandle
}

// NewFragmentBuilder creates a fragment module builder.
func NewFragmentBuilder() *FragmentBuilder {
	return &FragmentBuilder{Builder: NewBuilder(Fragment)}
}

// SetParameter sets the value of a shading parameter.
func (f *FragmentBuilder) SetParameter(p Parameter, v ir.ValueHandle) {
	if p < paramCount {
		f.params[p] = &v
	}
}

// Parameter returns the value of a parameter, if set.
func (f *FragmentBuilder) Parameter(p Parameter) (ir.ValueHandle, bool) {
	if p >= paramCount || f.params[p] == nil {
		return 0, false
	}
	return *f.params[p], true
}

// FillDefaults sets every unset parameter to its default value.
func (f *FragmentBuilder) FillDefaults() {
	for p := Parameter(0); p < paramCount; p++ {
		if f.params[p] == nil {
			v := f.defaultValue(p)
			f.params[p] = &v
		}
	}
}

func (f *FragmentBuilder) defaultValue(p Parameter) ir.ValueHandle {
	switch p {
	case ParamColor:
		return f.splat(ir.Vec4, 1)
	case ParamNormal:
		v, _ := f.Compose(f.Vector(ir.Vec3, ir.F32), f.Float(0), f.Float(0), f.Float(1))
		return v
	case ParamEmissive:
		return f.splat(ir.Vec3, 0)
	case ParamMetallic:
		return f.Float(0)
	default:
		return f.Float(1)
	}
}

func (f *FragmentBuilder) splat(size ir.VectorSize, x float32) ir.ValueHandle {
	v, _ := f.Compose(f.Vector(size, ir.F32), f.Float(x))
	return v
}

// Build declares the fragment outputs and finishes the module. It fails
// with MissingParameter if a mandatory parameter was never set.
// Optional parameters fall back to their defaults.
func (f *FragmentBuilder) Build() (*Source, error) {
	if f.built {
		return f.Builder.Build()
	}
	for p := Parameter(0); p < paramCount; p++ {
		if f.params[p] == nil && p.Mandatory() {
			return nil, diag.New(diag.MissingParameter, "shading parameter %s was never set", p).
				WithStage(f.stage.String()).WithResource(p.String())
		}
	}
	f.FillDefaults()

	vec4 := f.Vector(ir.Vec4, ir.F32)
	color, normal := *f.params[ParamColor], *f.params[ParamNormal]

	shaded, err := f.Compose(vec4, f.Add(f.Member(color, "rgb"), *f.params[ParamEmissive]), f.Member(color, "a"))
	if err != nil {
		return nil, fmt.Errorf("color: %w", err)
	}
	packedNormal, err := f.Compose(vec4, f.Builtin("normalize", normal), f.Float(0))
	if err != nil {
		return nil, fmt.Errorf("normal: %w", err)
	}
	material, err := f.Compose(vec4,
		*f.params[ParamMetallic], *f.params[ParamRoughness], *f.params[ParamOcclusion], f.Float(1))
	if err != nil {
		return nil, fmt.Errorf("material: %w", err)
	}

	for _, out := range []struct {
		name     string
		location uint32
		value    ir.ValueHandle
	}{
		{"outColor", LocationColor, shaded},
		{"outNormal", LocationNormal, packedNormal},
		{"outMaterial", LocationMaterial, material},
	} {
		if err := f.DeclareOutput(out.name, vec4, out.location); err != nil {
			return nil, err
		}
		if err := f.SetOutput(out.location, out.value); err != nil {
			return nil, err
		}
	}
	return f.Builder.Build()
}
