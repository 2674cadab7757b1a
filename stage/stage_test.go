// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/capability"
	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/rtconst"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		input string
		want  Stage
	}{
		{"vertex", Vertex},
		{"vert", Vertex},
		{".frag", Fragment},
		{"FRAGMENT", Fragment},
		{"rchit", ClosestHit},
		{"tese", TessEvaluation},
		{"callable", Callable},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStage(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStage("pixel")
	assert.Error(t, err)
}

func TestStage_Properties(t *testing.T) {
	assert.Len(t, All(), 12)
	assert.Equal(t, Mask(0x10), Fragment.Mask())
	assert.Equal(t, Mask(0x400), ClosestHit.Mask())
	assert.Equal(t, "rgen", RayGen.Extension())
	assert.True(t, Miss.IsRayTracing())
	assert.False(t, Compute.IsRayTracing())
	assert.False(t, Stage(200).Valid())
	assert.Equal(t, "Stage(200)", Stage(200).String())

	m := Vertex.Mask() | Fragment.Mask()
	assert.True(t, m.Has(Vertex))
	assert.False(t, m.Has(Geometry))
	assert.Equal(t, []Stage{Vertex, Fragment}, m.Stages())
	assert.Equal(t, "vertex|fragment", m.String())
	assert.Equal(t, "none", Mask(0).String())
}

func TestStage_JSONMapKey(t *testing.T) {
	in := map[Stage]int{Vertex: 1, ClosestHit: 2}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vertex":1,"closesthit":2}`, string(data))

	var out map[Stage]int
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

// Scenario: a fragment module without its color never builds.
func TestFragmentBuilder_MissingParameter(t *testing.T) {
	f := NewFragmentBuilder()
	f.SetParameter(ParamNormal, f.AccessCapability(capability.VertexNormal, f.Vector(ir.Vec3, ir.F32)))

	_, err := f.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrMissingParameter))

	var de *diag.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "color", de.Resource)
	assert.Equal(t, "fragment", de.Stage)
}

func TestFragmentBuilder_FillDefaults(t *testing.T) {
	f := NewFragmentBuilder()
	f.FillDefaults()
	for p := Parameter(0); p < paramCount; p++ {
		_, ok := f.Parameter(p)
		assert.True(t, ok, p.String())
	}

	src, err := f.Build()
	require.NoError(t, err)
	mod, err := Compile(src, DefaultOptions(capability.FragmentCatalog()))
	require.NoError(t, err)

	assert.Contains(t, mod.Source, "layout(location = 0) out vec4 outColor;\n")
	assert.Contains(t, mod.Source, "layout(location = 1) out vec4 outNormal;\n")
	assert.Contains(t, mod.Source, "layout(location = 2) out vec4 outMaterial;\n")
	assert.Contains(t, mod.Source, "outMaterial = vec4(0.0, 1.0, 1.0, 1.0);")

	_, err = f.Build()
	assert.True(t, errors.Is(err, diag.ErrRebuildNotAllowed))
}

func TestFragmentBuilder_OptionalDefaults(t *testing.T) {
	f := NewFragmentBuilder()
	vec3 := f.Vector(ir.Vec3, ir.F32)
	vec4 := f.Vector(ir.Vec4, ir.F32)
	uv := f.AccessCapability(capability.VertexUV, f.Vector(ir.Vec2, ir.F32))
	color, err := f.Compose(vec4, uv, f.Float(0), f.Float(1))
	require.NoError(t, err)
	f.SetParameter(ParamColor, color)
	f.SetParameter(ParamNormal, f.AccessCapability(capability.VertexNormal, vec3))
	f.SetParameter(ParamRoughness, f.Float(0.25))

	src, err := f.Build()
	require.NoError(t, err)
	mod, err := Compile(src, DefaultOptions(capability.FragmentCatalog()))
	require.NoError(t, err)

	assert.Contains(t, mod.Source, " = normalize(fragNormal);\n")
	assert.Contains(t, mod.Source, "    outNormal = vec4(_e")
	assert.Contains(t, mod.Source, "outMaterial = vec4(0.0, 0.25, 1.0, 1.0);")
	assert.Contains(t, mod.Source, "layout(location = 1) in vec2 fragUV;\n")
}

func TestEncodeDecodeModule(t *testing.T) {
	b := NewBuilder(Fragment)
	f32 := b.Scalar(ir.F32)
	exposure := b.MakeSpecializationConstant(rtconst.FixedFloat("exposure", 2))
	time := b.AccessCapability(capability.Time, f32)
	require.NoError(t, b.DeclareOutput("outValue", f32, 0))
	require.NoError(t, b.SetOutput(0, b.Mul(exposure, time)))
	src, err := b.Build()
	require.NoError(t, err)

	mod, err := Compile(src, DefaultOptions(capability.FragmentCatalog()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, mod))
	got, err := DecodeModule(&buf, rtconst.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, mod.Stage, got.Stage)
	assert.Equal(t, mod.Source, got.Source)
	assert.Equal(t, mod.Interface.PushConstants, got.Interface.PushConstants)
	assert.Equal(t, mod.Interface.DescriptorSets, got.Interface.DescriptorSets)
	assert.Equal(t, mod.Interface.Sections, got.Interface.Sections)
	require.Len(t, got.Interface.SpecConstants, 1)
	assert.True(t, got.Interface.SpecConstants[0].Constant.Equal(rtconst.FixedFloat("exposure", 2)))
}

func TestDecodeModule_Failures(t *testing.T) {
	_, err := DecodeModule(bytes.NewBufferString("{"), rtconst.NewRegistry())
	assert.True(t, errors.Is(err, diag.ErrDeserializationFailure))

	_, err = DecodeModule(bytes.NewBufferString(`{"format": 99, "stage": "vertex"}`), rtconst.NewRegistry())
	assert.True(t, errors.Is(err, diag.ErrDeserializationFailure))

	unknown := `{"format": 1, "stage": "vertex", "source": "", "interface": {"sections": {},
		"specConstants": [{"index": 0, "name": "specConstant0", "constant": {"kind": "texture-index", "data": {}}}]}}`
	_, err = DecodeModule(bytes.NewBufferString(unknown), rtconst.NewRegistry())
	assert.True(t, errors.Is(err, diag.ErrDeserializationFailure))

	_, err = DecodeModule(bytes.NewBufferString(unknown), nil)
	assert.True(t, errors.Is(err, diag.ErrDeserializationFailure))
}
