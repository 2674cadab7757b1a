// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/rtconst"
)

var cameraEntry = Entry{
	Resource: DescriptorBinding{
		Set:     "camera",
		Binding: 0,
		Layout:  "std140",
		Type:    "uniform CameraBlock { mat4 viewProj; vec3 position; }",
		Name:    "camera",
	},
	Requirements: Requirements{Extensions: []string{"GL_EXT_scalar_block_layout"}},
}

func TestInterfaceBuilder_RequireIsIdempotent(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		b := NewInterfaceBuilder()
		for i := 0; i < n; i++ {
			b.Require(0, cameraEntry)
		}
		iface, err := b.Build()
		require.NoError(t, err)

		assert.Equal(t, 1, strings.Count(iface.Declarations(), "CameraBlock"), "n=%d", n)
		assert.Equal(t, []string{"camera"}, iface.DescriptorSets)
		assert.Equal(t, []string{"GL_EXT_scalar_block_layout"}, iface.Extensions)
	}
}

func TestInterfaceBuilder_RequireReportsNew(t *testing.T) {
	b := NewInterfaceBuilder()
	assert.True(t, b.Require(3, cameraEntry))
	assert.False(t, b.Require(3, cameraEntry))
	assert.True(t, b.Required(3))
	assert.False(t, b.Required(4))
}

func TestInterfaceBuilder_DescriptorDeclaration(t *testing.T) {
	b := NewInterfaceBuilder()
	b.Require(0, cameraEntry)
	b.Require(1, Entry{Resource: DescriptorBinding{Set: "textures", Binding: 2, Type: "uniform sampler2D", Name: "albedo"}})

	iface, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, iface.Sections.Descriptors,
		"layout(set = $DESCRIPTOR_SET_CAMERA$, binding = 0, std140) uniform CameraBlock { mat4 viewProj; vec3 position; } camera;\n")
	assert.Contains(t, iface.Sections.Descriptors,
		"layout(set = $DESCRIPTOR_SET_TEXTURES$, binding = 2) uniform sampler2D albedo;\n")
	assert.Equal(t, []string{"camera", "textures"}, iface.DescriptorSets)
}

func TestInterfaceBuilder_PushConstants(t *testing.T) {
	b := NewInterfaceBuilder()
	b.Require(0, Entry{Resource: PushConstant{Name: "model", Type: "mat4", UserID: 1}})
	b.Require(1, Entry{Resource: PushConstant{Name: "time", Type: "float", UserID: 2}})
	b.Require(2, Entry{Resource: PushConstant{Name: "tint", Type: "vec3", UserID: 3}})

	iface, err := b.Build()
	require.NoError(t, err)

	require.Len(t, iface.PushConstants, 3)
	assert.Equal(t, PushConstantInfo{Name: "model", UserID: 1, Size: 64, Align: 16, Placeholder: "$PUSH_CONSTANT_OFFSET_1$", Offset: 0}, iface.PushConstants[0])
	assert.Equal(t, uint32(64), iface.PushConstants[1].Offset)
	assert.Equal(t, uint32(80), iface.PushConstants[2].Offset)

	text := iface.Sections.PushConstants
	assert.True(t, strings.HasPrefix(text, "layout(push_constant) uniform PushConstants {\n"))
	assert.Contains(t, text, "layout(offset = $PUSH_CONSTANT_OFFSET_2$) float time;")
	assert.True(t, strings.HasSuffix(text, "} pushConstants;\n"))

	pc, ok := iface.PushConstant(2)
	require.True(t, ok)
	assert.Equal(t, "time", pc.Name)
	_, ok = iface.PushConstant(9)
	assert.False(t, ok)
}

func TestInterfaceBuilder_DuplicateUserID(t *testing.T) {
	b := NewInterfaceBuilder()
	b.Require(0, Entry{Resource: PushConstant{Name: "a", Type: "float", UserID: 1}})
	b.Require(1, Entry{Resource: PushConstant{Name: "b", Type: "float", UserID: 1}})

	_, err := b.Build()
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
}

func TestInterfaceBuilder_InputsAndRayTracing(t *testing.T) {
	b := NewInterfaceBuilder()
	b.Require(0, Entry{Resource: ShaderInput{Name: "inUV", Type: "vec2", Location: 2}})
	b.Require(1, Entry{Resource: RayPayload{Name: "payload", Type: "vec4", Incoming: true}})
	b.Require(2, Entry{Resource: RayPayload{Name: "shadowPayload", Type: "bool"}})
	b.Require(3, Entry{Resource: HitAttribute{Name: "barycentrics", Type: "vec2"}})

	iface, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "layout(location = 2) in vec2 inUV;\n", iface.Sections.Inputs)
	assert.Equal(t, "layout(location = 0) rayPayloadInEXT vec4 payload;\n"+
		"layout(location = 1) rayPayloadEXT bool shadowPayload;\n"+
		"hitAttributeEXT vec2 barycentrics;\n", iface.Sections.RayTracing)
	require.Len(t, iface.Inputs, 1)
}

func TestInterfaceBuilder_RequirementsUnionSorted(t *testing.T) {
	b := NewInterfaceBuilder()
	b.Require(0, Entry{
		Resource:     ShaderInput{Name: "a", Type: "float"},
		Requirements: Requirements{Extensions: []string{"GL_B", "GL_A"}, Macros: []string{"USE_A 1"}},
	})
	b.Require(1, Entry{
		Resource:     ShaderInput{Name: "b", Type: "float", Location: 1},
		Requirements: Requirements{Extensions: []string{"GL_A"}, Includes: []string{"common.glsl"}},
	})

	iface, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"GL_A", "GL_B"}, iface.Extensions)
	assert.Equal(t, []string{"common.glsl"}, iface.Includes)
	assert.Equal(t, []string{"USE_A 1"}, iface.Macros)
}

func TestInterfaceBuilder_SpecializationConstantsDeduplicated(t *testing.T) {
	b := NewInterfaceBuilder()

	i1, n1 := b.AddSpecializationConstant(rtconst.FixedFloat("gamma", 2.2))
	i2, n2 := b.AddSpecializationConstant(rtconst.FixedFloat("gamma", 2.2))
	i3, _ := b.AddSpecializationConstant(rtconst.FixedUint("count", 4))

	assert.Equal(t, i1, i2)
	assert.Equal(t, n1, n2)
	assert.NotEqual(t, i1, i3)

	iface, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, iface.SpecConstants, 2)
	assert.Contains(t, iface.Sections.SpecConstants, "layout(constant_id = 0) const float specConstant0 = 0.0;")
	assert.Contains(t, iface.Sections.SpecConstants, "layout(constant_id = 1) const uint specConstant1 = 0u;")
}

func TestInterfaceBuilder_BuildOnce(t *testing.T) {
	b := NewInterfaceBuilder()
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.ErrorIs(t, err, diag.ErrRebuildNotAllowed)
}

func TestPlaceholders_NotPrefixes(t *testing.T) {
	p1 := PushConstantOffsetPlaceholder(1)
	p10 := PushConstantOffsetPlaceholder(10)
	assert.False(t, strings.HasPrefix(p10, p1))
	assert.Equal(t, "$DESCRIPTOR_SET_SHADOW_MAPS$", DescriptorSetPlaceholder("shadowMaps"))
}

func TestDescriptorSetPlaceholder_Distinct(t *testing.T) {
	tests := []struct {
		set  string
		want string
	}{
		{"camera", "$DESCRIPTOR_SET_CAMERA$"},
		{"shadowMap", "$DESCRIPTOR_SET_SHADOW_MAP$"},
		{"shadow_map", "$DESCRIPTOR_SET_SHADOW__5FMAP$"},
		{"shadow-map", "$DESCRIPTOR_SET_SHADOW__2DMAP$"},
		{"SHADOW_MAP", "$DESCRIPTOR_SET__S_H_A_D_O_W__5F_M_A_P$"},
		{"set2", "$DESCRIPTOR_SET_SET2$"},
	}
	seen := make(map[string]string)
	for _, tt := range tests {
		got := DescriptorSetPlaceholder(tt.set)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, []string{got}, FindPlaceholders(got), tt.set)
		if prev, ok := seen[got]; ok {
			t.Errorf("%q and %q share token %s", prev, tt.set, got)
		}
		seen[got] = tt.set
	}
}

func TestFindPlaceholders(t *testing.T) {
	text := "layout(set = $DESCRIPTOR_SET_CAMERA$, binding = 0) uniform Camera camera;\n" +
		"    layout(offset = $PUSH_CONSTANT_OFFSET_12$) mat4 model;\n" +
		"// $ cost $ and $OTHER$ stay\n"
	assert.Equal(t, []string{"$DESCRIPTOR_SET_CAMERA$", "$PUSH_CONSTANT_OFFSET_12$"}, FindPlaceholders(text))
	assert.Empty(t, FindPlaceholders("void main() {}"))
}
