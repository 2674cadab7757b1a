package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/rtconst"
)

func resolvedInner(t *testing.T, m *Module, kind ValueKind) TypeInner {
	t.Helper()
	res, err := ResolveValueType(m, kind)
	require.NoError(t, err)
	return res.inner(m)
}

func TestResolveLiteralType(t *testing.T) {
	tests := []struct {
		name    string
		literal Literal
		want    TypeInner
	}{
		{"f32", Literal{Value: LiteralF32(3.14)}, F32},
		{"f64", Literal{Value: LiteralF64(3.14)}, F64},
		{"i32", Literal{Value: LiteralI32(42)}, I32},
		{"u32", Literal{Value: LiteralU32(100)}, U32},
		{"bool", Literal{Value: LiteralBool(true)}, Bool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveLiteralType(tt.literal)
			require.NoError(t, err)
			assert.Nil(t, got.Handle)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestResolve_IdentifierIsUntyped(t *testing.T) {
	_, err := ResolveValueType(NewModule(), ExprIdentifier{Name: "gl_FragCoord"})
	assert.Error(t, err)

	_, err = ResolveValueType(NewModule(), ExprCapability{Capability: "normal"})
	assert.Error(t, err)
}

func TestResolve_RuntimeConstant(t *testing.T) {
	m := NewModule()
	assert.Equal(t, F32, resolvedInner(t, m, ExprRuntimeConstant{Constant: rtconst.FixedFloat("gamma", 2.2)}))
	assert.Equal(t, Bool, resolvedInner(t, m, ExprRuntimeConstant{Constant: rtconst.FixedBool("shadows", true)}))
	assert.Equal(t, U32, resolvedInner(t, m, ExprRuntimeConstant{Constant: rtconst.FixedUint("count", 3)}))
}

func TestResolve_Binary(t *testing.T) {
	b := NewBuilder()
	m := b.Module()
	vec3 := b.Vector(Vec3, F32)
	mat4 := b.Matrix(Vec4, Vec4)
	vec4 := b.Vector(Vec4, F32)

	s := b.Float(2)
	v := b.Identifier("v", vec3)
	mv := b.Identifier("p", vec4)
	mat := b.Identifier("mvp", mat4)

	assert.Equal(t, VectorType{Size: Vec3, Scalar: F32}, resolvedInner(t, m, ExprBinary{Op: BinaryMultiply, Left: s, Right: v}))
	assert.Equal(t, VectorType{Size: Vec3, Scalar: F32}, resolvedInner(t, m, ExprBinary{Op: BinaryAdd, Left: s, Right: v}))
	assert.Equal(t, VectorType{Size: Vec4, Scalar: F32}, resolvedInner(t, m, ExprBinary{Op: BinaryMultiply, Left: mat, Right: mv}))
	assert.Equal(t, Bool, resolvedInner(t, m, ExprBinary{Op: BinaryLess, Left: s, Right: s}))
}

func TestResolve_MemberAndAccess(t *testing.T) {
	b := NewBuilder()
	m := b.Module()
	vec4 := b.Vector(Vec4, F32)
	f := b.Scalar(F32)
	light, err := b.Struct("Light", StructMember{Name: "color", Type: vec4}, StructMember{Name: "power", Type: f})
	require.NoError(t, err)
	arr := b.Array(light, 4)

	color := b.Identifier("c", vec4)
	lights := b.Identifier("lights", arr)
	one := b.Int(1)

	assert.Equal(t, VectorType{Size: Vec3, Scalar: F32}, resolvedInner(t, m, ExprMember{Base: color, Member: "rgb"}))
	assert.Equal(t, F32, resolvedInner(t, m, ExprMember{Base: color, Member: "w"}))

	first := b.Index(lights, one)
	assert.Equal(t, light, b.TypeOf(first))
	assert.Equal(t, f, b.TypeOf(b.Member(first, "power")))

	_, err = ResolveValueType(m, ExprMember{Base: color, Member: "xq"})
	assert.Error(t, err)
}

func TestIsSwizzle(t *testing.T) {
	assert.True(t, IsSwizzle("xyz", Vec3))
	assert.True(t, IsSwizzle("rgba", Vec4))
	assert.True(t, IsSwizzle("xx", 1))
	assert.False(t, IsSwizzle("xw", Vec3))
	assert.False(t, IsSwizzle("xg", Vec4))
	assert.False(t, IsSwizzle("", Vec4))
	assert.False(t, IsSwizzle("xyzwx", Vec4))
}

func TestResolve_Builtins(t *testing.T) {
	b := NewBuilder()
	m := b.Module()
	vec3 := b.Vector(Vec3, F32)
	v := b.Identifier("n", vec3)
	tex := b.Identifier("tex", b.Opaque("sampler2D"))
	uv := b.Identifier("uv", b.Vector(Vec2, F32))

	assert.Equal(t, VectorType{Size: Vec3, Scalar: F32}, resolvedInner(t, m, ExprBuiltin{Name: "normalize", Arguments: []ValueHandle{v}}))
	assert.Equal(t, F32, resolvedInner(t, m, ExprBuiltin{Name: "length", Arguments: []ValueHandle{v}}))
	assert.Equal(t, F32, resolvedInner(t, m, ExprBuiltin{Name: "dot", Arguments: []ValueHandle{v, v}}))
	assert.Equal(t, VectorType{Size: Vec4, Scalar: F32}, resolvedInner(t, m, ExprBuiltin{Name: "texture", Arguments: []ValueHandle{tex, uv}}))

	_, err := ResolveValueType(m, ExprBuiltin{Name: "myCustomThing"})
	assert.Error(t, err)
}
