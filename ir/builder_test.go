package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/diag"
)

func TestBuilder_LiteralTypes(t *testing.T) {
	b := NewBuilder()

	f := b.Float(1.5)
	i := b.Int(-3)
	u := b.Uint(7)
	ok := b.BoolLiteral(true)

	assert.Equal(t, b.Scalar(F32), b.TypeOf(f))
	assert.Equal(t, b.Scalar(I32), b.TypeOf(i))
	assert.Equal(t, b.Scalar(U32), b.TypeOf(u))
	assert.Equal(t, b.Scalar(Bool), b.TypeOf(ok))
}

func TestBuilder_SharedValues(t *testing.T) {
	b := NewBuilder()
	vec3 := b.Vector(Vec3, F32)
	n := b.Builtin("normalize", b.Capability("normal", vec3))

	sum := b.Add(n, n)
	val, ok := b.Module().Value(sum)
	require.True(t, ok)
	bin := val.Kind.(ExprBinary)
	assert.Equal(t, bin.Left, bin.Right)
	assert.Equal(t, vec3, b.TypeOf(sum))
}

func TestBuilder_VariadicArgumentsCopied(t *testing.T) {
	b := NewBuilder()
	vec3 := b.Vector(Vec3, F32)
	x, y, z := b.Float(1), b.Float(2), b.Float(3)

	components := []ValueHandle{x, y, z}
	v, err := b.Compose(vec3, components...)
	require.NoError(t, err)
	args := []ValueHandle{v}
	n := b.Builtin("normalize", args...)

	components[0] = z
	args[0] = x

	val, ok := b.Module().Value(v)
	require.True(t, ok)
	assert.Equal(t, []ValueHandle{x, y, z}, val.Kind.(ExprCompose).Components)
	val, ok = b.Module().Value(n)
	require.True(t, ok)
	assert.Equal(t, []ValueHandle{v}, val.Kind.(ExprBuiltin).Arguments)
}

func TestBuilder_UntypedPropagation(t *testing.T) {
	b := NewBuilder()
	v := b.Identifier("gl_FragCoord", NoType)

	assert.Equal(t, NoType, b.TypeOf(v))
	assert.Equal(t, NoType, b.TypeOf(b.Member(v, "xy")))
}

func TestBuilder_Compose(t *testing.T) {
	b := NewBuilder()
	vec2 := b.Vector(Vec2, F32)
	vec3 := b.Vector(Vec3, F32)
	vec4 := b.Vector(Vec4, F32)
	mat4 := b.Matrix(Vec4, Vec4)

	xy := b.Identifier("xy", vec2)
	xyz := b.Identifier("xyz", vec3)
	one := b.Float(1)

	tests := []struct {
		name       string
		typ        TypeHandle
		components []ValueHandle
		wantErr    bool
	}{
		{"splat", vec4, []ValueHandle{one}, false},
		{"vec3 plus scalar", vec4, []ValueHandle{xyz, one}, false},
		{"two vec2", vec4, []ValueHandle{xy, xy}, false},
		{"truncate vec4 to vec3", vec3, []ValueHandle{b.Identifier("p", vec4)}, false},
		{"matrix diagonal", mat4, []ValueHandle{one}, false},
		{"too few", vec4, []ValueHandle{xy, one}, true},
		{"too many", vec3, []ValueHandle{xyz, one}, true},
		{"empty", vec3, nil, true},
		{"untyped component", vec4, []ValueHandle{b.Identifier("raw", NoType), one}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := b.Compose(tt.typ, tt.components...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, diag.ErrTypeMismatch))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, b.TypeOf(h))
		})
	}
}

func TestBuilder_ComposeStructAndArray(t *testing.T) {
	b := NewBuilder()
	f := b.Scalar(F32)
	pair, err := b.Struct("Pair", StructMember{Name: "a", Type: f}, StructMember{Name: "b", Type: f})
	require.NoError(t, err)
	arr := b.Array(f, 3)

	_, err = b.Compose(pair, b.Float(1), b.Float(2))
	assert.NoError(t, err)
	_, err = b.Compose(pair, b.Float(1))
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)

	_, err = b.Compose(arr, b.Float(1), b.Float(2), b.Float(3))
	assert.NoError(t, err)
	_, err = b.Compose(arr, b.Float(1))
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
}

func TestBuilder_Cast(t *testing.T) {
	b := NewBuilder()
	i := b.Int(3)
	iv := b.Identifier("iv", b.Vector(Vec3, I32))

	h, err := b.Cast(b.Scalar(F32), i)
	require.NoError(t, err)
	assert.Equal(t, b.Scalar(F32), b.TypeOf(h))

	_, err = b.Cast(b.Vector(Vec3, F32), iv)
	assert.NoError(t, err)

	_, err = b.Cast(b.Vector(Vec4, F32), iv)
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
}

func TestBuilder_StructRedeclaration(t *testing.T) {
	b := NewBuilder()
	f := b.Scalar(F32)

	first, err := b.Struct("Light", StructMember{Name: "power", Type: f})
	require.NoError(t, err)
	again, err := b.Struct("Light", StructMember{Name: "power", Type: f})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = b.Struct("Light", StructMember{Name: "range", Type: f})
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
}

func TestBuilder_FunctionInterning(t *testing.T) {
	b := NewBuilder()
	f := b.Scalar(F32)

	fn, created := b.Function("luma", f, Arg("c", b.Vector(Vec3, F32)))
	require.True(t, created)
	again, created := b.Function("luma", f)
	assert.False(t, created)
	assert.Equal(t, fn, again)
	assert.Len(t, b.Module().Functions, 1)
}

func TestBuilder_Blocks(t *testing.T) {
	b := NewBuilder()
	f := b.Scalar(F32)
	fn, _ := b.Function("clampPositive", f, Arg("x", f))

	b.StartFunction(fn)
	x := b.Argument(fn, 0)
	accept, reject := b.If(b.Less(x, b.Float(0)))
	b.StartBlock(accept)
	b.Return(b.Float(0))
	b.EndBlock()
	b.StartBlock(reject)
	b.Return(x)
	b.EndBlock()
	b.EndBlock()

	assert.Equal(t, 0, b.Depth())
	body, ok := b.Module().Block(b.Module().Functions[fn].Body)
	require.True(t, ok)
	require.Len(t, body, 1)
	assert.IsType(t, StmtIf{}, body[0].Kind)

	errs, err := Validate(b.Module())
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestBuilder_EndBlockPanicsWhenEmpty(t *testing.T) {
	b := NewBuilder()
	assert.Panics(t, b.EndBlock)
	assert.Panics(t, func() { b.Discard() })
}

func TestBuilder_LocalInit(t *testing.T) {
	b := NewBuilder()
	fn, _ := b.Function("main", NoType)
	b.StartFunction(fn)
	acc := b.LocalInit("acc", b.Float(0))
	b.Assign(acc, b.Add(acc, b.Float(1)))
	b.ReturnVoid()
	b.EndBlock()

	assert.Equal(t, b.Scalar(F32), b.TypeOf(acc))
	body := b.Module().Blocks[b.Module().Functions[fn].Body]
	require.Len(t, body, 3)
}

func TestNewBuilderFor_ReusesDeclarations(t *testing.T) {
	b := NewBuilder()
	f := b.Scalar(F32)
	fn, _ := b.Function("helper", f)
	light, err := b.Struct("Light", StructMember{Name: "power", Type: f})
	require.NoError(t, err)

	again := NewBuilderFor(b.Module())
	h, created := again.Function("helper", f)
	assert.False(t, created)
	assert.Equal(t, fn, h)

	s, err := again.Struct("Light", StructMember{Name: "power", Type: f})
	require.NoError(t, err)
	assert.Equal(t, light, s)
}
