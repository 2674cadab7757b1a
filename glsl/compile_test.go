// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/rtconst"
)

// fakeResolver serves capabilities from a separate catalog arena.
type fakeResolver struct {
	catalog  *ir.Module
	values   map[string]ir.ValueHandle
	queried  []string
	constant string
}

func (r *fakeResolver) QueryCapability(name string) (ir.Ref, error) {
	r.queried = append(r.queried, name)
	h, ok := r.values[name]
	if !ok {
		return ir.Ref{}, diag.New(diag.UnresolvedResource, "unknown capability %s", name)
	}
	return ir.Ref{Module: r.catalog, Value: h}, nil
}

func (r *fakeResolver) QueryRuntimeConstant(rtconst.Constant) (string, error) {
	return r.constant, nil
}

func compileFunctions(t *testing.T, module *ir.Module, resolver Resolver, opts Options) string {
	t.Helper()
	w := NewWriter()
	vc := NewValueCompiler(w, resolver, opts)
	require.NoError(t, NewBlockCompiler(w, vc, module).WriteFunctions())
	return w.String()
}

func TestCompile_ReusesSharedValue(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	n := b.Builtin("normalize", b.Identifier("inNormal", vec3))
	b.LocalInit("result", b.Add(n, n))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Equal(t, `void main() {
    vec3 _e1 = normalize(inNormal);
    vec3 result = (_e1 + _e1);
}
`, got)
}

func TestCompile_EqualValuesNotMerged(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	first := b.Builtin("normalize", b.Identifier("inNormal", vec3))
	second := b.Builtin("normalize", b.Identifier("inNormal", vec3))
	b.LocalInit("result", b.Add(first, second))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Equal(t, `void main() {
    vec3 _e1 = normalize(inNormal);
    vec3 _e3 = normalize(inNormal);
    vec3 result = (_e1 + _e3);
}
`, got)
}

func TestCompile_InlineAll(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	n := b.Builtin("normalize", b.Identifier("inNormal", vec3))
	b.LocalInit("result", b.Add(n, n))
	b.EndBlock()

	opts := DefaultOptions()
	opts.InlineAll = true
	got := compileFunctions(t, b.Module(), nil, opts)
	assert.Equal(t, `void main() {
    vec3 result = (normalize(inNormal) + normalize(inNormal));
}
`, got)
}

func TestCompile_NameHint(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	n := b.Named(b.Builtin("normalize", b.Identifier("inNormal", vec3)), "unit_normal")
	b.LocalInit("result", b.Mul(n, n))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Contains(t, got, "vec3 unitNormal = normalize(inNormal);")
	assert.Contains(t, got, "vec3 result = (unitNormal * unitNormal);")
}

func TestCompile_BlockScopedReuse(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	cond := b.Identifier("flag", b.Scalar(ir.Bool))
	m := b.Mul(b.Identifier("a", vec3), b.Identifier("b", vec3))
	out := b.Identifier("out0", vec3)

	accept, reject := b.If(cond)
	b.StartBlock(accept)
	b.Assign(out, b.Add(m, m))
	b.EndBlock()
	b.StartBlock(reject)
	b.Assign(out, m)
	b.EndBlock()

	b.Assign(out, b.Add(m, m))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Equal(t, `void main() {
    if (flag) {
        vec3 _e3 = (a * b);
        out0 = (_e3 + _e3);
    } else {
        out0 = (a * b);
    }
    vec3 _e3_1 = (a * b);
    out0 = (_e3_1 + _e3_1);
}
`, got)
}

func TestCompile_FunctionsBeforeEntryPoint(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Scalar(ir.F32)

	main, _ := b.Function("main", ir.NoType)
	scale, _ := b.Function("scale", f32, ir.Arg("x", f32), ir.Arg("k", f32))
	b.StartFunction(scale)
	b.Return(b.Mul(b.Argument(scale, 0), b.Argument(scale, 1)))
	b.EndBlock()

	b.StartFunction(main)
	b.LocalInit("y", b.Call(scale, b.Float(2), b.Float(3)))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Equal(t, `float scale(float x, float k) {
    return (x * k);
}

void main() {
    float y = scale(2.0, 3.0);
}
`, got)
}

func TestCompile_CapabilityFromCatalogArena(t *testing.T) {
	cat := ir.NewBuilder()
	world := cat.Mul(
		cat.Identifier("model", cat.Matrix(ir.Vec4, ir.Vec4)),
		cat.Identifier("pos", cat.Vector(ir.Vec4, ir.F32)),
	)
	resolver := &fakeResolver{
		catalog: cat.Module(),
		values:  map[string]ir.ValueHandle{"world": world},
	}

	b := ir.NewBuilder()
	vec4 := b.Vector(ir.Vec4, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	c := b.Capability("world", vec4)
	b.LocalInit("p", b.Add(c, c))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), resolver, DefaultOptions())
	assert.Equal(t, `void main() {
    vec4 _e2 = (model * pos);
    vec4 p = (_e2 + _e2);
}
`, got)
	assert.Contains(t, resolver.queried, "world")
}

func TestCompile_AccessPathInlined(t *testing.T) {
	cat := ir.NewBuilder()
	camera := cat.Identifier("camera", cat.Opaque("CameraBlock"))
	pos := cat.MemberTyped(camera, "position", cat.Vector(ir.Vec3, ir.F32))
	resolver := &fakeResolver{
		catalog: cat.Module(),
		values:  map[string]ir.ValueHandle{"camera.position": pos},
	}

	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	b.LocalInit("eye", b.Capability("camera.position", vec3))
	b.EndBlock()

	got := compileFunctions(t, b.Module(), resolver, DefaultOptions())
	assert.Contains(t, got, "vec3 eye = camera.position;")
}

func TestCompile_UnresolvedWithoutResolver(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *ir.Builder) ir.ValueHandle
	}{
		{"capability", func(b *ir.Builder) ir.ValueHandle {
			return b.Capability("camera.position", b.Vector(ir.Vec3, ir.F32))
		}},
		{"runtime constant", func(b *ir.Builder) ir.ValueHandle {
			return b.RuntimeConstant(rtconst.FixedFloat("exposure", 1))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ir.NewBuilder()
			v := tt.build(b)

			vc := NewValueCompiler(NewWriter(), nil, DefaultOptions())
			_, err := vc.Compile(ir.Ref{Module: b.Module(), Value: v})
			require.Error(t, err)
			assert.True(t, errors.Is(err, diag.ErrUnresolvedResource))
		})
	}
}

func TestCompile_RuntimeConstant(t *testing.T) {
	b := ir.NewBuilder()
	v := b.Mul(b.RuntimeConstant(rtconst.FixedFloat("exposure", 1)), b.Float(0.5))

	vc := NewValueCompiler(nil, &fakeResolver{constant: "specConstant0"}, DefaultOptions())
	got, err := vc.Compile(ir.Ref{Module: b.Module(), Value: v})
	require.NoError(t, err)
	assert.Equal(t, "(specConstant0 * 0.5)", got)
}

func TestCompile_Inline(t *testing.T) {
	b := ir.NewBuilder()
	vec3 := b.Vector(ir.Vec3, ir.F32)
	n := b.Builtin("normalize", b.Identifier("n", vec3))
	v := b.Add(n, n)

	w := NewWriter()
	vc := NewValueCompiler(w, nil, DefaultOptions())
	got, err := vc.Inline(ir.Ref{Module: b.Module(), Value: v})
	require.NoError(t, err)
	assert.Equal(t, "(normalize(n) + normalize(n))", got)
	assert.Zero(t, w.Len())
}

func TestCompile_Operators(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Scalar(ir.F32)
	i32 := b.Scalar(ir.I32)
	x := b.Identifier("x", f32)
	i := b.Identifier("i", i32)
	bv := b.Identifier("mask", b.Vector(ir.Vec3, ir.Bool))

	tests := []struct {
		name  string
		value ir.ValueHandle
		want  string
	}{
		{"float modulo", b.Binary(ir.BinaryModulo, x, b.Float(2)), "mod(x, 2.0)"},
		{"int modulo", b.Binary(ir.BinaryModulo, i, b.Int(3)), "(i % 3)"},
		{"negate", b.Negate(x), "-(x)"},
		{"scalar not", b.Not(b.Less(x, b.Float(1))), "!((x < 1.0))"},
		{"vector not", b.Not(bv), "not(mask)"},
		{"select", b.Select(b.BoolLiteral(true), x, b.Float(0)), "(true ? x : 0.0)"},
		{"uint literal", b.Uint(7), "7u"},
		{"double literal", b.Double(1), "1.0lf"},
		{"index", b.Index(b.Identifier("arr", b.Array(f32, 4)), i), "arr[i]"},
		{"swizzle", b.Member(b.Identifier("v", b.Vector(ir.Vec4, ir.F32)), "xyz"), "v.xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := NewValueCompiler(nil, nil, DefaultOptions())
			got, err := vc.Compile(ir.Ref{Module: b.Module(), Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Compose(t *testing.T) {
	b := ir.NewBuilder()
	vec4 := b.Vector(ir.Vec4, ir.F32)
	xyz := b.Identifier("p", b.Vector(ir.Vec3, ir.F32))
	v, err := b.Compose(vec4, xyz, b.Float(1))
	require.NoError(t, err)

	vc := NewValueCompiler(nil, nil, DefaultOptions())
	got, err := vc.Compile(ir.Ref{Module: b.Module(), Value: v})
	require.NoError(t, err)
	assert.Equal(t, "vec4(p, 1.0)", got)
}

func TestCompile_ControlFlowStatements(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Scalar(ir.F32)
	fn, _ := b.Function("main", ir.NoType)
	b.StartFunction(fn)
	alpha := b.Identifier("alpha", f32)
	accept, _ := b.If(b.Less(alpha, b.Float(0.5)))
	b.StartBlock(accept)
	b.Discard()
	b.EndBlock()
	acc := b.Local("acc", f32)
	b.Assign(acc, alpha)
	b.ReturnVoid()
	b.EndBlock()

	got := compileFunctions(t, b.Module(), nil, DefaultOptions())
	assert.Equal(t, `void main() {
    if ((alpha < 0.5)) {
        discard;
    }
    float acc;
    acc = alpha;
    return;
}
`, got)
}
