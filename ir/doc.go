// Package ir defines the intermediate representation for shader logic.
//
// Values, blocks and functions live in arenas owned by a Module and are
// addressed by dense handles. A value can only reference values created
// before it, so the value graph is a DAG by construction.
//
// The IR is organized around a Module that contains:
//   - Types: structurally deduplicated type definitions
//   - Values: immutable expression nodes, shared by handle
//   - Blocks: statement lists forming function bodies
//   - Functions: user functions in declaration order
//
// Values are built with a Builder. Capability reads and runtime constant
// reads are symbolic: they name what is needed and leave the concrete
// resource to the code generator's resolver.
//
// Type inference is advisory. A value whose type cannot be inferred is
// recorded with NoType; the target compiler is the authority on validity.
//
// # Usage
//
//	b := ir.NewBuilder()
//	vec3 := b.Vector(ir.Vec3, ir.F32)
//	n := b.Builtin("normalize", b.Capability("normal", vec3))
//	fn, _ := b.Function("shade", vec3)
//	b.StartFunction(fn)
//	b.Return(n)
//	b.EndBlock()
package ir
