// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package stage builds and compiles the GLSL module of one pipeline stage.
//
// A Builder extends the IR builder with capability reads, specialization
// constants, stage outputs, built-in assignments and file inclusion.
// Statements go to the entry point unless another block is open.
//
//	b := stage.NewBuilder(stage.Vertex)
//	vec3 := b.Vector(ir.Vec3, ir.F32)
//	world := b.AccessCapability(capability.WorldPosition, vec3)
//	_ = b.DeclareOutput("fragWorldPosition", vec3, 2)
//	_ = b.SetOutput(2, world)
//	src, err := b.Build()
//	...
//	mod, err := stage.Compile(src, stage.DefaultOptions(capability.VertexCatalog()))
//
// Compile resolves capabilities through the catalog, collects the resources
// they need and assembles the module text in this order: version header,
// extensions, macros, includes, struct types, specialization constants,
// descriptor bindings, push constants, shader inputs, ray-tracing
// declarations, outputs, included file bodies, functions and main.
//
// Descriptor-set indices and push-constant offsets are left as placeholder
// tokens. The link package replaces them once every stage of a program is
// known.
//
// FragmentBuilder produces a fragment module from surface shading
// parameters. Color and normal must be set unless FillDefaults runs.
package stage
