// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl generates Vulkan GLSL from the shaderlink IR.
//
// A ValueCompiler turns values into expressions. Values are shared in the
// IR, so the compiler evaluates each typed compound value once per block
// scope: the first use writes a local declaration and later uses read it.
// Literals, identifiers, member chains and untyped values are inlined.
// Options.InlineAll disables materialization entirely.
//
// Capability and runtime-constant reads are delegated to a Resolver, which
// returns the access expression of a capability (possibly living in another
// module arena) or the name of a specialization constant. Compiling either
// without a resolver fails with an UnresolvedResource error.
//
// A BlockCompiler writes statements and function definitions:
//
//	w := glsl.NewWriter()
//	values := glsl.NewValueCompiler(w, resolver, glsl.DefaultOptions())
//	if err := glsl.NewBlockCompiler(w, values, module).WriteFunctions(); err != nil {
//	    return err
//	}
//	source := w.String()
//
// # Reserved Words
//
// Generated identifiers that collide with GLSL reserved words or the gl_
// prefix are escaped with a leading underscore.
package glsl
