// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package resource describes the concrete GPU bindings shader code reads
// and accumulates the ones a module requires into its resource interface.
//
// Values unknown until link time are written as placeholder tokens:
//
//	layout(set = $DESCRIPTOR_SET_CAMERA$, binding = 0) uniform Camera { ... } camera;
//	layout(offset = $PUSH_CONSTANT_OFFSET_1$) mat4 model;
//
// The linker replaces them once every module of a program is known.
package resource
