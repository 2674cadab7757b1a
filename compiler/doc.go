// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package compiler defines the text-to-bytecode service used by the linker.
//
// The linker only depends on the Compiler interface. Glslang implements it
// by running glslangValidator; tests and embedders can plug in any function
// with Func.
package compiler
