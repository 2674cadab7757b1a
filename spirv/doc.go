// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spirv reads the header and declarations of SPIR-V modules.
//
// The compiler package uses it to check the output of external compilers
// and the shaderlink command to describe linked programs.
package spirv
