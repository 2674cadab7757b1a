// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package program holds linked shader programs.
//
// Data is produced by the link package and persisted with Encode and
// Decode. Runtime is the handle draw code uses: push constants are addressed
// by their stable user ID, never by byte offset, and descriptor sets by name.
//
//	rt := program.NewRuntime(data)
//	if err := rt.PushConstants(cmd, layout, modelMatrixID, matrixBytes); err != nil {
//		...
//	}
//	set, ok := rt.DescriptorSetIndex("camera")
package program
