// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package link merges compiled stage modules into a program.
//
// Modules are compiled independently, so their text carries placeholder
// tokens for descriptor-set indices and push-constant offsets. Link decides
// those numbers once for the whole program:
//
//   - descriptor sets are numbered from 0 in pipeline order of first use,
//     reordered by Settings.SetPriorities;
//   - push constants are packed at aligned offsets; a user ID keeps one
//     offset in every stage that declares it.
//
// The tokens are then substituted, checked unless Settings.Lenient is set,
// and each stage is compiled to bytecode concurrently.
//
//	data, err := link.Link(ctx, map[stage.Stage]*stage.Module{
//		stage.Vertex:   vert,
//		stage.Fragment: frag,
//	}, link.Settings{Compiler: compiler.DefaultGlslang()})
package link
