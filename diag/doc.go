// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag defines the error taxonomy shared by the shaderlink packages.
//
// Authoring errors (TypeMismatch, MissingParameter, MissingOutputValue) are
// returned by the call that caused them. Link errors (CompileFailure and the
// errors of the modules being linked) abort the whole link. Runtime lookups
// return UnknownPushConstant. Deserialization problems are reported as
// DeserializationFailure so callers can fall back to rebuilding from source.
//
// Use errors.Is with the sentinel values to test for a kind:
//
//	if errors.Is(err, diag.ErrUnresolvedResource) {
//	    // configure a resolver
//	}
package diag
