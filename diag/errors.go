// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"fmt"
	"strings"
)

// Kind categorizes shader authoring, linking and runtime errors.
type Kind uint8

const (
	// KindUnknown is the zero Kind; it never appears on errors built by this package.
	KindUnknown Kind = iota

	// TypeMismatch indicates a malformed cast or constructor, or data that
	// does not fit its declared shape.
	TypeMismatch

	// MissingParameter indicates a mandatory shading parameter was never set.
	MissingParameter

	// MissingOutputValue indicates a declared module output has no value bound.
	MissingOutputValue

	// UnresolvedResource indicates a capability or runtime constant was
	// accessed without a resolver able to satisfy it.
	UnresolvedResource

	// DuplicateModuleType indicates two modules were supplied for one stage.
	DuplicateModuleType

	// RebuildNotAllowed indicates a builder or source was consumed twice.
	RebuildNotAllowed

	// UnknownPushConstant indicates a push-constant user ID the program never declared.
	UnknownPushConstant

	// CompileFailure indicates the text-to-bytecode service rejected a module
	// or the linked text failed validation.
	CompileFailure

	// DeserializationFailure indicates a cached program or runtime constant
	// could not be reconstructed.
	DeserializationFailure
)

// String returns a human-readable error kind name.
func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case MissingParameter:
		return "MissingParameter"
	case MissingOutputValue:
		return "MissingOutputValue"
	case UnresolvedResource:
		return "UnresolvedResource"
	case DuplicateModuleType:
		return "DuplicateModuleType"
	case RebuildNotAllowed:
		return "RebuildNotAllowed"
	case UnknownPushConstant:
		return "UnknownPushConstant"
	case CompileFailure:
		return "CompileFailure"
	case DeserializationFailure:
		return "DeserializationFailure"
	default:
		return "Unknown"
	}
}

// Sentinel errors for use with errors.Is. They match any *Error of the same Kind.
var (
	ErrTypeMismatch           = &Error{Kind: TypeMismatch}
	ErrMissingParameter       = &Error{Kind: MissingParameter}
	ErrMissingOutputValue     = &Error{Kind: MissingOutputValue}
	ErrUnresolvedResource     = &Error{Kind: UnresolvedResource}
	ErrDuplicateModuleType    = &Error{Kind: DuplicateModuleType}
	ErrRebuildNotAllowed      = &Error{Kind: RebuildNotAllowed}
	ErrUnknownPushConstant    = &Error{Kind: UnknownPushConstant}
	ErrCompileFailure         = &Error{Kind: CompileFailure}
	ErrDeserializationFailure = &Error{Kind: DeserializationFailure}
)

// Error is the error type returned across shaderlink packages.
// Every error names the module stage or resource that caused it when one is known.
type Error struct {
	// Kind categorizes the error.
	Kind Kind

	// Stage names the pipeline stage involved, if any.
	Stage string

	// Resource names the capability, resource or push constant involved, if any.
	Resource string

	// Message provides details about the error.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Stage != "" {
		fmt.Fprintf(&b, " [stage %s]", e.Stage)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " [%s]", e.Resource)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithStage returns e with its Stage set.
func (e *Error) WithStage(stage string) *Error {
	e.Stage = stage
	return e
}

// WithResource returns e with its Resource set.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}
