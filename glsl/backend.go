// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/rtconst"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
}

// Vulkan GLSL versions.
var (
	Version450 = Version{Major: 4, Minor: 50} // Vulkan 1.0
	Version460 = Version{Major: 4, Minor: 60} // Vulkan 1.1+, ray tracing
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// ParseVersion parses a version number such as "460".
func ParseVersion(s string) (Version, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 100 || n > 999 {
		return Version{}, fmt.Errorf("glsl: invalid version %q", s)
	}
	return Version{Major: uint8(n / 100), Minor: uint8(n % 100)}, nil //nolint:gosec // G115: bounded above
}

// Resolver answers capability and runtime-constant reads during code
// generation.
type Resolver interface {
	// QueryCapability returns the access expression of a capability and
	// records the resources it needs.
	QueryCapability(name string) (ir.Ref, error)
	// QueryRuntimeConstant returns the identifier a runtime constant is
	// declared under.
	QueryRuntimeConstant(c rtconst.Constant) (string, error)
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version460 if zero.
	LangVersion Version

	// InlineAll never materializes intermediate values into locals.
	InlineAll bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion: Version460,
	}
}
