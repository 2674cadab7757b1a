// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"fmt"
	"strings"
)

// Stage is a programmable pipeline stage. Stages are ordered as they run in
// the pipeline; the linker relies on this order.
type Stage uint8

const (
	Vertex Stage = iota
	TessControl
	TessEvaluation
	Geometry
	Fragment
	Compute
	RayGen
	AnyHit
	ClosestHit
	Miss
	Intersection
	Callable

	stageCount
)

var stageInfo = [stageCount]struct {
	name string
	ext  string
	mask Mask
}{
	Vertex:         {"vertex", "vert", 0x0001},
	TessControl:    {"tesscontrol", "tesc", 0x0002},
	TessEvaluation: {"tessevaluation", "tese", 0x0004},
	Geometry:       {"geometry", "geom", 0x0008},
	Fragment:       {"fragment", "frag", 0x0010},
	Compute:        {"compute", "comp", 0x0020},
	RayGen:         {"raygen", "rgen", 0x0100},
	AnyHit:         {"anyhit", "rahit", 0x0200},
	ClosestHit:     {"closesthit", "rchit", 0x0400},
	Miss:           {"miss", "rmiss", 0x0800},
	Intersection:   {"intersection", "rint", 0x1000},
	Callable:       {"callable", "rcall", 0x2000},
}

// All returns every stage in pipeline order.
func All() []Stage {
	out := make([]Stage, stageCount)
	for i := range out {
		out[i] = Stage(i) //nolint:gosec // G115: bounded by stageCount
	}
	return out
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s < stageCount
}

// String returns the lower-case stage name.
func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
	return stageInfo[s].name
}

// Extension returns the glslang stage name, which is also the conventional
// file extension, such as "vert" or "rchit".
func (s Stage) Extension() string {
	if !s.Valid() {
		return ""
	}
	return stageInfo[s].ext
}

// Mask returns the Vulkan shader stage flag of s.
func (s Stage) Mask() Mask {
	if !s.Valid() {
		return 0
	}
	return stageInfo[s].mask
}

// IsRayTracing reports whether s belongs to the ray-tracing pipeline.
func (s Stage) IsRayTracing() bool {
	return s >= RayGen && s.Valid()
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("stage: invalid stage %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStage parses a stage name or glslang extension, case-insensitively.
func ParseStage(name string) (Stage, error) {
	name = strings.TrimPrefix(strings.ToLower(name), ".")
	for i, info := range stageInfo {
		if name == info.name || name == info.ext {
			return Stage(i), nil //nolint:gosec // G115: bounded by stageCount
		}
	}
	return 0, fmt.Errorf("stage: unknown stage %q", name)
}

// Mask is a set of stages, encoded as Vulkan shader stage flags.
type Mask uint32

// Has reports whether s is in the mask.
func (m Mask) Has(s Stage) bool {
	return s.Valid() && m&s.Mask() != 0
}

// Stages returns the stages in the mask in pipeline order.
func (m Mask) Stages() []Stage {
	var out []Stage
	for _, s := range All() {
		if m.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// String lists the stages in the mask, separated by '|'.
func (m Mask) String() string {
	stages := m.Stages()
	if len(stages) == 0 {
		return "none"
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.String()
	}
	return strings.Join(names, "|")
}
