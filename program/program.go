// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package program

import (
	"sort"

	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/stage"
)

// StageData is the linked output of one pipeline stage.
type StageData struct {
	// Bytecode is the SPIR-V produced by the compiler.
	Bytecode []byte

	// Source is the GLSL text with all placeholders substituted.
	Source string

	// SpecConstants lists the stage's specialization constants. Indices are
	// local to the stage.
	SpecConstants []resource.SpecConstant
}

// PushConstantRange is the linked placement of one push constant in one
// stage. A user ID declared by several stages has one range per stage.
type PushConstantRange struct {
	UserID uint32     `json:"userId"`
	Name   string     `json:"name"`
	Offset uint32     `json:"offset"`
	Size   uint32     `json:"size"`
	Stages stage.Mask `json:"stages"`
}

// End returns the first byte past the range.
func (r PushConstantRange) End() uint32 { return r.Offset + r.Size }

// Range is a byte extent of the push-constant block.
type Range struct {
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
}

// DescriptorSet is a named descriptor set and its linked index.
type DescriptorSet struct {
	Name  string `json:"name"`
	Index uint32 `json:"index"`
}

// Data is a linked shader program.
type Data struct {
	Stages map[stage.Stage]*StageData

	// PushConstants is ordered by stage, then by offset.
	PushConstants []PushConstantRange

	// StageRanges holds the combined push-constant extent of each stage
	// that uses push constants.
	StageRanges map[stage.Stage]Range

	// DescriptorSets is ordered by index; indices form [0, len).
	DescriptorSets []DescriptorSet
}

// StageList returns the stages of the program in pipeline order.
func (d *Data) StageList() []stage.Stage {
	out := make([]stage.Stage, 0, len(d.Stages))
	for s := range d.Stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DescriptorSetIndex returns the index assigned to the named set.
func (d *Data) DescriptorSetIndex(name string) (uint32, bool) {
	for _, ds := range d.DescriptorSets {
		if ds.Name == name {
			return ds.Index, true
		}
	}
	return 0, false
}

// PushConstant returns the range of userID in stage s.
func (d *Data) PushConstant(s stage.Stage, userID uint32) (PushConstantRange, bool) {
	for _, pc := range d.PushConstants {
		if pc.UserID == userID && pc.Stages.Has(s) {
			return pc, true
		}
	}
	return PushConstantRange{}, false
}

// PushConstantRanges returns every range of userID in pipeline order.
func (d *Data) PushConstantRanges(userID uint32) []PushConstantRange {
	var out []PushConstantRange
	for _, pc := range d.PushConstants {
		if pc.UserID == userID {
			out = append(out, pc)
		}
	}
	return out
}
