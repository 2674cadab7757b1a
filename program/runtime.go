// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package program

import (
	"sort"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/stage"
)

// PipelineLayout is an opaque handle of the graphics API pipeline layout.
type PipelineLayout uint64

// CommandRecorder records push-constant updates into a command buffer.
type CommandRecorder interface {
	PushConstants(layout PipelineLayout, stages stage.Mask, offset uint32, data []byte)
}

// tables are the lookup structures shared by a runtime and its clones.
type tables struct {
	pushes map[uint32][]PushConstantRange
	sets   map[string]uint32
	ids    []uint32
}

// Runtime addresses the push constants and descriptor sets of a linked
// program by user ID and set name.
//
// A Runtime is not safe for concurrent use. Clone it per goroutine or per
// draw configuration.
type Runtime struct {
	t        *tables
	defaults map[uint32][]byte
}

// NewRuntime builds the lookup tables of d.
func NewRuntime(d *Data) *Runtime {
	t := &tables{
		pushes: make(map[uint32][]PushConstantRange, len(d.PushConstants)),
		sets:   make(map[string]uint32, len(d.DescriptorSets)),
	}
	for _, pc := range d.PushConstants {
		if _, ok := t.pushes[pc.UserID]; !ok {
			t.ids = append(t.ids, pc.UserID)
		}
		t.pushes[pc.UserID] = append(t.pushes[pc.UserID], pc)
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	for _, ds := range d.DescriptorSets {
		t.sets[ds.Name] = ds.Index
	}
	return &Runtime{t: t, defaults: make(map[uint32][]byte)}
}

// HasPushConstant reports whether the program declares userID.
func (r *Runtime) HasPushConstant(userID uint32) bool {
	_, ok := r.t.pushes[userID]
	return ok
}

// PushConstantRanges returns the linked ranges of userID, one per stage
// declaring it.
func (r *Runtime) PushConstantRanges(userID uint32) []PushConstantRange {
	return r.t.pushes[userID]
}

func (r *Runtime) lookup(userID uint32, data []byte) ([]PushConstantRange, error) {
	ranges, ok := r.t.pushes[userID]
	if !ok {
		return nil, diag.New(diag.UnknownPushConstant, "push constant %d is not declared by the program", userID)
	}
	for _, pc := range ranges {
		if uint32(len(data)) > pc.Size { //nolint:gosec // G115: push data is far below 4 GiB
			return nil, diag.New(diag.TypeMismatch, "%d bytes do not fit push constant %d of %d bytes", len(data), userID, pc.Size).
				WithResource(pc.Name)
		}
	}
	return ranges, nil
}

// PushConstants records data for userID, one push per stage declaring it,
// each at that stage's offset.
func (r *Runtime) PushConstants(cmd CommandRecorder, layout PipelineLayout, userID uint32, data []byte) error {
	ranges, err := r.lookup(userID, data)
	if err != nil {
		return err
	}
	for _, pc := range ranges {
		cmd.PushConstants(layout, pc.Stages, pc.Offset, data)
	}
	return nil
}

// SetPushConstantDefaultValue stores a value uploaded by
// UploadPushConstantDefaultValues. The data is copied.
func (r *Runtime) SetPushConstantDefaultValue(userID uint32, data []byte) error {
	if _, err := r.lookup(userID, data); err != nil {
		return err
	}
	r.defaults[userID] = append([]byte(nil), data...)
	return nil
}

// UploadPushConstantDefaultValues records every default value, in user ID
// order.
func (r *Runtime) UploadPushConstantDefaultValues(cmd CommandRecorder, layout PipelineLayout) {
	for _, id := range r.t.ids {
		data, ok := r.defaults[id]
		if !ok {
			continue
		}
		for _, pc := range r.t.pushes[id] {
			cmd.PushConstants(layout, pc.Stages, pc.Offset, data)
		}
	}
}

// DescriptorSetIndex returns the index of the named set, or false when the
// program does not use it.
func (r *Runtime) DescriptorSetIndex(name string) (uint32, bool) {
	idx, ok := r.t.sets[name]
	return idx, ok
}

// Clone returns a runtime sharing r's layout tables with its own copy of the
// default values.
func (r *Runtime) Clone() *Runtime {
	c := &Runtime{t: r.t, defaults: make(map[uint32][]byte, len(r.defaults))}
	for id, data := range r.defaults {
		c.defaults[id] = append([]byte(nil), data...)
	}
	return c
}
