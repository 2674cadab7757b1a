// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"fmt"

	"github.com/gogpu/shaderlink/capability"
	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/rtconst"
)

// Output is a stage output bound to a location.
type Output struct {
	Name     string
	Type     ir.TypeHandle
	Location uint32

	value *ir.ValueHandle
}

// Include is a file included verbatim into the module. Occurrences of
// ${name} in the file are replaced by the expression of Vars[name].
type Include struct {
	Path string
	Vars map[string]ir.ValueHandle
}

type builtinAssign struct {
	name  string
	value ir.ValueHandle
}

type specConstant struct {
	constant rtconst.Constant
	value    ir.ValueHandle
}

// Builder builds the IR of one pipeline stage. Statements are appended to
// the entry point until another block is started.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	*ir.Builder

	stage    Stage
	entry    ir.FunctionHandle
	outputs  []Output
	builtins []builtinAssign
	includes []Include
	specs    []specConstant
	built    bool
}

// NewBuilder creates a builder for the given stage.
func NewBuilder(s Stage) *Builder {
	b := &Builder{Builder: ir.NewBuilder(), stage: s}
	b.entry, _ = b.Function("main", ir.NoType)
	b.StartFunction(b.entry)
	return b
}

// Stage returns the stage being built.
func (b *Builder) Stage() Stage {
	return b.stage
}

// AccessCapability reads a capability of the given type.
func (b *Builder) AccessCapability(c capability.Capability, typ ir.TypeHandle) ir.ValueHandle {
	return b.Capability(c.String(), typ)
}

// MakeSpecializationConstant returns a value reading c. Constants equal to
// one already made share its value, so they occupy a single slot.
func (b *Builder) MakeSpecializationConstant(c rtconst.Constant) ir.ValueHandle {
	for _, s := range b.specs {
		if s.constant.Equal(c) {
			return s.value
		}
	}
	v := b.RuntimeConstant(c)
	b.specs = append(b.specs, specConstant{constant: c, value: v})
	return v
}

// DeclareOutput declares an output at location. Locations and names must
// be unique within the module.
func (b *Builder) DeclareOutput(name string, typ ir.TypeHandle, location uint32) error {
	for _, o := range b.outputs {
		if o.Location == location {
			return fmt.Errorf("stage: output location %d already used by %s", location, o.Name)
		}
		if o.Name == name {
			return fmt.Errorf("stage: output %s declared twice", name)
		}
	}
	b.outputs = append(b.outputs, Output{Name: name, Type: typ, Location: location})
	return nil
}

// SetOutput binds the value written to the output at location.
func (b *Builder) SetOutput(location uint32, value ir.ValueHandle) error {
	for i := range b.outputs {
		if b.outputs[i].Location == location {
			b.outputs[i].value = &value
			return nil
		}
	}
	return fmt.Errorf("stage: no output declared at location %d", location)
}

// Outputs returns the declared outputs.
func (b *Builder) Outputs() []Output {
	return append([]Output(nil), b.outputs...)
}

// SetBuiltin assigns value to a built-in output variable such as
// gl_Position at the end of the entry point.
func (b *Builder) SetBuiltin(name string, value ir.ValueHandle) {
	for i := range b.builtins {
		if b.builtins[i].name == name {
			b.builtins[i].value = value
			return
		}
	}
	b.builtins = append(b.builtins, builtinAssign{name: name, value: value})
}

// Include adds a file included verbatim into the module.
func (b *Builder) Include(path string, vars map[string]ir.ValueHandle) {
	b.includes = append(b.includes, Include{Path: path, Vars: vars})
}

// Build finishes the module IR. A Builder can be built only once.
func (b *Builder) Build() (*Source, error) {
	if b.built {
		return nil, diag.New(diag.RebuildNotAllowed, "module builder already built").WithStage(b.stage.String())
	}
	if b.Depth() != 1 {
		return nil, fmt.Errorf("stage: %d blocks left open", b.Depth()-1)
	}
	b.built = true
	b.EndBlock()

	return &Source{
		stage:    b.stage,
		builder:  b.Builder,
		entry:    b.entry,
		outputs:  b.Outputs(),
		builtins: append([]builtinAssign(nil), b.builtins...),
		includes: append([]Include(nil), b.includes...),
	}, nil
}

// Source is a built module awaiting compilation. A Source can be compiled
// only once.
type Source struct {
	stage    Stage
	builder  *ir.Builder
	entry    ir.FunctionHandle
	outputs  []Output
	builtins []builtinAssign
	includes []Include
	consumed bool
}

// Stage returns the stage of the source.
func (s *Source) Stage() Stage {
	return s.stage
}

// Module returns the IR of the source.
func (s *Source) Module() *ir.Module {
	return s.builder.Module()
}
