// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

// ID identifies a resource registered in a catalog. IDs are dense and
// stable for the lifetime of the catalog.
type ID uint32

// Resource is a concrete GPU binding backing one or more capabilities.
type Resource interface {
	// ResourceName is the unique name of the resource within a catalog.
	ResourceName() string
	// Accessor is the identifier shader code uses to read the resource.
	Accessor() string
	resource()
}

// DescriptorBinding is a resource bound through a descriptor set. The set
// is named; its numeric index is decided at link time.
type DescriptorBinding struct {
	Set     string
	Binding uint32
	// Layout holds extra layout qualifiers, such as "std140".
	Layout string
	// Type is the declaration between the layout and the instance name,
	// for example "uniform sampler2D" or "uniform Camera { mat4 viewProj; }".
	Type string
	Name string
	// Suffix follows the name in the declaration, such as "[]" for an
	// unsized array of descriptors.
	Suffix string
}

func (r DescriptorBinding) ResourceName() string { return r.Name }
func (r DescriptorBinding) Accessor() string     { return r.Name }
func (DescriptorBinding) resource()              {}

// PushConstant is a field of the module's push-constant block. UserID is the
// stable handle runtime code uses; the byte offset is decided at link time.
type PushConstant struct {
	Name   string
	Type   string // GLSL type name
	UserID uint32
	// Size overrides the size derived from Type when non-zero.
	Size uint32
}

func (r PushConstant) ResourceName() string { return r.Name }
func (r PushConstant) Accessor() string     { return PushConstantBlock + "." + r.Name }
func (PushConstant) resource()              {}

// PushConstantBlock is the instance name of the push-constant block.
const PushConstantBlock = "pushConstants"

// ShaderInput is a stage input at a caller-declared location.
type ShaderInput struct {
	Name     string
	Type     string
	Location uint32
}

func (r ShaderInput) ResourceName() string { return r.Name }
func (r ShaderInput) Accessor() string     { return r.Name }
func (ShaderInput) resource()              {}

// RayPayload is a ray-tracing payload. Incoming payloads are the ones a hit
// or miss shader receives; outgoing payloads are passed to traceRayEXT.
type RayPayload struct {
	Name     string
	Type     string
	Incoming bool
}

func (r RayPayload) ResourceName() string { return r.Name }
func (r RayPayload) Accessor() string     { return r.Name }
func (RayPayload) resource()              {}

// HitAttribute is the attribute block written by intersection shaders.
type HitAttribute struct {
	Name string
	Type string
}

func (r HitAttribute) ResourceName() string { return r.Name }
func (r HitAttribute) Accessor() string     { return r.Name }
func (HitAttribute) resource()              {}

// Requirements lists code-generation prerequisites of a resource.
type Requirements struct {
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Includes   []string `yaml:"includes,omitempty" json:"includes,omitempty"`
	// Macros are "NAME" or "NAME VALUE" pairs emitted as #define lines.
	Macros []string `yaml:"macros,omitempty" json:"macros,omitempty"`
}

// Entry is a resource with its requirements, as stored in a catalog.
type Entry struct {
	Resource     Resource
	Requirements Requirements
}
