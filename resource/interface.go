// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/rtconst"
)

// Placeholder tokens are delimited by '$' on both ends so that no token is
// a prefix of another.
const (
	descriptorSetPrefix      = "$DESCRIPTOR_SET_"
	pushConstantOffsetPrefix = "$PUSH_CONSTANT_OFFSET_"
	placeholderSuffix        = "$"
)

// DescriptorSetPlaceholder returns the token standing in for the index of
// the named descriptor set. Distinct names always give distinct tokens:
// lower-case letters are upper-cased, an upper-case letter gains a leading
// '_' and any other byte except a digit becomes "__" and two hex digits.
// "shadowMap" gives $DESCRIPTOR_SET_SHADOW_MAP$ and "shadow_map" gives
// $DESCRIPTOR_SET_SHADOW__5FMAP$.
func DescriptorSetPlaceholder(set string) string {
	var sb strings.Builder
	sb.WriteString(descriptorSetPrefix)
	for i := 0; i < len(set); i++ {
		c := set[i]
		switch {
		case 'a' <= c && c <= 'z':
			sb.WriteByte(c - 'a' + 'A')
		case '0' <= c && c <= '9':
			sb.WriteByte(c)
		case 'A' <= c && c <= 'Z':
			sb.WriteByte('_')
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "__%02X", c)
		}
	}
	sb.WriteString(placeholderSuffix)
	return sb.String()
}

// PushConstantOffsetPlaceholder returns the token standing in for the byte
// offset of the push constant with the given user ID.
func PushConstantOffsetPlaceholder(userID uint32) string {
	return fmt.Sprintf("%s%d%s", pushConstantOffsetPrefix, userID, placeholderSuffix)
}

// FindPlaceholders returns the placeholder tokens remaining in text, in
// order of appearance.
func FindPlaceholders(text string) []string {
	var out []string
	for {
		start := strings.IndexByte(text, '$')
		if start < 0 {
			return out
		}
		end := start + 1
		for end < len(text) && isTokenByte(text[end]) {
			end++
		}
		if end < len(text) && end > start+1 && text[end] == '$' {
			token := text[start : end+1]
			if strings.HasPrefix(token, descriptorSetPrefix) || strings.HasPrefix(token, pushConstantOffsetPrefix) {
				out = append(out, token)
			}
			text = text[end+1:]
			continue
		}
		text = text[start+1:]
	}
}

func isTokenByte(c byte) bool {
	return c == '_' || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// SpecConstant is a specialization-constant slot of a module.
type SpecConstant struct {
	Index    uint32
	Name     string
	Constant rtconst.Constant
}

// PushConstantInfo describes one field of a module's push-constant block.
type PushConstantInfo struct {
	Name        string `json:"name"`
	UserID      uint32 `json:"userId"`
	Size        uint32 `json:"size"`
	Align       uint32 `json:"align"`
	Placeholder string `json:"placeholder"`
	// Offset is the running offset within this module's block. The linker
	// substitutes the offset it assigns for the stage.
	Offset uint32 `json:"offset"`
}

// Sections holds the declaration text of a module, one field per kind.
type Sections struct {
	SpecConstants string `json:"specConstants,omitempty"`
	Descriptors   string `json:"descriptors,omitempty"`
	PushConstants string `json:"pushConstants,omitempty"`
	Inputs        string `json:"inputs,omitempty"`
	RayTracing    string `json:"rayTracing,omitempty"`
}

// Interface is the compiled resource interface of one module.
type Interface struct {
	Extensions []string
	Includes   []string
	Macros     []string

	Sections Sections

	// DescriptorSets lists set names in first-seen order.
	DescriptorSets []string
	PushConstants  []PushConstantInfo
	Inputs         []ShaderInput
	SpecConstants  []SpecConstant
}

// Declarations returns all declaration sections in emission order.
func (i *Interface) Declarations() string {
	var sb strings.Builder
	for _, s := range []string{
		i.Sections.SpecConstants,
		i.Sections.Descriptors,
		i.Sections.PushConstants,
		i.Sections.Inputs,
		i.Sections.RayTracing,
	} {
		sb.WriteString(s)
	}
	return sb.String()
}

// PushConstant returns the info of the push constant with the given user ID.
func (i *Interface) PushConstant(userID uint32) (PushConstantInfo, bool) {
	for _, pc := range i.PushConstants {
		if pc.UserID == userID {
			return pc, true
		}
	}
	return PushConstantInfo{}, false
}

// Placeholders returns every placeholder token the interface declared.
func (i *Interface) Placeholders() []string {
	out := make([]string, 0, len(i.DescriptorSets)+len(i.PushConstants))
	for _, set := range i.DescriptorSets {
		out = append(out, DescriptorSetPlaceholder(set))
	}
	for _, pc := range i.PushConstants {
		out = append(out, pc.Placeholder)
	}
	return out
}

// InterfaceBuilder accumulates the resources a module requires while its
// code is generated.
type InterfaceBuilder struct {
	required map[ID]bool
	order    []ID
	entries  map[ID]Entry

	specs []SpecConstant
	built bool
}

// NewInterfaceBuilder creates an empty interface builder.
func NewInterfaceBuilder() *InterfaceBuilder {
	return &InterfaceBuilder{
		required: make(map[ID]bool),
		entries:  make(map[ID]Entry),
	}
}

// Require marks a resource as required. Requiring an already required
// resource is a no-op; it reports whether the resource was newly added.
func (b *InterfaceBuilder) Require(id ID, entry Entry) bool {
	if b.required[id] {
		return false
	}
	b.required[id] = true
	b.order = append(b.order, id)
	b.entries[id] = entry
	return true
}

// Required reports whether id has been required.
func (b *InterfaceBuilder) Required(id ID) bool {
	return b.required[id]
}

// AddSpecializationConstant registers a runtime constant as a
// specialization constant. Constants equal to an already registered one
// share its slot.
func (b *InterfaceBuilder) AddSpecializationConstant(c rtconst.Constant) (uint32, string) {
	for _, s := range b.specs {
		if s.Constant.Equal(c) {
			return s.Index, s.Name
		}
	}
	idx := uint32(len(b.specs)) //nolint:gosec // G115: constant count fits in uint32
	name := fmt.Sprintf("specConstant%d", idx)
	b.specs = append(b.specs, SpecConstant{Index: idx, Name: name, Constant: c})
	return idx, name
}

// Build produces the interface. It may be called exactly once.
func (b *InterfaceBuilder) Build() (*Interface, error) {
	if b.built {
		return nil, diag.New(diag.RebuildNotAllowed, "resource interface already built")
	}
	b.built = true

	iface := &Interface{SpecConstants: append([]SpecConstant(nil), b.specs...)}
	var (
		reqs     requirementSet
		desc     declWriter
		inputs   declWriter
		ray      declWriter
		pushes   []PushConstant
		seenSets = make(map[string]bool)
		rayLoc   uint32
	)

	for _, id := range b.order {
		entry := b.entries[id]
		reqs.add(entry.Requirements)

		switch r := entry.Resource.(type) {
		case DescriptorBinding:
			if !seenSets[r.Set] {
				seenSets[r.Set] = true
				iface.DescriptorSets = append(iface.DescriptorSets, r.Set)
			}
			layout := fmt.Sprintf("set = %s, binding = %d", DescriptorSetPlaceholder(r.Set), r.Binding)
			if r.Layout != "" {
				layout += ", " + r.Layout
			}
			desc.line("layout(%s) %s %s%s;", layout, r.Type, r.Name, r.Suffix)

		case PushConstant:
			pushes = append(pushes, r)

		case ShaderInput:
			iface.Inputs = append(iface.Inputs, r)
			inputs.line("layout(location = %d) in %s %s;", r.Location, r.Type, r.Name)

		case RayPayload:
			qualifier := "rayPayloadEXT"
			if r.Incoming {
				qualifier = "rayPayloadInEXT"
			}
			ray.line("layout(location = %d) %s %s %s;", rayLoc, qualifier, r.Type, r.Name)
			rayLoc++

		case HitAttribute:
			ray.line("hitAttributeEXT %s %s;", r.Type, r.Name)

		default:
			return nil, diag.New(diag.UnresolvedResource, "unknown resource kind %T", entry.Resource)
		}
	}

	pushText, infos, err := writePushConstants(pushes)
	if err != nil {
		return nil, err
	}

	iface.PushConstants = infos
	iface.Extensions, iface.Includes, iface.Macros = reqs.sorted()
	iface.Sections = Sections{
		SpecConstants: writeSpecConstants(iface.SpecConstants),
		Descriptors:   desc.String(),
		PushConstants: pushText,
		Inputs:        inputs.String(),
		RayTracing:    ray.String(),
	}
	return iface, nil
}

func writePushConstants(pushes []PushConstant) (string, []PushConstantInfo, error) {
	if len(pushes) == 0 {
		return "", nil, nil
	}

	var (
		w      declWriter
		infos  = make([]PushConstantInfo, 0, len(pushes))
		seen   = make(map[uint32]string, len(pushes))
		offset uint32
	)
	w.line("layout(push_constant) uniform PushConstants {")
	for _, pc := range pushes {
		if prev, ok := seen[pc.UserID]; ok {
			return "", nil, diag.New(diag.TypeMismatch, "push constants %s and %s share user id %d", prev, pc.Name, pc.UserID).WithResource(pc.Name)
		}
		seen[pc.UserID] = pc.Name

		layout, ok := LayoutOf(pc.Type)
		if !ok && pc.Size == 0 {
			return "", nil, diag.New(diag.TypeMismatch, "push constant %s has unknown type %q", pc.Name, pc.Type).WithResource(pc.Name)
		}
		if pc.Size != 0 {
			layout.Size = pc.Size
		}
		if layout.Align == 0 {
			layout.Align = 4
		}
		offset = AlignUp(offset, layout.Align)

		placeholder := PushConstantOffsetPlaceholder(pc.UserID)
		infos = append(infos, PushConstantInfo{
			Name:        pc.Name,
			UserID:      pc.UserID,
			Size:        layout.Size,
			Align:       layout.Align,
			Placeholder: placeholder,
			Offset:      offset,
		})
		w.line("    layout(offset = %s) %s %s;", placeholder, pc.Type, pc.Name)
		offset += layout.Size
	}
	w.line("} %s;", PushConstantBlock)
	return w.String(), infos, nil
}

func writeSpecConstants(specs []SpecConstant) string {
	var w declWriter
	for _, s := range specs {
		typ, zero := specType(s.Constant.Type())
		w.line("layout(constant_id = %d) const %s %s = %s;", s.Index, typ, s.Name, zero)
	}
	return w.String()
}

func specType(t rtconst.Type) (string, string) {
	switch t {
	case rtconst.TypeBool:
		return "bool", "false"
	case rtconst.TypeInt:
		return "int", "0"
	case rtconst.TypeUint:
		return "uint", "0u"
	default:
		return "float", "0.0"
	}
}

// requirementSet unions requirements, keeping each entry once.
type requirementSet struct {
	extensions, includes, macros map[string]bool
}

func (s *requirementSet) add(r Requirements) {
	if s.extensions == nil {
		s.extensions = make(map[string]bool)
		s.includes = make(map[string]bool)
		s.macros = make(map[string]bool)
	}
	for _, e := range r.Extensions {
		s.extensions[e] = true
	}
	for _, i := range r.Includes {
		s.includes[i] = true
	}
	for _, m := range r.Macros {
		s.macros[m] = true
	}
}

func (s *requirementSet) sorted() (extensions, includes, macros []string) {
	return sortedKeys(s.extensions), sortedKeys(s.includes), sortedKeys(s.macros)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// declWriter collects declaration lines.
type declWriter struct {
	sb strings.Builder
}

func (w *declWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *declWriter) String() string {
	return w.sb.String()
}
