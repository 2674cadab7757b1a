// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/rtconst"
)

// moduleFormat is the version of the encoded module layout.
const moduleFormat = 1

type moduleFile struct {
	Format    int           `json:"format"`
	Stage     Stage         `json:"stage"`
	Source    string        `json:"source"`
	Interface interfaceFile `json:"interface"`
}

type interfaceFile struct {
	Extensions     []string                    `json:"extensions,omitempty"`
	Includes       []string                    `json:"includes,omitempty"`
	Macros         []string                    `json:"macros,omitempty"`
	Sections       resource.Sections           `json:"sections"`
	DescriptorSets []string                    `json:"descriptorSets,omitempty"`
	PushConstants  []resource.PushConstantInfo `json:"pushConstants,omitempty"`
	Inputs         []inputFile                 `json:"inputs,omitempty"`
	SpecConstants  []specFile                  `json:"specConstants,omitempty"`
}

type inputFile struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location uint32 `json:"location"`
}

type specFile struct {
	Index    uint32              `json:"index"`
	Name     string              `json:"name"`
	Constant rtconst.Description `json:"constant"`
}

// EncodeModule writes m as JSON. Runtime constants are stored by
// description.
func EncodeModule(w io.Writer, m *Module) error {
	iface := m.Interface
	if iface == nil {
		iface = &resource.Interface{}
	}
	file := moduleFile{
		Format: moduleFormat,
		Stage:  m.Stage,
		Source: m.Source,
		Interface: interfaceFile{
			Extensions:     iface.Extensions,
			Includes:       iface.Includes,
			Macros:         iface.Macros,
			Sections:       iface.Sections,
			DescriptorSets: iface.DescriptorSets,
			PushConstants:  iface.PushConstants,
		},
	}
	for _, in := range iface.Inputs {
		file.Interface.Inputs = append(file.Interface.Inputs, inputFile(in))
	}
	for _, s := range iface.SpecConstants {
		desc, err := rtconst.Serialize(s.Constant)
		if err != nil {
			return fmt.Errorf("encode module: spec constant %s: %w", s.Name, err)
		}
		file.Interface.SpecConstants = append(file.Interface.SpecConstants, specFile{Index: s.Index, Name: s.Name, Constant: desc})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode module: %w", err)
	}
	return nil
}

// DecodeModule reads a module written by EncodeModule. Runtime constants
// are reconstructed with d; an unknown constant kind fails with
// DeserializationFailure.
func DecodeModule(r io.Reader, d rtconst.Deserializer) (*Module, error) {
	var file moduleFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, diag.Wrap(diag.DeserializationFailure, err, "decode module")
	}
	if file.Format != moduleFormat {
		return nil, diag.New(diag.DeserializationFailure, "unsupported module format %d", file.Format)
	}

	iface := &resource.Interface{
		Extensions:     file.Interface.Extensions,
		Includes:       file.Interface.Includes,
		Macros:         file.Interface.Macros,
		Sections:       file.Interface.Sections,
		DescriptorSets: file.Interface.DescriptorSets,
		PushConstants:  file.Interface.PushConstants,
	}
	for _, in := range file.Interface.Inputs {
		iface.Inputs = append(iface.Inputs, resource.ShaderInput(in))
	}
	if len(file.Interface.SpecConstants) > 0 && d == nil {
		return nil, diag.New(diag.DeserializationFailure, "no deserializer for %d spec constants", len(file.Interface.SpecConstants)).
			WithStage(file.Stage.String())
	}
	for _, s := range file.Interface.SpecConstants {
		c, ok := d.Deserialize(s.Constant)
		if !ok {
			return nil, diag.New(diag.DeserializationFailure, "spec constant %s: unknown constant kind %q", s.Name, s.Constant.Kind).
				WithStage(file.Stage.String()).WithResource(s.Name)
		}
		iface.SpecConstants = append(iface.SpecConstants, resource.SpecConstant{Index: s.Index, Name: s.Name, Constant: c})
	}

	return &Module{Stage: file.Stage, Source: file.Source, Interface: iface}, nil
}
