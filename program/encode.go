// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package program

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/rtconst"
	"github.com/gogpu/shaderlink/stage"
)

// dataFormat is the version of the persisted program layout. Decode rejects
// any other version so callers rebuild from source.
const dataFormat = 1

type dataFile struct {
	Format         int                       `json:"format"`
	Stages         map[stage.Stage]stageFile `json:"stages"`
	PushConstants  []PushConstantRange       `json:"pushConstants,omitempty"`
	StageRanges    map[stage.Stage]Range     `json:"stageRanges,omitempty"`
	DescriptorSets []DescriptorSet           `json:"descriptorSets,omitempty"`
}

type stageFile struct {
	Bytecode      []byte     `json:"bytecode"`
	Source        string     `json:"source,omitempty"`
	SpecConstants []specFile `json:"specConstants,omitempty"`
}

type specFile struct {
	Index    uint32              `json:"index"`
	Name     string              `json:"name"`
	Constant rtconst.Description `json:"constant"`
}

// Encode writes d as JSON. Runtime constants are stored by description.
func Encode(w io.Writer, d *Data) error {
	file := dataFile{
		Format:         dataFormat,
		Stages:         make(map[stage.Stage]stageFile, len(d.Stages)),
		PushConstants:  d.PushConstants,
		StageRanges:    d.StageRanges,
		DescriptorSets: d.DescriptorSets,
	}
	for s, sd := range d.Stages {
		sf := stageFile{Bytecode: sd.Bytecode, Source: sd.Source}
		for _, sc := range sd.SpecConstants {
			desc, err := rtconst.Serialize(sc.Constant)
			if err != nil {
				return fmt.Errorf("encode program: %s: %w", s, err)
			}
			sf.SpecConstants = append(sf.SpecConstants, specFile{Index: sc.Index, Name: sc.Name, Constant: desc})
		}
		file.Stages[s] = sf
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	return nil
}

// Decode reads a program written by Encode, rebuilding runtime constants
// with des. Any failure is a DeserializationFailure; callers fall back to
// linking from source.
func Decode(r io.Reader, des rtconst.Deserializer) (*Data, error) {
	var file dataFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, diag.Wrap(diag.DeserializationFailure, err, "decode program")
	}
	if file.Format != dataFormat {
		return nil, diag.New(diag.DeserializationFailure, "unsupported program format %d", file.Format)
	}

	d := &Data{
		Stages:         make(map[stage.Stage]*StageData, len(file.Stages)),
		PushConstants:  file.PushConstants,
		StageRanges:    file.StageRanges,
		DescriptorSets: file.DescriptorSets,
	}
	for s, sf := range file.Stages {
		if !s.Valid() {
			return nil, diag.New(diag.DeserializationFailure, "invalid stage %d", s)
		}
		sd := &StageData{Bytecode: sf.Bytecode, Source: sf.Source}
		if len(sf.SpecConstants) > 0 && des == nil {
			return nil, diag.New(diag.DeserializationFailure, "no deserializer for %d spec constants", len(sf.SpecConstants)).
				WithStage(s.String())
		}
		for _, spec := range sf.SpecConstants {
			c, ok := des.Deserialize(spec.Constant)
			if !ok {
				return nil, diag.New(diag.DeserializationFailure, "unknown constant kind %q", spec.Constant.Kind).
					WithStage(s.String()).WithResource(spec.Name)
			}
			sd.SpecConstants = append(sd.SpecConstants, resource.SpecConstant{Index: spec.Index, Name: spec.Name, Constant: c})
		}
		d.Stages[s] = sd
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return d, nil
}

// check verifies the tables a runtime relies on.
func (d *Data) check() error {
	type key struct {
		stages stage.Mask
		userID uint32
	}
	seen := make(map[key]bool, len(d.PushConstants))
	for _, pc := range d.PushConstants {
		k := key{pc.Stages, pc.UserID}
		if seen[k] {
			return diag.New(diag.DeserializationFailure, "duplicate push constant user id %d in %s", pc.UserID, pc.Stages).WithResource(pc.Name)
		}
		seen[k] = true
	}
	for i, ds := range d.DescriptorSets {
		if ds.Index != uint32(i) { //nolint:gosec // G115: set count fits in uint32
			return diag.New(diag.DeserializationFailure, "descriptor set %s has index %d, want %d", ds.Name, ds.Index, i).WithResource(ds.Name)
		}
	}
	return nil
}
