// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrNotSPIRV is returned for data that does not start with a SPIR-V header.
var ErrNotSPIRV = errors.New("spirv: not a SPIR-V module")

// EntryPoint is a declared shader entry point.
type EntryPoint struct {
	Model ExecutionModel
	Name  string
}

// Info summarizes a SPIR-V module.
type Info struct {
	Version      Version
	Generator    uint32
	Bound        uint32
	Capabilities []Capability
	Extensions   []string
	EntryPoints  []EntryPoint
}

// HasEntryPoint reports whether the module declares an entry point with the
// given execution model.
func (i *Info) HasEntryPoint(model ExecutionModel) bool {
	for _, ep := range i.EntryPoints {
		if ep.Model == model {
			return true
		}
	}
	return false
}

// Parse reads the header and the leading declarations of a little-endian
// SPIR-V module. It stops at the first function.
func Parse(code []byte) (*Info, error) {
	if len(code) < headerWords*4 || len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotSPIRV, len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != MagicNumber {
		return nil, fmt.Errorf("%w: magic 0x%08X", ErrNotSPIRV, magic)
	}

	version := binary.LittleEndian.Uint32(code[4:])
	info := &Info{
		Version:   Version{Major: uint8(version >> 16), Minor: uint8(version >> 8)}, //nolint:gosec // G115: masked by the header layout
		Generator: binary.LittleEndian.Uint32(code[8:]),
		Bound:     binary.LittleEndian.Uint32(code[12:]),
	}

	offset := headerWords * 4
	for offset < len(code) {
		word := binary.LittleEndian.Uint32(code[offset:])
		opcode := OpCode(word & 0xFFFF)
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount*4 > len(code) {
			return nil, fmt.Errorf("spirv: invalid word count %d at offset 0x%X", wordCount, offset)
		}
		operands := code[offset+4 : offset+wordCount*4]

		switch opcode {
		case OpCapability:
			info.Capabilities = append(info.Capabilities, Capability(binary.LittleEndian.Uint32(operands)))
		case OpExtension:
			info.Extensions = append(info.Extensions, readString(operands))
		case OpEntryPoint:
			if len(operands) < 12 {
				return nil, fmt.Errorf("spirv: truncated OpEntryPoint at offset 0x%X", offset)
			}
			info.EntryPoints = append(info.EntryPoints, EntryPoint{
				Model: ExecutionModel(binary.LittleEndian.Uint32(operands)),
				Name:  readString(operands[8:]),
			})
		case OpFunction:
			return info, nil
		}
		offset += wordCount * 4
	}
	return info, nil
}

// readString decodes a nul-terminated literal string.
func readString(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b == 0 {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}
