// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirv

import "fmt"

// MagicNumber starts every SPIR-V module.
const MagicNumber = 0x07230203

// headerWords is the size of the module header.
const headerWords = 5

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Word returns the header encoding of v.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes read by Parse.
const (
	OpName          OpCode = 5
	OpExtension     OpCode = 10
	OpExtInstImport OpCode = 11
	OpMemoryModel   OpCode = 14
	OpEntryPoint    OpCode = 15
	OpCapability    OpCode = 17
	OpFunction      OpCode = 54
)

// ExecutionModel is the pipeline stage of an entry point.
type ExecutionModel uint32

const (
	ExecutionModelVertex                 ExecutionModel = 0
	ExecutionModelTessellationControl    ExecutionModel = 1
	ExecutionModelTessellationEvaluation ExecutionModel = 2
	ExecutionModelGeometry               ExecutionModel = 3
	ExecutionModelFragment               ExecutionModel = 4
	ExecutionModelGLCompute              ExecutionModel = 5
	ExecutionModelRayGeneration          ExecutionModel = 5313
	ExecutionModelIntersection           ExecutionModel = 5314
	ExecutionModelAnyHit                 ExecutionModel = 5315
	ExecutionModelClosestHit             ExecutionModel = 5316
	ExecutionModelMiss                   ExecutionModel = 5317
	ExecutionModelCallable               ExecutionModel = 5318
)

var executionModelNames = map[ExecutionModel]string{
	ExecutionModelVertex:                 "Vertex",
	ExecutionModelTessellationControl:    "TessellationControl",
	ExecutionModelTessellationEvaluation: "TessellationEvaluation",
	ExecutionModelGeometry:               "Geometry",
	ExecutionModelFragment:               "Fragment",
	ExecutionModelGLCompute:              "GLCompute",
	ExecutionModelRayGeneration:          "RayGenerationKHR",
	ExecutionModelIntersection:           "IntersectionKHR",
	ExecutionModelAnyHit:                 "AnyHitKHR",
	ExecutionModelClosestHit:             "ClosestHitKHR",
	ExecutionModelMiss:                   "MissKHR",
	ExecutionModelCallable:               "CallableKHR",
}

func (m ExecutionModel) String() string {
	if s, ok := executionModelNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ExecutionModel(%d)", uint32(m))
}

// Capability represents a SPIR-V capability.
type Capability uint32

// Common capabilities
const (
	CapabilityMatrix                 Capability = 0
	CapabilityShader                 Capability = 1
	CapabilityGeometry               Capability = 2
	CapabilityTessellation           Capability = 3
	CapabilityFloat64                Capability = 10
	CapabilityInt64                  Capability = 11
	CapabilityImageQuery             Capability = 50
	CapabilityDrawParameters         Capability = 4427
	CapabilityShaderNonUniform       Capability = 5301
	CapabilityRuntimeDescriptorArray Capability = 5302
	CapabilityRayTracing             Capability = 4479
)

var capabilityNames = map[Capability]string{
	CapabilityMatrix:                 "Matrix",
	CapabilityShader:                 "Shader",
	CapabilityGeometry:               "Geometry",
	CapabilityTessellation:           "Tessellation",
	CapabilityFloat64:                "Float64",
	CapabilityInt64:                  "Int64",
	CapabilityImageQuery:             "ImageQuery",
	CapabilityDrawParameters:         "DrawParameters",
	CapabilityShaderNonUniform:       "ShaderNonUniform",
	CapabilityRuntimeDescriptorArray: "RuntimeDescriptorArray",
	CapabilityRayTracing:             "RayTracingKHR",
}

func (c Capability) String() string {
	if s, ok := capabilityNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}
