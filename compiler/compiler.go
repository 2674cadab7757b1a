// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/spirv"
	"github.com/gogpu/shaderlink/stage"
)

// Options are the compile settings shared by every module of a program.
type Options struct {
	// IncludeDirs are searched for #include directives.
	IncludeDirs []string

	// Defines are added as preprocessor macros, "NAME" or "NAME=VALUE".
	Defines []string
}

// Request is one module submitted for compilation to bytecode.
type Request struct {
	Options

	Stage  stage.Stage
	Source string

	// Name identifies the module in diagnostics.
	Name string
}

// Compiler turns GLSL text into SPIR-V bytecode. Implementations must be
// safe for concurrent use; the linker compiles stages in parallel.
type Compiler interface {
	Compile(ctx context.Context, req Request) ([]byte, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, req Request) ([]byte, error)

// Compile implements Compiler.
func (f Func) Compile(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Glslang compiles modules with the glslangValidator executable.
type Glslang struct {
	// Path of the executable. Defaults to "glslangValidator" on PATH.
	Path string

	// TargetEnv is passed as --target-env. Defaults to "vulkan1.2".
	TargetEnv string

	// Args are appended to the command line.
	Args []string

	// Logger receives debug output. The zero value discards it.
	Logger zerolog.Logger
}

// DefaultGlslang returns a compiler using glslangValidator from PATH.
func DefaultGlslang() *Glslang {
	return &Glslang{Path: "glslangValidator", TargetEnv: "vulkan1.2"}
}

func (g *Glslang) args(req Request, input, output string) []string {
	env := g.TargetEnv
	if env == "" {
		env = "vulkan1.2"
	}
	args := []string{"-V", "--target-env", env, "-S", req.Stage.Extension(), "-o", output}
	for _, dir := range req.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, d := range req.Defines {
		args = append(args, "-D"+d)
	}
	args = append(args, g.Args...)
	return append(args, input)
}

// Compile implements Compiler. The source is written to a temporary
// directory and the diagnostic output of a failed run is returned
// verbatim in a CompileFailure error.
func (g *Glslang) Compile(ctx context.Context, req Request) ([]byte, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("compiler: invalid stage %d", req.Stage)
	}
	path := g.Path
	if path == "" {
		path = "glslangValidator"
	}

	dir, err := os.MkdirTemp("", "shaderlink-")
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "module."+req.Stage.Extension())
	output := filepath.Join(dir, "module.spv")
	if err := os.WriteFile(input, []byte(req.Source), 0o600); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, path, g.args(req, input, output)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()

	g.Logger.Debug().
		Str("stage", req.Stage.String()).
		Str("module", req.Name).
		Dur("elapsed", time.Since(start)).
		Msg("glslang")

	if runErr != nil {
		return nil, diag.Wrap(diag.CompileFailure, runErr, "%s", out.String()).WithStage(req.Stage.String())
	}
	code, err := os.ReadFile(output)
	if err != nil {
		return nil, diag.Wrap(diag.CompileFailure, err, "no bytecode produced").WithStage(req.Stage.String())
	}
	if err := CheckBytecode(req.Stage, code); err != nil {
		return nil, err
	}
	return code, nil
}

var executionModels = map[stage.Stage]spirv.ExecutionModel{
	stage.Vertex:         spirv.ExecutionModelVertex,
	stage.TessControl:    spirv.ExecutionModelTessellationControl,
	stage.TessEvaluation: spirv.ExecutionModelTessellationEvaluation,
	stage.Geometry:       spirv.ExecutionModelGeometry,
	stage.Fragment:       spirv.ExecutionModelFragment,
	stage.Compute:        spirv.ExecutionModelGLCompute,
	stage.RayGen:         spirv.ExecutionModelRayGeneration,
	stage.AnyHit:         spirv.ExecutionModelAnyHit,
	stage.ClosestHit:     spirv.ExecutionModelClosestHit,
	stage.Miss:           spirv.ExecutionModelMiss,
	stage.Intersection:   spirv.ExecutionModelIntersection,
	stage.Callable:       spirv.ExecutionModelCallable,
}

// ExecutionModel returns the SPIR-V execution model of s.
func ExecutionModel(s stage.Stage) (spirv.ExecutionModel, bool) {
	m, ok := executionModels[s]
	return m, ok
}

// CheckBytecode verifies that code is a SPIR-V module with an entry point
// for s.
func CheckBytecode(s stage.Stage, code []byte) error {
	info, err := spirv.Parse(code)
	if err != nil {
		return diag.Wrap(diag.CompileFailure, err, "invalid bytecode").WithStage(s.String())
	}
	model, ok := ExecutionModel(s)
	if !ok || !info.HasEntryPoint(model) {
		return diag.New(diag.CompileFailure, "bytecode has no %s entry point", model).WithStage(s.String())
	}
	return nil
}
