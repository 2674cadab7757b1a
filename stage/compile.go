// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gogpu/shaderlink/capability"
	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/glsl"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
)

// Extensions enabled by the compiler itself.
const (
	extRayTracing       = "GL_EXT_ray_tracing"
	extIncludeDirective = "GL_GOOGLE_include_directive"
)

// Options configures module compilation.
type Options struct {
	// Catalog resolves capabilities with the default resolver. Ignored when
	// NewResolver is set. Without either, reading a capability fails.
	Catalog *capability.Config

	// NewResolver creates the resolver used for one module, recording
	// requirements into iface.
	NewResolver func(iface *resource.InterfaceBuilder) glsl.Resolver

	// Version is the GLSL version of the generated text.
	// Defaults to glsl.Version460 if zero.
	Version glsl.Version

	// IncludeFS serves files added with Builder.Include.
	IncludeFS fs.FS

	// InlineAll never materializes intermediate values.
	InlineAll bool

	// Logger receives debug output. The zero value discards it.
	Logger zerolog.Logger
}

// DefaultOptions returns options compiling against catalog.
func DefaultOptions(catalog *capability.Config) Options {
	return Options{
		Catalog: catalog,
		Version: glsl.Version460,
	}
}

// Module is the compiled text of one stage and its resource interface.
// The text still contains link-time placeholders.
type Module struct {
	Stage     Stage
	Source    string
	Interface *resource.Interface
}

// Compile generates the GLSL text of a built module. Every declared output
// must have a value. A Source can be compiled only once.
func Compile(src *Source, opts Options) (*Module, error) {
	if src == nil {
		return nil, fmt.Errorf("stage: nil source")
	}
	stageName := src.stage.String()
	if src.consumed {
		return nil, diag.New(diag.RebuildNotAllowed, "module source already compiled").WithStage(stageName)
	}
	src.consumed = true

	for _, o := range src.outputs {
		if o.value == nil {
			return nil, diag.New(diag.MissingOutputValue, "output %s at location %d has no value", o.Name, o.Location).
				WithStage(stageName).WithResource(o.Name)
		}
	}

	b := src.builder
	module := b.Module()
	b.StartFunction(src.entry)
	for _, o := range src.outputs {
		b.Assign(b.Identifier(o.Name, o.Type), *o.value)
	}
	for _, bi := range src.builtins {
		b.Assign(b.Identifier(bi.name, b.TypeOf(bi.value)), bi.value)
	}
	b.EndBlock()

	ifaceBuilder := resource.NewInterfaceBuilder()
	var resolver glsl.Resolver
	switch {
	case opts.NewResolver != nil:
		resolver = opts.NewResolver(ifaceBuilder)
	case opts.Catalog != nil:
		resolver = capability.NewResolver(opts.Catalog, ifaceBuilder)
	}

	body := glsl.NewWriter()
	values := glsl.NewValueCompiler(body, resolver, glsl.Options{InlineAll: opts.InlineAll})
	for _, o := range src.outputs {
		values.Reserve(o.Name)
	}
	if opts.Catalog != nil {
		for _, entry := range opts.Catalog.Resources() {
			root, _, _ := strings.Cut(entry.Resource.Accessor(), ".")
			values.Reserve(root)
		}
	}

	includes, err := expandIncludes(src, values, opts.IncludeFS)
	if err != nil {
		return nil, wrapStage(err, stageName)
	}
	if err := glsl.NewBlockCompiler(body, values, module).WriteFunctions(); err != nil {
		return nil, wrapStage(err, stageName)
	}

	iface, err := ifaceBuilder.Build()
	if err != nil {
		return nil, wrapStage(err, stageName)
	}

	out := glsl.NewWriter()
	writeHeader(out, src.stage, opts.Version, iface)
	if err := glsl.WriteStructs(out, module); err != nil {
		return nil, wrapStage(err, stageName)
	}
	writeSection(out, iface.Declarations())
	if err := writeOutputs(out, module, src.outputs); err != nil {
		return nil, wrapStage(err, stageName)
	}
	for _, text := range includes {
		writeSection(out, text)
	}
	out.WriteRaw(body.String())

	opts.Logger.Debug().
		Str("stage", stageName).
		Int("bytes", out.Len()).
		Int("descriptorSets", len(iface.DescriptorSets)).
		Int("pushConstants", len(iface.PushConstants)).
		Int("specConstants", len(iface.SpecConstants)).
		Msg("compiled module")

	return &Module{Stage: src.stage, Source: out.String(), Interface: iface}, nil
}

// wrapStage attaches the stage to shaderlink errors that do not name one.
func wrapStage(err error, stage string) error {
	var e *diag.Error
	if errors.As(err, &e) {
		if e.Stage == "" {
			e.WithStage(stage)
		}
		return err
	}
	return fmt.Errorf("stage %s: %w", stage, err)
}

func writeHeader(w *glsl.Writer, s Stage, version glsl.Version, iface *resource.Interface) {
	if version == (glsl.Version{}) {
		version = glsl.Version460
	}
	w.WriteLine("#version %s", version)

	extensions := map[string]bool{}
	for _, e := range iface.Extensions {
		extensions[e] = true
	}
	if s.IsRayTracing() {
		extensions[extRayTracing] = true
	}
	if len(iface.Includes) > 0 {
		extensions[extIncludeDirective] = true
	}
	names := make([]string, 0, len(extensions))
	for e := range extensions {
		names = append(names, e)
	}
	sort.Strings(names)
	for _, e := range names {
		w.WriteLine("#extension %s : require", e)
	}

	for _, m := range iface.Macros {
		w.WriteLine("#define %s", m)
	}
	for _, inc := range iface.Includes {
		w.WriteLine("#include %q", inc)
	}
	w.WriteLine("")
}

func writeSection(w *glsl.Writer, text string) {
	if text == "" {
		return
	}
	w.WriteRaw(text)
	if !strings.HasSuffix(text, "\n") {
		w.WriteRaw("\n")
	}
	w.WriteRaw("\n")
}

func writeOutputs(w *glsl.Writer, module *ir.Module, outputs []Output) error {
	if len(outputs) == 0 {
		return nil
	}
	sorted := append([]Output(nil), outputs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Location < sorted[j].Location })
	for _, o := range sorted {
		typeName, err := glsl.TypeName(module, o.Type)
		if err != nil {
			return fmt.Errorf("output %s: %w", o.Name, err)
		}
		w.WriteLine("layout(location = %d) out %s %s;", o.Location, typeName, o.Name)
	}
	w.WriteLine("")
	return nil
}

// expandIncludes reads every included file and substitutes its variables
// with inline expressions.
func expandIncludes(src *Source, values *glsl.ValueCompiler, fsys fs.FS) ([]string, error) {
	if len(src.includes) == 0 {
		return nil, nil
	}
	if fsys == nil {
		return nil, fmt.Errorf("include %s: no include file system configured", src.includes[0].Path)
	}

	module := src.builder.Module()
	out := make([]string, 0, len(src.includes))
	for _, inc := range src.includes {
		data, err := fs.ReadFile(fsys, inc.Path)
		if err != nil {
			return nil, fmt.Errorf("include %s: %w", inc.Path, err)
		}

		names := make([]string, 0, len(inc.Vars))
		for name := range inc.Vars {
			names = append(names, name)
		}
		sort.Strings(names)

		pairs := make([]string, 0, 2*len(names))
		for _, name := range names {
			expr, err := values.Inline(ir.Ref{Module: module, Value: inc.Vars[name]})
			if err != nil {
				return nil, fmt.Errorf("include %s: variable %s: %w", inc.Path, name, err)
			}
			pairs = append(pairs, "${"+name+"}", expr)
		}
		out = append(out, strings.NewReplacer(pairs...).Replace(string(data)))
	}
	return out, nil
}
