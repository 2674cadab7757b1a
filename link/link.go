// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package link

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderlink/compiler"
	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/program"
	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/stage"
)

// Settings configures a link.
type Settings struct {
	// Compiler turns the linked text into bytecode. Defaults to
	// compiler.DefaultGlslang.
	Compiler compiler.Compiler

	// Options are passed with every compile request.
	Options compiler.Options

	// SetPriorities orders descriptor sets: lower values receive lower
	// indices and sets not listed come after listed ones.
	SetPriorities map[string]int

	// Lenient skips the placeholder validation pass.
	Lenient bool

	// Concurrency bounds the number of stages compiled at once.
	// Zero or less means no limit.
	Concurrency int

	// Logger receives debug output. The zero value discards it.
	Logger zerolog.Logger
}

// ModuleSet collects at most one module per stage.
type ModuleSet struct {
	modules map[stage.Stage]*stage.Module
}

// NewModuleSet creates an empty set.
func NewModuleSet() *ModuleSet {
	return &ModuleSet{modules: make(map[stage.Stage]*stage.Module)}
}

// Add inserts m. A second module for the same stage fails with
// DuplicateModuleType.
func (s *ModuleSet) Add(m *stage.Module) error {
	if _, ok := s.modules[m.Stage]; ok {
		return diag.New(diag.DuplicateModuleType, "a %s module is already present", m.Stage).WithStage(m.Stage.String())
	}
	s.modules[m.Stage] = m
	return nil
}

// Modules returns the modules keyed by stage.
func (s *ModuleSet) Modules() map[stage.Stage]*stage.Module {
	return s.modules
}

// LinkSet links the modules of s.
func LinkSet(ctx context.Context, s *ModuleSet, settings Settings) (*program.Data, error) {
	return Link(ctx, s.modules, settings)
}

// Link merges per-stage modules into one program: descriptor sets receive
// indices, push constants receive offsets, placeholders are substituted and
// every stage is compiled. Any failure aborts the whole link.
func Link(ctx context.Context, modules map[stage.Stage]*stage.Module, settings Settings) (*program.Data, error) {
	if len(modules) == 0 {
		return nil, errors.New("link: no modules")
	}
	stages := make([]stage.Stage, 0, len(modules))
	for s, m := range modules {
		if m == nil || m.Interface == nil {
			return nil, fmt.Errorf("link: %s module is incomplete", s)
		}
		if m.Stage != s {
			return nil, diag.New(diag.DuplicateModuleType, "%s module registered as %s", m.Stage, s).WithStage(s.String())
		}
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	log := settings.Logger
	data := &program.Data{
		Stages:         make(map[stage.Stage]*program.StageData, len(stages)),
		DescriptorSets: assignDescriptorSets(stages, modules, settings.SetPriorities),
	}
	for _, ds := range data.DescriptorSets {
		log.Debug().Str("set", ds.Name).Uint32("index", ds.Index).Msg("descriptor set")
	}

	pushes, ranges, err := layoutPushConstants(stages, modules)
	if err != nil {
		return nil, err
	}
	data.PushConstants = pushes
	data.StageRanges = ranges
	for _, pc := range pushes {
		log.Debug().
			Uint32("userId", pc.UserID).
			Uint32("offset", pc.Offset).
			Uint32("size", pc.Size).
			Stringer("stage", pc.Stages).
			Msg("push constant")
	}

	sources := make([]string, len(stages))
	var problems *multierror.Error
	for i, s := range stages {
		m := modules[s]
		sources[i] = newReplacer(data, s).Replace(m.Source)
		if !settings.Lenient {
			problems = multierror.Append(problems, validate(m, sources[i]))
		}
	}
	if err := problems.ErrorOrNil(); err != nil {
		return nil, diag.Wrap(diag.CompileFailure, err, "placeholder validation")
	}

	comp := settings.Compiler
	if comp == nil {
		g := compiler.DefaultGlslang()
		g.Logger = log
		comp = g
	}
	code, err := compileStages(ctx, comp, settings, stages, sources)
	if err != nil {
		return nil, err
	}

	for i, s := range stages {
		data.Stages[s] = &program.StageData{
			Bytecode:      code[i],
			Source:        sources[i],
			SpecConstants: append([]resource.SpecConstant(nil), modules[s].Interface.SpecConstants...),
		}
	}
	return data, nil
}

// assignDescriptorSets collects set names in pipeline order, then by first
// use within each module, and orders them by priority.
func assignDescriptorSets(stages []stage.Stage, modules map[stage.Stage]*stage.Module, priorities map[string]int) []program.DescriptorSet {
	var names []string
	seen := make(map[string]bool)
	for _, s := range stages {
		for _, name := range modules[s].Interface.DescriptorSets {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		pi, iok := priorities[names[i]]
		pj, jok := priorities[names[j]]
		switch {
		case iok && jok:
			return pi < pj
		default:
			return iok && !jok
		}
	})

	sets := make([]program.DescriptorSet, len(names))
	for i, name := range names {
		sets[i] = program.DescriptorSet{Name: name, Index: uint32(i)} //nolint:gosec // G115: set count fits in uint32
	}
	return sets
}

// layoutPushConstants places the push constants of each stage back to back
// from offset zero. A user ID declared by several stages gets its own range
// in each of them, and every declaration of it must agree on the size.
func layoutPushConstants(stages []stage.Stage, modules map[stage.Stage]*stage.Module) ([]program.PushConstantRange, map[stage.Stage]program.Range, error) {
	var (
		pushes []program.PushConstantRange
		first  = make(map[uint32]program.PushConstantRange)
		ranges = make(map[stage.Stage]program.Range)
	)
	for _, s := range stages {
		var offset uint32
		placed := make(map[uint32]bool)
		for _, info := range modules[s].Interface.PushConstants {
			if placed[info.UserID] {
				continue
			}
			placed[info.UserID] = true

			prev, seen := first[info.UserID]
			if seen && prev.Size != info.Size {
				return nil, nil, diag.New(diag.TypeMismatch, "push constant %d is %d bytes here and %d bytes in %s",
					info.UserID, info.Size, prev.Size, prev.Stages).
					WithStage(s.String()).WithResource(info.Name)
			}

			align := info.Align
			if align == 0 {
				align = 4
			}
			offset = resource.AlignUp(offset, align)
			pc := program.PushConstantRange{
				UserID: info.UserID,
				Name:   info.Name,
				Offset: offset,
				Size:   info.Size,
				Stages: s.Mask(),
			}
			if !seen {
				first[info.UserID] = pc
			}
			pushes = append(pushes, pc)
			offset += info.Size
		}
		if len(placed) > 0 {
			ranges[s] = program.Range{Offset: 0, Size: offset}
		}
	}
	return pushes, ranges, nil
}

// newReplacer maps the placeholders of stage s to their linked values.
func newReplacer(d *program.Data, s stage.Stage) *strings.Replacer {
	pairs := make([]string, 0, 2*(len(d.DescriptorSets)+len(d.PushConstants)))
	for _, ds := range d.DescriptorSets {
		pairs = append(pairs, resource.DescriptorSetPlaceholder(ds.Name), strconv.FormatUint(uint64(ds.Index), 10))
	}
	for _, pc := range d.PushConstants {
		if pc.Stages.Has(s) {
			pairs = append(pairs, resource.PushConstantOffsetPlaceholder(pc.UserID), strconv.FormatUint(uint64(pc.Offset), 10))
		}
	}
	return strings.NewReplacer(pairs...)
}

// validate checks that every declared placeholder occurred in the module
// text and that none remain after substitution.
func validate(m *stage.Module, linked string) error {
	var errs *multierror.Error
	for _, p := range m.Interface.Placeholders() {
		if !strings.Contains(m.Source, p) {
			errs = multierror.Append(errs, diag.New(diag.CompileFailure, "placeholder %s is declared but never used", p).WithStage(m.Stage.String()))
		}
	}
	for _, p := range resource.FindPlaceholders(linked) {
		errs = multierror.Append(errs, diag.New(diag.CompileFailure, "placeholder %s was not substituted", p).WithStage(m.Stage.String()))
	}
	return errs.ErrorOrNil()
}

// compileStages compiles every stage concurrently. The first failure
// cancels the remaining compiles.
func compileStages(ctx context.Context, comp compiler.Compiler, settings Settings, stages []stage.Stage, sources []string) ([][]byte, error) {
	code := make([][]byte, len(stages))
	g, ctx := errgroup.WithContext(ctx)
	if settings.Concurrency > 0 {
		g.SetLimit(settings.Concurrency)
	}
	for i, s := range stages {
		i, s := i, s
		g.Go(func() error {
			start := time.Now()
			out, err := comp.Compile(ctx, compiler.Request{
				Options: settings.Options,
				Stage:   s,
				Source:  sources[i],
				Name:    s.String(),
			})
			if err != nil {
				return compileError(s, err)
			}
			settings.Logger.Debug().
				Str("stage", s.String()).
				Int("bytes", len(out)).
				Dur("elapsed", time.Since(start)).
				Msg("compiled stage")
			code[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return code, nil
}

func compileError(s stage.Stage, err error) error {
	var de *diag.Error
	if errors.As(err, &de) && de.Kind == diag.CompileFailure {
		if de.Stage == "" {
			de.Stage = s.String()
		}
		return err
	}
	return diag.Wrap(diag.CompileFailure, err, "compile").WithStage(s.String())
}
