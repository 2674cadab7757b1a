// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderlink/ir"
)

// EntryPointName is the function written last by WriteFunctions.
const EntryPointName = "main"

// functionName returns the identifier a function is declared under. The
// entry point keeps its reserved name.
func functionName(name string) string {
	if name == EntryPointName {
		return name
	}
	return escapeKeyword(name)
}

// BlockCompiler writes IR statement blocks as GLSL, evaluating values
// through a shared ValueCompiler.
type BlockCompiler struct {
	w      *Writer
	values *ValueCompiler
	module *ir.Module
}

// NewBlockCompiler creates a block compiler for statements of module.
func NewBlockCompiler(w *Writer, values *ValueCompiler, module *ir.Module) *BlockCompiler {
	return &BlockCompiler{w: w, values: values, module: module}
}

func (b *BlockCompiler) ref(h ir.ValueHandle) ir.Ref {
	return ir.Ref{Module: b.module, Value: h}
}

// expression compiles a value used directly by a statement. Its operands
// may be materialized but the value itself is not.
func (b *BlockCompiler) expression(h ir.ValueHandle) (string, error) {
	if name, ok := b.values.lookup(b.ref(h)); ok {
		return name, nil
	}
	return b.values.compile(b.ref(h), true)
}

// Block writes the statements of a block in a fresh cache scope.
func (b *BlockCompiler) Block(h ir.BlockHandle) error {
	block, ok := b.module.Block(h)
	if !ok {
		return fmt.Errorf("glsl: invalid block handle %d", h)
	}
	b.values.PushScope()
	defer b.values.PopScope()
	for _, stmt := range block {
		if err := b.statement(stmt.Kind); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockCompiler) statement(kind ir.StatementKind) error {
	switch k := kind.(type) {
	case ir.StmtLocal:
		return b.writeLocal(k)

	case ir.StmtAssign:
		target, err := b.values.Inline(b.ref(k.Target))
		if err != nil {
			return err
		}
		value, err := b.expression(k.Value)
		if err != nil {
			return err
		}
		b.w.writeLine("%s = %s;", target, value)
		return nil

	case ir.StmtCall:
		fn, ok := b.module.Function(k.Function)
		if !ok {
			return fmt.Errorf("glsl: invalid function handle %d", k.Function)
		}
		args := make([]string, len(k.Arguments))
		for i, a := range k.Arguments {
			s, err := b.values.Compile(b.ref(a))
			if err != nil {
				return err
			}
			args[i] = s
		}
		b.w.writeLine("%s(%s);", functionName(fn.Name), strings.Join(args, ", "))
		return nil

	case ir.StmtReturn:
		if k.Value == nil {
			b.w.writeLine("return;")
			return nil
		}
		value, err := b.expression(*k.Value)
		if err != nil {
			return err
		}
		b.w.writeLine("return %s;", value)
		return nil

	case ir.StmtIf:
		return b.writeIf(k)

	case ir.StmtDiscard:
		b.w.writeLine("discard;")
		return nil

	default:
		return fmt.Errorf("glsl: unsupported statement %T", kind)
	}
}

func (b *BlockCompiler) writeLocal(k ir.StmtLocal) error {
	v, ok := b.module.Value(k.Variable)
	if !ok {
		return fmt.Errorf("glsl: invalid local handle %d", k.Variable)
	}
	ident, ok := v.Kind.(ir.ExprIdentifier)
	if !ok {
		return fmt.Errorf("glsl: local variable %d is not an identifier", k.Variable)
	}
	typeName, err := TypeName(b.module, k.Type)
	if err != nil {
		return fmt.Errorf("local %s: %w", ident.Name, err)
	}
	b.values.Reserve(ident.Name)

	if k.Init == nil {
		b.w.writeLine("%s %s;", typeName, ident.Name)
		return nil
	}
	init, err := b.expression(*k.Init)
	if err != nil {
		return err
	}
	b.w.writeLine("%s %s = %s;", typeName, ident.Name, init)
	return nil
}

// writeIf writes an if statement. An empty reject block emits no else.
func (b *BlockCompiler) writeIf(k ir.StmtIf) error {
	cond, err := b.expression(k.Condition)
	if err != nil {
		return err
	}
	b.w.writeLine("if (%s) {", cond)
	b.w.pushIndent()
	if err := b.Block(k.Accept); err != nil {
		return err
	}
	b.w.popIndent()

	if reject, ok := b.module.Block(k.Reject); ok && len(reject) > 0 {
		b.w.writeLine("} else {")
		b.w.pushIndent()
		if err := b.Block(k.Reject); err != nil {
			return err
		}
		b.w.popIndent()
	}
	b.w.writeLine("}")
	return nil
}

// Function writes the definition of fn.
func (b *BlockCompiler) Function(h ir.FunctionHandle) error {
	fn, ok := b.module.Function(h)
	if !ok {
		return fmt.Errorf("glsl: invalid function handle %d", h)
	}

	result := "void"
	if fn.Result != ir.NoType {
		name, err := TypeName(b.module, fn.Result)
		if err != nil {
			return fmt.Errorf("function %s result: %w", fn.Name, err)
		}
		result = name
	}

	params := make([]string, len(fn.Arguments))
	for i, arg := range fn.Arguments {
		name, err := TypeName(b.module, arg.Type)
		if err != nil {
			return fmt.Errorf("function %s argument %s: %w", fn.Name, arg.Name, err)
		}
		b.values.Reserve(arg.Name)
		params[i] = fmt.Sprintf("%s %s", name, arg.Name)
	}

	b.w.writeLine("%s %s(%s) {", result, functionName(fn.Name), strings.Join(params, ", "))
	b.w.pushIndent()
	if err := b.Block(fn.Body); err != nil {
		return fmt.Errorf("function %s: %w", fn.Name, err)
	}
	b.w.popIndent()
	b.w.writeLine("}")
	return nil
}

// WriteFunctions writes every function of the module in declaration order,
// with the entry point last.
func (b *BlockCompiler) WriteFunctions() error {
	entry := -1
	for i := range b.module.Functions {
		if b.module.Functions[i].Name == EntryPointName {
			entry = i
			continue
		}
		if err := b.Function(ir.FunctionHandle(i)); err != nil { //nolint:gosec // G115: function count fits in uint32
			return err
		}
		b.w.writeLine("")
	}
	if entry >= 0 {
		return b.Function(ir.FunctionHandle(entry)) //nolint:gosec // G115: function count fits in uint32
	}
	return nil
}
