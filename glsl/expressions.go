// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
)

// ValueCompiler turns IR values into GLSL expressions.
//
// Each distinct typed compound value is evaluated once per block scope: the
// first use writes a local declaration to the output and later uses read
// the local. Leaves, access paths and values whose type could not be
// inferred are always inlined.
type ValueCompiler struct {
	w         *Writer
	resolver  Resolver
	inlineAll bool
	namer     *namer
	scopes    []map[ir.Ref]string
}

// NewValueCompiler creates a value compiler writing materialized locals to
// w. resolver may be nil if the code reads no capability or runtime
// constant.
func NewValueCompiler(w *Writer, resolver Resolver, opts Options) *ValueCompiler {
	return &ValueCompiler{
		w:         w,
		resolver:  resolver,
		inlineAll: opts.InlineAll,
		namer:     newNamer(),
		scopes:    []map[ir.Ref]string{{}},
	}
}

// Reserve marks an identifier as taken so generated locals never shadow it.
func (c *ValueCompiler) Reserve(name string) {
	c.namer.reserve(name)
}

// PushScope opens a nested cache scope. Values materialized inside it are
// forgotten by PopScope.
func (c *ValueCompiler) PushScope() {
	c.scopes = append(c.scopes, map[ir.Ref]string{})
}

// PopScope closes the innermost cache scope.
func (c *ValueCompiler) PopScope() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

func (c *ValueCompiler) lookup(ref ir.Ref) (string, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if name, ok := c.scopes[i][ref]; ok {
			return name, true
		}
	}
	return "", false
}

// Compile returns a GLSL expression evaluating ref.
func (c *ValueCompiler) Compile(ref ir.Ref) (string, error) {
	return c.compile(ref, false)
}

// Inline returns ref as a single expression without writing any locals.
// It is used where statements cannot be emitted, such as include
// substitutions and assignment targets.
func (c *ValueCompiler) Inline(ref ir.Ref) (string, error) {
	saved := c.inlineAll
	c.inlineAll = true
	defer func() { c.inlineAll = saved }()
	return c.compile(ref, true)
}

func (c *ValueCompiler) compile(ref ir.Ref, inline bool) (string, error) {
	if ref.Module == nil {
		return "", fmt.Errorf("glsl: value %d has no module", ref.Value)
	}
	if name, ok := c.lookup(ref); ok {
		return name, nil
	}
	val, ok := ref.Module.Value(ref.Value)
	if !ok {
		return "", fmt.Errorf("glsl: invalid value handle %d", ref.Value)
	}

	expr, err := c.expression(ref.Module, val)
	if err != nil {
		return "", err
	}
	if inline || c.inlineAll || c.w == nil || !c.materialize(ref.Module, val) {
		return expr, nil
	}

	typeName, err := TypeName(ref.Module, val.Type)
	if err != nil {
		return "", err
	}
	name := c.namer.call(c.nameHint(ref, val))
	c.w.writeLine("%s %s = %s;", typeName, name, expr)
	c.scopes[len(c.scopes)-1][ref] = name
	return name, nil
}

// materialize reports whether a value is worth a local declaration.
func (c *ValueCompiler) materialize(module *ir.Module, val ir.Value) bool {
	if val.Type == ir.NoType || ir.IsLeaf(val.Kind) {
		return false
	}
	if _, ok := module.Types.Inner(val.Type).(ir.OpaqueType); ok {
		return false
	}
	return !isAccessPath(module, val.Kind)
}

// isAccessPath reports whether kind is a member or constant-index chain
// rooted at a leaf, such as "camera.position.xy".
func isAccessPath(module *ir.Module, kind ir.ValueKind) bool {
	for {
		var base ir.ValueHandle
		switch k := kind.(type) {
		case ir.ExprMember:
			base = k.Base
		case ir.ExprAccess:
			idx, ok := module.Value(k.Index)
			if !ok {
				return false
			}
			if _, lit := idx.Kind.(ir.Literal); !lit {
				return false
			}
			base = k.Base
		default:
			return ir.IsLeaf(kind)
		}
		v, ok := module.Value(base)
		if !ok {
			return false
		}
		kind = v.Kind
	}
}

func (c *ValueCompiler) nameHint(ref ir.Ref, val ir.Value) string {
	if val.Name != "" {
		return strcase.ToLowerCamel(val.Name)
	}
	return fmt.Sprintf("_e%d", ref.Value)
}

func (c *ValueCompiler) child(module *ir.Module, h ir.ValueHandle) (string, error) {
	return c.compile(ir.Ref{Module: module, Value: h}, false)
}

func (c *ValueCompiler) children(module *ir.Module, hs []ir.ValueHandle) ([]string, error) {
	out := make([]string, len(hs))
	for i, h := range hs {
		s, err := c.child(module, h)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (c *ValueCompiler) expression(module *ir.Module, val ir.Value) (string, error) {
	switch k := val.Kind.(type) {
	case ir.Literal:
		return writeLiteral(k)

	case ir.ExprIdentifier:
		return k.Name, nil

	case ir.ExprCall:
		fn, ok := module.Function(k.Function)
		if !ok {
			return "", fmt.Errorf("glsl: invalid function handle %d", k.Function)
		}
		args, err := c.children(module, k.Arguments)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", functionName(fn.Name), strings.Join(args, ", ")), nil

	case ir.ExprBuiltin:
		args, err := c.children(module, k.Arguments)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", k.Name, strings.Join(args, ", ")), nil

	case ir.ExprUnary:
		return c.writeUnary(module, k)

	case ir.ExprBinary:
		return c.writeBinary(module, k)

	case ir.ExprMember:
		base, err := c.child(module, k.Base)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s", base, k.Member), nil

	case ir.ExprAccess:
		base, err := c.child(module, k.Base)
		if err != nil {
			return "", err
		}
		index, err := c.child(module, k.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", base, index), nil

	case ir.ExprSelect:
		args, err := c.children(module, []ir.ValueHandle{k.Condition, k.Accept, k.Reject})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s ? %s : %s)", args[0], args[1], args[2]), nil

	case ir.ExprCompose:
		typeName, err := TypeName(module, k.Type)
		if err != nil {
			return "", err
		}
		args, err := c.children(module, k.Components)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", typeName, strings.Join(args, ", ")), nil

	case ir.ExprCapability:
		if c.resolver == nil {
			return "", diag.New(diag.UnresolvedResource, "capability %s read without a resolver", k.Capability).WithResource(k.Capability)
		}
		ref, err := c.resolver.QueryCapability(k.Capability)
		if err != nil {
			return "", err
		}
		return c.compile(ref, false)

	case ir.ExprRuntimeConstant:
		if c.resolver == nil {
			kind := "<nil>"
			if k.Constant != nil {
				kind = k.Constant.Kind()
			}
			return "", diag.New(diag.UnresolvedResource, "runtime constant of kind %s read without a resolver", kind)
		}
		return c.resolver.QueryRuntimeConstant(k.Constant)

	default:
		return "", fmt.Errorf("glsl: unsupported value kind %T", val.Kind)
	}
}

// writeLiteral returns the GLSL spelling of a literal.
func writeLiteral(lit ir.Literal) (string, error) {
	switch v := lit.Value.(type) {
	case ir.LiteralBool:
		if v {
			return "true", nil
		}
		return "false", nil
	case ir.LiteralI32:
		return fmt.Sprintf("%d", int32(v)), nil
	case ir.LiteralU32:
		return fmt.Sprintf("%du", uint32(v)), nil
	case ir.LiteralF32:
		return formatFloat(float32(v)), nil
	case ir.LiteralF64:
		return formatFloat64(float64(v)), nil
	default:
		return "", fmt.Errorf("glsl: unsupported literal type %T", lit.Value)
	}
}

// writeUnary writes a unary expression.
func (c *ValueCompiler) writeUnary(module *ir.Module, k ir.ExprUnary) (string, error) {
	operand, err := c.child(module, k.Expr)
	if err != nil {
		return "", err
	}
	switch k.Op {
	case ir.UnaryNegate:
		return fmt.Sprintf("-(%s)", operand), nil
	case ir.UnaryLogicalNot:
		if !isScalarOperand(module, k.Expr) {
			return fmt.Sprintf("not(%s)", operand), nil
		}
		return fmt.Sprintf("!(%s)", operand), nil
	case ir.UnaryBitwiseNot:
		return fmt.Sprintf("~(%s)", operand), nil
	default:
		return "", fmt.Errorf("glsl: unsupported unary operator %d", k.Op)
	}
}

// isScalarOperand reports whether a value is known to be a scalar. Values
// without an inferred type are treated as scalars.
func isScalarOperand(module *ir.Module, h ir.ValueHandle) bool {
	v, ok := module.Value(h)
	if !ok || v.Type == ir.NoType {
		return true
	}
	_, vec := module.Types.Inner(v.Type).(ir.VectorType)
	return !vec
}

// writeBinary writes a binary expression.
func (c *ValueCompiler) writeBinary(module *ir.Module, k ir.ExprBinary) (string, error) {
	left, err := c.child(module, k.Left)
	if err != nil {
		return "", err
	}
	right, err := c.child(module, k.Right)
	if err != nil {
		return "", err
	}

	if k.Op == ir.BinaryModulo {
		if lv, ok := module.Value(k.Left); ok && isFloatType(module, lv.Type) {
			return fmt.Sprintf("mod(%s, %s)", left, right), nil
		}
	}

	op, ok := binaryOperators[k.Op]
	if !ok {
		return "", fmt.Errorf("glsl: unsupported binary operator %d", k.Op)
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}

var binaryOperators = map[ir.BinaryOperator]string{
	ir.BinaryAdd:          "+",
	ir.BinarySubtract:     "-",
	ir.BinaryMultiply:     "*",
	ir.BinaryDivide:       "/",
	ir.BinaryModulo:       "%",
	ir.BinaryEqual:        "==",
	ir.BinaryNotEqual:     "!=",
	ir.BinaryLess:         "<",
	ir.BinaryLessEqual:    "<=",
	ir.BinaryGreater:      ">",
	ir.BinaryGreaterEqual: ">=",
	ir.BinaryAnd:          "&",
	ir.BinaryExclusiveOr:  "^",
	ir.BinaryInclusiveOr:  "|",
	ir.BinaryLogicalAnd:   "&&",
	ir.BinaryLogicalOr:    "||",
	ir.BinaryShiftLeft:    "<<",
	ir.BinaryShiftRight:   ">>",
}
