package ir

import (
	"fmt"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function string
	Value    *ValueHandle
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Function != "":
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	case e.Value != nil:
		return fmt.Sprintf("value %d: %s", *e.Value, e.Message)
	default:
		return e.Message
	}
}

// Validator validates IR modules.
type Validator struct {
	module *Module
	errors []ValidationError

	functionName string
	visited      map[BlockHandle]bool
}

// Validate checks the IR module for structural correctness.
// Returns validation errors if any, or nil if module is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &Validator{
		module:  module,
		visited: make(map[BlockHandle]bool),
	}
	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.validateTypes()
	v.validateValues()
	v.validateFunctions()
}

func (v *Validator) validateTypes() {
	for i, typ := range v.module.Types.All() {
		v.validateType(TypeHandle(i), typ) //nolint:gosec // G115: i is a valid slice index
	}
}

//nolint:gocyclo,cyclop // Type validation requires checking many type variants
func (v *Validator) validateType(handle TypeHandle, typ Type) {
	if typ.Inner == nil {
		v.addError(fmt.Sprintf("type %d has nil inner type", handle))
		return
	}

	switch inner := typ.Inner.(type) {
	case ScalarType:
		if inner.Width != 1 && inner.Width != 4 && inner.Width != 8 {
			v.addError(fmt.Sprintf("type %d: scalar width must be 1, 4, or 8 bytes, got %d", handle, inner.Width))
		}

	case VectorType:
		if inner.Size != Vec2 && inner.Size != Vec3 && inner.Size != Vec4 {
			v.addError(fmt.Sprintf("type %d: vector size must be 2, 3, or 4, got %d", handle, inner.Size))
		}

	case MatrixType:
		if inner.Columns < Vec2 || inner.Columns > Vec4 || inner.Rows < Vec2 || inner.Rows > Vec4 {
			v.addError(fmt.Sprintf("type %d: matrix dimensions must be 2, 3, or 4, got %dx%d", handle, inner.Columns, inner.Rows))
		}
		if inner.Scalar.Kind != ScalarFloat {
			v.addError(fmt.Sprintf("type %d: matrix scalar must be float", handle))
		}

	case ArrayType:
		if inner.Base >= handle {
			v.addError(fmt.Sprintf("type %d: array base type %d is not declared before it", handle, inner.Base))
		}
		if inner.Size == 0 {
			v.addError(fmt.Sprintf("type %d: array size must be positive", handle))
		}

	case StructType:
		if inner.Name == "" {
			v.addError(fmt.Sprintf("type %d: struct has empty name", handle))
		}
		names := make(map[string]bool, len(inner.Members))
		for j, member := range inner.Members {
			if member.Name == "" {
				v.addError(fmt.Sprintf("type %d: struct member %d has empty name", handle, j))
			}
			if names[member.Name] {
				v.addError(fmt.Sprintf("type %d: duplicate struct member name %q", handle, member.Name))
			}
			names[member.Name] = true
			if member.Type >= handle {
				v.addError(fmt.Sprintf("type %d: struct member %q type %d is not declared before it", handle, member.Name, member.Type))
			}
		}

	case OpaqueType:
		if inner.Name == "" {
			v.addError(fmt.Sprintf("type %d: opaque type has empty name", handle))
		}
	}
}

// validateValues checks that every value only references earlier values
// and valid types and functions.
func (v *Validator) validateValues() {
	for i, val := range v.module.Values {
		h := ValueHandle(i) //nolint:gosec // G115: i is a valid slice index
		if val.Kind == nil {
			v.addValueError(h, "nil value kind")
			continue
		}
		if val.Type != NoType && !v.isValidTypeHandle(val.Type) {
			v.addValueError(h, fmt.Sprintf("type %d does not exist", val.Type))
		}
		for _, child := range Children(val.Kind) {
			if child >= h {
				v.addValueError(h, fmt.Sprintf("references value %d which is not created before it", child))
			}
		}

		switch k := val.Kind.(type) {
		case ExprCall:
			fn, ok := v.module.Function(k.Function)
			if !ok {
				v.addValueError(h, fmt.Sprintf("function %d does not exist", k.Function))
				break
			}
			if len(k.Arguments) != len(fn.Arguments) {
				v.addValueError(h, fmt.Sprintf("call to %s has %d arguments, want %d", fn.Name, len(k.Arguments), len(fn.Arguments)))
			}
		case ExprCompose:
			if !v.isValidTypeHandle(k.Type) {
				v.addValueError(h, fmt.Sprintf("compose type %d does not exist", k.Type))
			}
		case ExprIdentifier:
			if k.Name == "" {
				v.addValueError(h, "identifier has empty name")
			}
		case ExprCapability:
			if k.Capability == "" {
				v.addValueError(h, "capability has empty name")
			}
		case ExprRuntimeConstant:
			if k.Constant == nil {
				v.addValueError(h, "runtime constant is nil")
			}
		}
	}
}

func (v *Validator) validateFunctions() {
	names := make(map[string]bool)

	for i := range v.module.Functions {
		fn := &v.module.Functions[i]
		v.functionName = fn.Name
		if fn.Name == "" {
			v.addError(fmt.Sprintf("function %d has empty name", i))
		}
		if names[fn.Name] {
			v.addError(fmt.Sprintf("duplicate function name %q", fn.Name))
		}
		names[fn.Name] = true

		for j, arg := range fn.Arguments {
			if !v.isValidTypeHandle(arg.Type) {
				v.addErrorInFunction(fmt.Sprintf("argument %d (%s): type %d does not exist", j, arg.Name, arg.Type))
			}
		}
		if fn.Result != NoType && !v.isValidTypeHandle(fn.Result) {
			v.addErrorInFunction(fmt.Sprintf("result type %d does not exist", fn.Result))
		}
		v.validateBlock(fn.Body, fn)
		v.functionName = ""
	}
}

func (v *Validator) validateBlock(handle BlockHandle, fn *Function) {
	block, ok := v.module.Block(handle)
	if !ok {
		v.addErrorInFunction(fmt.Sprintf("block %d does not exist", handle))
		return
	}
	if v.visited[handle] {
		v.addErrorInFunction(fmt.Sprintf("block %d is reachable more than once", handle))
		return
	}
	v.visited[handle] = true

	for _, stmt := range block {
		v.validateStatement(stmt, fn)
	}
}

//nolint:gocyclo,cyclop // Statement validation requires checking many statement types
func (v *Validator) validateStatement(stmt Statement, fn *Function) {
	switch s := stmt.Kind.(type) {
	case StmtLocal:
		v.checkValue(s.Variable, "local variable")
		if s.Type == NoType {
			v.addErrorInFunction(fmt.Sprintf("local variable %d has no type", s.Variable))
		} else if !v.isValidTypeHandle(s.Type) {
			v.addErrorInFunction(fmt.Sprintf("local variable %d: type %d does not exist", s.Variable, s.Type))
		}
		if s.Init != nil {
			v.checkValue(*s.Init, "local initializer")
		}

	case StmtAssign:
		v.checkValue(s.Target, "assignment target")
		v.checkValue(s.Value, "assignment value")
		if val, ok := v.module.Value(s.Target); ok {
			switch val.Kind.(type) {
			case ExprIdentifier, ExprMember, ExprAccess:
			default:
				v.addErrorInFunction(fmt.Sprintf("assignment target %d is not assignable", s.Target))
			}
		}

	case StmtCall:
		callee, ok := v.module.Function(s.Function)
		if !ok {
			v.addErrorInFunction(fmt.Sprintf("call: function %d does not exist", s.Function))
			return
		}
		if len(s.Arguments) != len(callee.Arguments) {
			v.addErrorInFunction(fmt.Sprintf("call to %s has %d arguments, want %d", callee.Name, len(s.Arguments), len(callee.Arguments)))
		}
		for _, arg := range s.Arguments {
			v.checkValue(arg, "call argument")
		}

	case StmtReturn:
		switch {
		case s.Value == nil && fn.Result != NoType:
			v.addErrorInFunction("missing return value")
		case s.Value != nil && fn.Result == NoType:
			v.addErrorInFunction("void function returns a value")
		case s.Value != nil:
			v.checkValue(*s.Value, "return value")
		}

	case StmtIf:
		v.checkValue(s.Condition, "if condition")
		v.validateBlock(s.Accept, fn)
		v.validateBlock(s.Reject, fn)

	case StmtDiscard:

	default:
		v.addErrorInFunction(fmt.Sprintf("unknown statement kind %T", stmt.Kind))
	}
}

func (v *Validator) checkValue(h ValueHandle, what string) {
	if int(h) >= len(v.module.Values) {
		v.addErrorInFunction(fmt.Sprintf("%s: value %d does not exist", what, h))
	}
}

func (v *Validator) isValidTypeHandle(h TypeHandle) bool {
	return int(h) < v.module.Types.Len()
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg})
}

func (v *Validator) addValueError(h ValueHandle, msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg, Value: &h})
}

func (v *Validator) addErrorInFunction(msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg, Function: v.functionName})
}
