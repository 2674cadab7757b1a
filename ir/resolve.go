package ir

import (
	"fmt"

	"github.com/gogpu/shaderlink/rtconst"
)

// TypeResolution represents the resolved type of a value.
// It can either reference a type in the module's registry (Handle)
// or represent an inline/computed type (Value).
type TypeResolution struct {
	Handle *TypeHandle // If set, references a module type
	Value  TypeInner   // If Handle is nil, this is the inline type
}

// inner extracts the TypeInner from a TypeResolution.
func (res TypeResolution) inner(module *Module) TypeInner {
	if res.Handle != nil {
		return module.Types.Inner(*res.Handle)
	}
	return res.Value
}

func handleResolution(h TypeHandle) TypeResolution {
	return TypeResolution{Handle: &h}
}

// ResolveValueType infers the type of a value kind in module.
//
// Inference is advisory: an error means the inferencer could not decide,
// never that the shader is invalid. Callers treat such values as untyped.
//
//nolint:gocyclo,cyclop // Type resolution requires handling all value kinds
func ResolveValueType(module *Module, kind ValueKind) (TypeResolution, error) {
	switch k := kind.(type) {
	case Literal:
		return resolveLiteralType(k)
	case ExprIdentifier:
		return TypeResolution{}, fmt.Errorf("identifier %q has no declared type", k.Name)
	case ExprCapability:
		return TypeResolution{}, fmt.Errorf("capability %q has no declared type", k.Capability)
	case ExprRuntimeConstant:
		return resolveRuntimeConstantType(k)
	case ExprCall:
		fn, ok := module.Function(k.Function)
		if !ok {
			return TypeResolution{}, fmt.Errorf("function %d out of range", k.Function)
		}
		if fn.Result == NoType {
			return TypeResolution{}, fmt.Errorf("function %s has no return type", fn.Name)
		}
		return handleResolution(fn.Result), nil
	case ExprBuiltin:
		return resolveBuiltinType(module, k)
	case ExprUnary:
		return resolveUnaryType(module, k)
	case ExprBinary:
		return resolveBinaryType(module, k)
	case ExprMember:
		return resolveMemberType(module, k)
	case ExprAccess:
		return resolveAccessType(module, k)
	case ExprSelect:
		return resolveOperandType(module, k.Accept)
	case ExprCompose:
		return handleResolution(k.Type), nil
	default:
		return TypeResolution{}, fmt.Errorf("unsupported value kind: %T", kind)
	}
}

// resolveOperandType returns the recorded type of an existing value.
func resolveOperandType(module *Module, h ValueHandle) (TypeResolution, error) {
	v, ok := module.Value(h)
	if !ok {
		return TypeResolution{}, fmt.Errorf("value handle %d out of range (max %d)", h, len(module.Values))
	}
	if v.Type == NoType {
		return TypeResolution{}, fmt.Errorf("value %d is untyped", h)
	}
	return handleResolution(v.Type), nil
}

func resolveLiteralType(lit Literal) (TypeResolution, error) {
	switch v := lit.Value.(type) {
	case LiteralF64:
		return TypeResolution{Value: F64}, nil
	case LiteralF32:
		return TypeResolution{Value: F32}, nil
	case LiteralU32:
		return TypeResolution{Value: U32}, nil
	case LiteralI32:
		return TypeResolution{Value: I32}, nil
	case LiteralBool:
		return TypeResolution{Value: Bool}, nil
	default:
		return TypeResolution{}, fmt.Errorf("unknown literal type: %T", v)
	}
}

func resolveRuntimeConstantType(expr ExprRuntimeConstant) (TypeResolution, error) {
	switch expr.Constant.Type() {
	case rtconst.TypeBool:
		return TypeResolution{Value: Bool}, nil
	case rtconst.TypeInt:
		return TypeResolution{Value: I32}, nil
	case rtconst.TypeUint:
		return TypeResolution{Value: U32}, nil
	case rtconst.TypeFloat:
		return TypeResolution{Value: F32}, nil
	default:
		return TypeResolution{}, fmt.Errorf("unknown runtime constant type %d", expr.Constant.Type())
	}
}

func resolveUnaryType(module *Module, expr ExprUnary) (TypeResolution, error) {
	operandType, err := resolveOperandType(module, expr.Expr)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("unary operand: %w", err)
	}
	if expr.Op == UnaryLogicalNot {
		if vec, ok := operandType.inner(module).(VectorType); ok {
			return TypeResolution{Value: VectorType{Size: vec.Size, Scalar: Bool}}, nil
		}
		return TypeResolution{Value: Bool}, nil
	}

	// Other unary operators preserve the operand type
	return operandType, nil
}

func resolveBinaryType(module *Module, expr ExprBinary) (TypeResolution, error) {
	leftType, err := resolveOperandType(module, expr.Left)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("binary left: %w", err)
	}

	switch {
	case expr.Op.IsComparison():
		// Component-wise comparison is spelled with builtins (lessThan etc.);
		// the operators always yield a single bool.
		return TypeResolution{Value: Bool}, nil

	case expr.Op == BinaryLogicalAnd || expr.Op == BinaryLogicalOr:
		return TypeResolution{Value: Bool}, nil

	case expr.Op == BinaryMultiply:
		// Multiplication result type depends on both operands:
		//   scalar * vector → vector
		//   scalar * matrix → matrix
		//   matrix * vector → vector(rows)
		//   vector * matrix → vector(columns)
		rightType, rightErr := resolveOperandType(module, expr.Right)
		if rightErr != nil {
			return TypeResolution{}, fmt.Errorf("binary right: %w", rightErr)
		}
		return resolveMulResultType(module, leftType, rightType), nil

	default:
		// Arithmetic and bitwise operators broadcast a scalar left operand
		// to the vector on the right.
		rightType, rightErr := resolveOperandType(module, expr.Right)
		if rightErr == nil {
			_, leftIsScalar := leftType.inner(module).(ScalarType)
			_, rightIsVec := rightType.inner(module).(VectorType)
			if leftIsScalar && rightIsVec {
				return rightType, nil
			}
		}
		return leftType, nil
	}
}

// resolveMulResultType determines the result type of a multiplication.
func resolveMulResultType(module *Module, left, right TypeResolution) TypeResolution {
	leftInner := left.inner(module)
	rightInner := right.inner(module)

	_, leftIsScalar := leftInner.(ScalarType)
	_, rightIsScalar := rightInner.(ScalarType)
	_, leftIsVec := leftInner.(VectorType)
	_, rightIsVec := rightInner.(VectorType)
	leftMat, leftIsMat := leftInner.(MatrixType)
	rightMat, rightIsMat := rightInner.(MatrixType)

	switch {
	case leftIsScalar && (rightIsVec || rightIsMat):
		return right
	case (leftIsVec || leftIsMat) && rightIsScalar:
		return left
	case leftIsMat && rightIsVec:
		// mat(cols x rows) * vec(cols) → vec(rows)
		return TypeResolution{Value: VectorType{Size: leftMat.Rows, Scalar: leftMat.Scalar}}
	case leftIsVec && rightIsMat:
		// vec(rows) * mat(cols x rows) → vec(cols)
		return TypeResolution{Value: VectorType{Size: rightMat.Columns, Scalar: rightMat.Scalar}}
	case leftIsMat && rightIsMat:
		return TypeResolution{Value: MatrixType{Columns: rightMat.Columns, Rows: leftMat.Rows, Scalar: leftMat.Scalar}}
	default:
		return left
	}
}

func resolveMemberType(module *Module, expr ExprMember) (TypeResolution, error) {
	baseType, err := resolveOperandType(module, expr.Base)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("member base: %w", err)
	}

	switch t := baseType.inner(module).(type) {
	case StructType:
		for _, member := range t.Members {
			if member.Name == expr.Member {
				return handleResolution(member.Type), nil
			}
		}
		return TypeResolution{}, fmt.Errorf("struct %s has no member %q", t.Name, expr.Member)
	case VectorType:
		if !IsSwizzle(expr.Member, t.Size) {
			return TypeResolution{}, fmt.Errorf("invalid swizzle %q", expr.Member)
		}
		if len(expr.Member) == 1 {
			return TypeResolution{Value: t.Scalar}, nil
		}
		return TypeResolution{Value: VectorType{Size: VectorSize(len(expr.Member)), Scalar: t.Scalar}}, nil
	case ScalarType:
		if !IsSwizzle(expr.Member, 1) {
			return TypeResolution{}, fmt.Errorf("invalid swizzle %q on scalar", expr.Member)
		}
		if len(expr.Member) == 1 {
			return TypeResolution{Value: t}, nil
		}
		return TypeResolution{Value: VectorType{Size: VectorSize(len(expr.Member)), Scalar: t}}, nil
	default:
		return TypeResolution{}, fmt.Errorf("cannot access member of %T", t)
	}
}

// swizzleSets are the component name sets of the target language.
var swizzleSets = [...]string{"xyzw", "rgba", "stpq"}

// IsSwizzle reports whether member is a valid swizzle of a vector of the
// given size: 1 to 4 components, all from one naming set.
func IsSwizzle(member string, size VectorSize) bool {
	if len(member) == 0 || len(member) > 4 {
		return false
	}
	for _, set := range swizzleSets {
		ok := true
		for _, c := range member {
			idx := indexByte(set, byte(c))
			if idx < 0 || idx >= int(size) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func resolveAccessType(module *Module, expr ExprAccess) (TypeResolution, error) {
	baseType, err := resolveOperandType(module, expr.Base)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("access base: %w", err)
	}

	// Access into array, vector, or matrix returns the element type
	switch t := baseType.inner(module).(type) {
	case ArrayType:
		return handleResolution(t.Base), nil
	case VectorType:
		return TypeResolution{Value: t.Scalar}, nil
	case MatrixType:
		// Matrix access returns a column vector
		return TypeResolution{Value: VectorType{Size: t.Rows, Scalar: t.Scalar}}, nil
	default:
		return TypeResolution{}, fmt.Errorf("cannot index into type %T", t)
	}
}

// builtinShape describes how a built-in's result type follows from its arguments.
type builtinShape uint8

const (
	shapeArg0   builtinShape = iota // same type as the first argument
	shapeArg1                       // same type as the second argument
	shapeArg2                       // same type as the third argument
	shapeScalar                     // scalar of the first argument
	shapeBool                       // single bool
	shapeVec4                       // vec4 of float (texture reads)
	shapeBoolVec                    // bool vector the size of the first argument
)

var builtinShapes = map[string]builtinShape{
	"abs": shapeArg0, "sign": shapeArg0, "floor": shapeArg0, "ceil": shapeArg0,
	"fract": shapeArg0, "round": shapeArg0, "trunc": shapeArg0,
	"sin": shapeArg0, "cos": shapeArg0, "tan": shapeArg0,
	"asin": shapeArg0, "acos": shapeArg0, "atan": shapeArg0,
	"exp": shapeArg0, "exp2": shapeArg0, "log": shapeArg0, "log2": shapeArg0,
	"sqrt": shapeArg0, "inversesqrt": shapeArg0, "pow": shapeArg0,
	"radians": shapeArg0, "degrees": shapeArg0,
	"min": shapeArg0, "max": shapeArg0, "clamp": shapeArg0, "mix": shapeArg0, "mod": shapeArg0,
	"normalize": shapeArg0, "cross": shapeArg0, "reflect": shapeArg0, "refract": shapeArg0,
	"faceforward": shapeArg0, "transpose": shapeArg0, "inverse": shapeArg0,
	"dFdx": shapeArg0, "dFdy": shapeArg0, "fwidth": shapeArg0,
	"step":       shapeArg1,
	"smoothstep": shapeArg2,
	"length":     shapeScalar, "distance": shapeScalar, "dot": shapeScalar, "determinant": shapeScalar,
	"any": shapeBool, "all": shapeBool,
	"texture": shapeVec4, "textureLod": shapeVec4, "texelFetch": shapeVec4, "textureGrad": shapeVec4,
	"lessThan": shapeBoolVec, "lessThanEqual": shapeBoolVec, "greaterThan": shapeBoolVec,
	"greaterThanEqual": shapeBoolVec, "equal": shapeBoolVec, "notEqual": shapeBoolVec,
}

func resolveBuiltinType(module *Module, expr ExprBuiltin) (TypeResolution, error) {
	shape, ok := builtinShapes[expr.Name]
	if !ok {
		return TypeResolution{}, fmt.Errorf("unknown builtin %q", expr.Name)
	}

	arg := func(i int) (TypeResolution, error) {
		if i >= len(expr.Arguments) {
			return TypeResolution{}, fmt.Errorf("builtin %s: missing argument %d", expr.Name, i)
		}
		return resolveOperandType(module, expr.Arguments[i])
	}

	switch shape {
	case shapeArg0:
		return arg(0)
	case shapeArg1:
		return arg(1)
	case shapeArg2:
		return arg(2)
	case shapeScalar:
		res, err := arg(0)
		if err != nil {
			return TypeResolution{}, err
		}
		scalar, ok := scalarOf(res.inner(module))
		if !ok {
			return TypeResolution{}, fmt.Errorf("builtin %s: non-numeric argument", expr.Name)
		}
		return TypeResolution{Value: scalar}, nil
	case shapeBool:
		return TypeResolution{Value: Bool}, nil
	case shapeVec4:
		return TypeResolution{Value: VectorType{Size: Vec4, Scalar: F32}}, nil
	case shapeBoolVec:
		res, err := arg(0)
		if err != nil {
			return TypeResolution{}, err
		}
		vec, ok := res.inner(module).(VectorType)
		if !ok {
			return TypeResolution{}, fmt.Errorf("builtin %s: vector argument required", expr.Name)
		}
		return TypeResolution{Value: VectorType{Size: vec.Size, Scalar: Bool}}, nil
	default:
		return TypeResolution{}, fmt.Errorf("builtin %s: unhandled shape", expr.Name)
	}
}
