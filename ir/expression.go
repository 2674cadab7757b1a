package ir

import "github.com/gogpu/shaderlink/rtconst"

// Value represents an immutable expression node in the IR.
// Values are shared: several parents may reference the same child handle.
type Value struct {
	Kind ValueKind

	// Type is the value's type, or NoType when it could not be inferred.
	Type TypeHandle

	// Name is an optional hint for the identifier generated for the value.
	Name string
}

// ValueKind represents the different kinds of values.
type ValueKind interface {
	valueKind()
}

// Literal represents a literal constant value.
type Literal struct {
	Value LiteralValue
}

func (Literal) valueKind() {}

// LiteralValue represents the value of a literal.
type LiteralValue interface {
	literalValue()
}

// LiteralF64 represents a 64-bit float literal.
type LiteralF64 float64

func (LiteralF64) literalValue() {}

// LiteralF32 represents a 32-bit float literal.
type LiteralF32 float32

func (LiteralF32) literalValue() {}

// LiteralU32 represents a 32-bit unsigned integer literal.
type LiteralU32 uint32

func (LiteralU32) literalValue() {}

// LiteralI32 represents a 32-bit signed integer literal.
type LiteralI32 int32

func (LiteralI32) literalValue() {}

// LiteralBool represents a boolean literal.
type LiteralBool bool

func (LiteralBool) literalValue() {}

// ExprIdentifier references a named entity: a function argument, a local
// variable, a built-in variable or a resource accessor.
type ExprIdentifier struct {
	Name string
}

func (ExprIdentifier) valueKind() {}

// ExprCall represents the result of calling a user function.
type ExprCall struct {
	Function  FunctionHandle
	Arguments []ValueHandle
}

func (ExprCall) valueKind() {}

// ExprBuiltin represents a call to a built-in function of the target language.
type ExprBuiltin struct {
	Name      string
	Arguments []ValueHandle
}

func (ExprBuiltin) valueKind() {}

// ExprUnary applies a unary operator to a value.
type ExprUnary struct {
	Op   UnaryOperator
	Expr ValueHandle
}

func (ExprUnary) valueKind() {}

// UnaryOperator represents unary operations.
type UnaryOperator uint8

const (
	UnaryNegate     UnaryOperator = iota // Arithmetic negation
	UnaryLogicalNot                      // Logical not (!)
	UnaryBitwiseNot                      // Bitwise not (~)
)

// ExprBinary applies a binary operator to two values.
type ExprBinary struct {
	Op    BinaryOperator
	Left  ValueHandle
	Right ValueHandle
}

func (ExprBinary) valueKind() {}

// BinaryOperator represents binary operations.
type BinaryOperator uint8

const (
	// Arithmetic operations
	BinaryAdd      BinaryOperator = iota // Addition
	BinarySubtract                       // Subtraction
	BinaryMultiply                       // Multiplication
	BinaryDivide                         // Division
	BinaryModulo                         // Modulo (remainder)

	// Comparison operations
	BinaryEqual        // Equal (==)
	BinaryNotEqual     // Not equal (!=)
	BinaryLess         // Less than (<)
	BinaryLessEqual    // Less than or equal (<=)
	BinaryGreater      // Greater than (>)
	BinaryGreaterEqual // Greater than or equal (>=)

	// Bitwise operations
	BinaryAnd         // Bitwise AND
	BinaryExclusiveOr // Bitwise XOR
	BinaryInclusiveOr // Bitwise OR

	// Logical operations
	BinaryLogicalAnd // Logical AND (&&)
	BinaryLogicalOr  // Logical OR (||)

	// Shift operations
	BinaryShiftLeft  // Left shift (<<)
	BinaryShiftRight // Right shift (>>)
)

// IsComparison reports whether op yields a boolean.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return true
	default:
		return false
	}
}

// ExprMember accesses a struct member or swizzles a vector.
type ExprMember struct {
	Base   ValueHandle
	Member string
}

func (ExprMember) valueKind() {}

// ExprAccess indexes into an array, vector or matrix.
type ExprAccess struct {
	Base  ValueHandle
	Index ValueHandle
}

func (ExprAccess) valueKind() {}

// ExprSelect selects between two values based on a boolean condition.
// Equivalent to the ternary operator (condition ? accept : reject).
type ExprSelect struct {
	Condition ValueHandle
	Accept    ValueHandle
	Reject    ValueHandle
}

func (ExprSelect) valueKind() {}

// ExprCompose constructs or converts a value of the given type from
// components (a constructor or a cast).
type ExprCompose struct {
	Type       TypeHandle
	Components []ValueHandle
}

func (ExprCompose) valueKind() {}

// ExprCapability reads a capability. The concrete resource behind it is
// decided by the resolver at code-generation time.
type ExprCapability struct {
	Capability string
}

func (ExprCapability) valueKind() {}

// ExprRuntimeConstant reads a runtime constant, lowered to a
// specialization constant by the resolver.
type ExprRuntimeConstant struct {
	Constant rtconst.Constant
}

func (ExprRuntimeConstant) valueKind() {}

// Children returns the value handles a kind references, in evaluation order.
func Children(kind ValueKind) []ValueHandle {
	switch k := kind.(type) {
	case ExprCall:
		return k.Arguments
	case ExprBuiltin:
		return k.Arguments
	case ExprUnary:
		return []ValueHandle{k.Expr}
	case ExprBinary:
		return []ValueHandle{k.Left, k.Right}
	case ExprMember:
		return []ValueHandle{k.Base}
	case ExprAccess:
		return []ValueHandle{k.Base, k.Index}
	case ExprSelect:
		return []ValueHandle{k.Condition, k.Accept, k.Reject}
	case ExprCompose:
		return k.Components
	default:
		return nil
	}
}

// IsLeaf reports whether a kind references no other values.
func IsLeaf(kind ValueKind) bool {
	switch kind.(type) {
	case Literal, ExprIdentifier, ExprCapability, ExprRuntimeConstant:
		return true
	default:
		return false
	}
}
