package ir

// Module is the arena holding the IR of one shader being authored.
type Module struct {
	// Types holds all type definitions, deduplicated structurally.
	Types *TypeRegistry

	// Values holds every value created for this module.
	Values []Value

	// Blocks holds statement lists; each belongs to one function.
	Blocks []Block

	// Functions holds function definitions in declaration order.
	Functions []Function
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		Types:  NewTypeRegistry(),
		Values: make([]Value, 0, 64),
		Blocks: make([]Block, 0, 8),
	}
}

// Handle types for referencing IR objects
type (
	TypeHandle     uint32
	ValueHandle    uint32
	BlockHandle    uint32
	FunctionHandle uint32
)

// NoType marks a value whose type the inferencer could not decide, and a
// function without a result.
const NoType = ^TypeHandle(0)

// Ref addresses a value in a specific module arena. Refs are comparable and
// identify a value instance; they are the key for identity-based reuse.
type Ref struct {
	Module *Module
	Value  ValueHandle
}

// Value returns the value a handle refers to.
func (m *Module) Value(h ValueHandle) (Value, bool) {
	if int(h) >= len(m.Values) {
		return Value{}, false
	}
	return m.Values[h], true
}

// Function returns the function a handle refers to.
func (m *Module) Function(h FunctionHandle) (*Function, bool) {
	if int(h) >= len(m.Functions) {
		return nil, false
	}
	return &m.Functions[h], true
}

// Block returns the statements of a block.
func (m *Module) Block(h BlockHandle) (Block, bool) {
	if int(h) >= len(m.Blocks) {
		return nil, false
	}
	return m.Blocks[h], true
}

// Type represents a type in the IR.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner represents the inner type kind.
type TypeInner interface {
	typeInner()
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// Common scalar types.
var (
	F32  = ScalarType{Kind: ScalarFloat, Width: 4}
	F64  = ScalarType{Kind: ScalarFloat, Width: 8}
	I32  = ScalarType{Kind: ScalarSint, Width: 4}
	U32  = ScalarType{Kind: ScalarUint, Width: 4}
	Bool = ScalarType{Kind: ScalarBool, Width: 1}
)

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// MatrixType represents matrix types.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

// ArrayType represents fixed-size array types.
type ArrayType struct {
	Base TypeHandle
	Size uint32
}

func (ArrayType) typeInner() {}

// StructType represents named struct types.
type StructType struct {
	Name    string
	Members []StructMember
}

func (StructType) typeInner() {}

// StructMember represents a struct member.
type StructMember struct {
	Name string
	Type TypeHandle
}

// OpaqueType represents a type the IR does not model structurally, such as
// samplers, images and acceleration structures. Name is the target spelling.
type OpaqueType struct {
	Name string
}

func (OpaqueType) typeInner() {}

// Function represents a function definition.
type Function struct {
	Name      string
	Arguments []FunctionArgument
	Result    TypeHandle // NoType for void
	Body      BlockHandle
}

// FunctionArgument represents a function argument.
type FunctionArgument struct {
	Name string
	Type TypeHandle
}

// Arg is shorthand for building a FunctionArgument.
func Arg(name string, typ TypeHandle) FunctionArgument {
	return FunctionArgument{Name: name, Type: typ}
}

// componentCount returns the number of scalar components of a type, or 0
// for types that are not scalars, vectors or matrices.
func componentCount(inner TypeInner) int {
	switch t := inner.(type) {
	case ScalarType:
		return 1
	case VectorType:
		return int(t.Size)
	case MatrixType:
		return int(t.Columns) * int(t.Rows)
	default:
		return 0
	}
}

// scalarOf returns the scalar type of a scalar, vector or matrix.
func scalarOf(inner TypeInner) (ScalarType, bool) {
	switch t := inner.(type) {
	case ScalarType:
		return t, true
	case VectorType:
		return t.Scalar, true
	case MatrixType:
		return t.Scalar, true
	default:
		return ScalarType{}, false
	}
}

// Value types are defined in expression.go
// Statement types are defined in statement.go
