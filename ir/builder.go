package ir

import (
	"fmt"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/rtconst"
)

// Builder constructs IR into a Module.
//
// Value constructors append to the value arena and never fail; Compose and
// Cast fail with diag.TypeMismatch when the component shape is wrong.
// Statement constructors append to the current block, maintained by
// StartFunction, StartBlock and EndBlock.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	module    *Module
	functions map[string]FunctionHandle
	structs   map[string]TypeHandle
	blocks    []BlockHandle
}

// NewBuilder creates a builder over a fresh module.
func NewBuilder() *Builder {
	return NewBuilderFor(NewModule())
}

// NewBuilderFor creates a builder appending to an existing module.
func NewBuilderFor(module *Module) *Builder {
	b := &Builder{
		module:    module,
		functions: make(map[string]FunctionHandle),
		structs:   make(map[string]TypeHandle),
	}
	for i, fn := range module.Functions {
		b.functions[fn.Name] = FunctionHandle(i) //nolint:gosec // G115: i is a valid slice index
	}
	for i, typ := range module.Types.All() {
		if st, ok := typ.Inner.(StructType); ok {
			b.structs[st.Name] = TypeHandle(i) //nolint:gosec // G115: i is a valid slice index
		}
	}
	return b
}

// Module returns the module being built.
func (b *Builder) Module() *Module {
	return b.module
}

// Types

// Type registers inner and returns its handle.
func (b *Builder) Type(inner TypeInner) TypeHandle {
	return b.module.Types.Intern("", inner)
}

// Scalar returns the handle of a scalar type.
func (b *Builder) Scalar(s ScalarType) TypeHandle {
	return b.Type(s)
}

// Vector returns the handle of a vector type.
func (b *Builder) Vector(size VectorSize, s ScalarType) TypeHandle {
	return b.Type(VectorType{Size: size, Scalar: s})
}

// Matrix returns the handle of a float matrix type.
func (b *Builder) Matrix(columns, rows VectorSize) TypeHandle {
	return b.Type(MatrixType{Columns: columns, Rows: rows, Scalar: F32})
}

// Array returns the handle of a fixed-size array type.
func (b *Builder) Array(base TypeHandle, size uint32) TypeHandle {
	return b.Type(ArrayType{Base: base, Size: size})
}

// Opaque returns the handle of an opaque type such as sampler2D.
func (b *Builder) Opaque(name string) TypeHandle {
	return b.module.Types.Intern(name, OpaqueType{Name: name})
}

// Struct interns a struct type by name. Declaring the same name again with
// identical members returns the existing handle; different members fail
// with diag.TypeMismatch.
func (b *Builder) Struct(name string, members ...StructMember) (TypeHandle, error) {
	st := StructType{Name: name, Members: members}
	if existing, ok := b.structs[name]; ok {
		prev, _ := b.module.Types.Inner(existing).(StructType)
		if !sameMembers(prev.Members, members) {
			return NoType, diag.New(diag.TypeMismatch, "struct %s redeclared with different members", name).WithResource(name)
		}
		return existing, nil
	}
	h := b.module.Types.Intern(name, st)
	b.structs[name] = h
	return h, nil
}

func sameMembers(a, b []StructMember) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Values

// add appends a value, inferring its type when typ is NoType.
func (b *Builder) add(kind ValueKind, typ TypeHandle) ValueHandle {
	if typ == NoType {
		typ = b.infer(kind)
	}
	h := ValueHandle(len(b.module.Values)) //nolint:gosec // G115: arena size fits in uint32
	b.module.Values = append(b.module.Values, Value{Kind: kind, Type: typ})
	return h
}

func (b *Builder) infer(kind ValueKind) TypeHandle {
	res, err := ResolveValueType(b.module, kind)
	if err != nil {
		return NoType
	}
	if res.Handle != nil {
		return *res.Handle
	}
	return b.Type(res.Value)
}

// TypeOf returns the recorded type of a value.
func (b *Builder) TypeOf(v ValueHandle) TypeHandle {
	if val, ok := b.module.Value(v); ok {
		return val.Type
	}
	return NoType
}

// Named sets the identifier hint of v and returns it.
func (b *Builder) Named(v ValueHandle, name string) ValueHandle {
	if int(v) < len(b.module.Values) {
		b.module.Values[v].Name = name
	}
	return v
}

// Float creates a 32-bit float literal.
func (b *Builder) Float(f float32) ValueHandle {
	return b.add(Literal{Value: LiteralF32(f)}, NoType)
}

// Double creates a 64-bit float literal.
func (b *Builder) Double(f float64) ValueHandle {
	return b.add(Literal{Value: LiteralF64(f)}, NoType)
}

// Int creates a signed integer literal.
func (b *Builder) Int(i int32) ValueHandle {
	return b.add(Literal{Value: LiteralI32(i)}, NoType)
}

// Uint creates an unsigned integer literal.
func (b *Builder) Uint(u uint32) ValueHandle {
	return b.add(Literal{Value: LiteralU32(u)}, NoType)
}

// BoolLiteral creates a boolean literal.
func (b *Builder) BoolLiteral(v bool) ValueHandle {
	return b.add(Literal{Value: LiteralBool(v)}, NoType)
}

// Identifier creates a reference to a named entity of the given type.
func (b *Builder) Identifier(name string, typ TypeHandle) ValueHandle {
	return b.add(ExprIdentifier{Name: name}, typ)
}

// Unary applies op to v.
func (b *Builder) Unary(op UnaryOperator, v ValueHandle) ValueHandle {
	return b.add(ExprUnary{Op: op, Expr: v}, NoType)
}

// Negate creates -v.
func (b *Builder) Negate(v ValueHandle) ValueHandle { return b.Unary(UnaryNegate, v) }

// Not creates !v.
func (b *Builder) Not(v ValueHandle) ValueHandle { return b.Unary(UnaryLogicalNot, v) }

// Binary applies op to left and right.
func (b *Builder) Binary(op BinaryOperator, left, right ValueHandle) ValueHandle {
	return b.add(ExprBinary{Op: op, Left: left, Right: right}, NoType)
}

func (b *Builder) Add(l, r ValueHandle) ValueHandle  { return b.Binary(BinaryAdd, l, r) }
func (b *Builder) Sub(l, r ValueHandle) ValueHandle  { return b.Binary(BinarySubtract, l, r) }
func (b *Builder) Mul(l, r ValueHandle) ValueHandle  { return b.Binary(BinaryMultiply, l, r) }
func (b *Builder) Div(l, r ValueHandle) ValueHandle  { return b.Binary(BinaryDivide, l, r) }
func (b *Builder) Less(l, r ValueHandle) ValueHandle { return b.Binary(BinaryLess, l, r) }
func (b *Builder) Eq(l, r ValueHandle) ValueHandle   { return b.Binary(BinaryEqual, l, r) }

// Member accesses a struct member or swizzles a vector.
func (b *Builder) Member(base ValueHandle, member string) ValueHandle {
	return b.add(ExprMember{Base: base, Member: member}, NoType)
}

// MemberTyped accesses a member whose type the inferencer cannot see, such
// as a field of a resource block declared as text.
func (b *Builder) MemberTyped(base ValueHandle, member string, typ TypeHandle) ValueHandle {
	return b.add(ExprMember{Base: base, Member: member}, typ)
}

// Index indexes into an array, vector or matrix.
func (b *Builder) Index(base, index ValueHandle) ValueHandle {
	return b.add(ExprAccess{Base: base, Index: index}, NoType)
}

// Select creates cond ? accept : reject.
func (b *Builder) Select(cond, accept, reject ValueHandle) ValueHandle {
	return b.add(ExprSelect{Condition: cond, Accept: accept, Reject: reject}, NoType)
}

// Call creates the result of calling fn.
func (b *Builder) Call(fn FunctionHandle, args ...ValueHandle) ValueHandle {
	return b.add(ExprCall{Function: fn, Arguments: cloneHandles(args)}, NoType)
}

// Builtin calls a built-in function, inferring its type where known.
func (b *Builder) Builtin(name string, args ...ValueHandle) ValueHandle {
	return b.add(ExprBuiltin{Name: name, Arguments: cloneHandles(args)}, NoType)
}

// BuiltinTyped calls a built-in function with an explicit result type.
func (b *Builder) BuiltinTyped(name string, typ TypeHandle, args ...ValueHandle) ValueHandle {
	return b.add(ExprBuiltin{Name: name, Arguments: cloneHandles(args)}, typ)
}

// Capability reads a capability as a value of type typ.
func (b *Builder) Capability(name string, typ TypeHandle) ValueHandle {
	return b.add(ExprCapability{Capability: name}, typ)
}

// RuntimeConstant reads a runtime constant.
func (b *Builder) RuntimeConstant(c rtconst.Constant) ValueHandle {
	return b.add(ExprRuntimeConstant{Constant: c}, NoType)
}

// Compose constructs a value of type typ from components.
//
// Vectors and matrices accept a single scalar, a single value with at least
// as many components, or components whose scalar counts sum exactly to the
// target's. Structs and arrays need one component per member or element.
func (b *Builder) Compose(typ TypeHandle, components ...ValueHandle) (ValueHandle, error) {
	if err := b.checkCompose(typ, components); err != nil {
		return 0, err
	}
	return b.add(ExprCompose{Type: typ, Components: cloneHandles(components)}, typ), nil
}

// Cast converts v to typ.
func (b *Builder) Cast(typ TypeHandle, v ValueHandle) (ValueHandle, error) {
	target := b.module.Types.Inner(typ)
	source := b.module.Types.Inner(b.TypeOf(v))
	if target == nil {
		return 0, diag.New(diag.TypeMismatch, "cast to unknown type %d", typ)
	}
	if source != nil {
		tc, sc := componentCount(target), componentCount(source)
		if tc == 0 || sc == 0 {
			return 0, diag.New(diag.TypeMismatch, "cannot cast %s to %s", describe(source), describe(target))
		}
		_, tm := target.(MatrixType)
		_, sm := source.(MatrixType)
		if tc != sc && sc != 1 || tm != sm && sc != 1 {
			return 0, diag.New(diag.TypeMismatch, "cannot cast %s to %s", describe(source), describe(target))
		}
	}
	return b.add(ExprCompose{Type: typ, Components: []ValueHandle{v}}, typ), nil
}

func (b *Builder) checkCompose(typ TypeHandle, components []ValueHandle) error {
	target := b.module.Types.Inner(typ)
	if target == nil {
		return diag.New(diag.TypeMismatch, "construct unknown type %d", typ)
	}
	for _, c := range components {
		if int(c) >= len(b.module.Values) {
			return diag.New(diag.TypeMismatch, "component %d out of range", c)
		}
	}

	switch t := target.(type) {
	case StructType:
		if len(components) != len(t.Members) {
			return diag.New(diag.TypeMismatch, "struct %s needs %d members, got %d", t.Name, len(t.Members), len(components)).WithResource(t.Name)
		}
		return nil
	case ArrayType:
		if uint32(len(components)) != t.Size { //nolint:gosec // G115: component count is small
			return diag.New(diag.TypeMismatch, "array needs %d elements, got %d", t.Size, len(components))
		}
		return nil
	case OpaqueType:
		return diag.New(diag.TypeMismatch, "cannot construct opaque type %s", t.Name)
	}

	want := componentCount(target)
	if len(components) == 0 {
		return diag.New(diag.TypeMismatch, "construct %s from no components", describe(target))
	}

	total := 0
	for _, c := range components {
		inner := b.module.Types.Inner(b.module.Values[c].Type)
		if inner == nil {
			// Untyped components cannot be counted; defer to the target compiler.
			return nil
		}
		n := componentCount(inner)
		if n == 0 {
			return diag.New(diag.TypeMismatch, "construct %s from %s", describe(target), describe(inner))
		}
		total += n
	}

	if len(components) == 1 && (total == 1 || total >= want) {
		return nil
	}
	if total != want {
		return diag.New(diag.TypeMismatch, "construct %s from %d components, need %d", describe(target), total, want)
	}
	return nil
}

// describe returns a short readable name for a type used in error messages.
func describe(inner TypeInner) string {
	switch t := inner.(type) {
	case ScalarType:
		return scalarName(t)
	case VectorType:
		return fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
	case MatrixType:
		return fmt.Sprintf("mat%dx%d", t.Columns, t.Rows)
	case ArrayType:
		return fmt.Sprintf("array[%d]", t.Size)
	case StructType:
		return "struct " + t.Name
	case OpaqueType:
		return t.Name
	default:
		return "unknown"
	}
}

func scalarName(s ScalarType) string {
	switch s.Kind {
	case ScalarSint:
		return "i32"
	case ScalarUint:
		return "u32"
	case ScalarBool:
		return "bool"
	default:
		if s.Width == 8 {
			return "f64"
		}
		return "f32"
	}
}

// Functions and blocks

// Function interns a function by name. When a function with that name
// already exists its handle is returned with created == false, and the
// caller must not build its body again.
func (b *Builder) Function(name string, result TypeHandle, args ...FunctionArgument) (FunctionHandle, bool) {
	if h, ok := b.functions[name]; ok {
		return h, false
	}
	body := b.NewBlock()
	h := FunctionHandle(len(b.module.Functions)) //nolint:gosec // G115: function count fits in uint32
	b.module.Functions = append(b.module.Functions, Function{
		Name:      name,
		Arguments: append([]FunctionArgument(nil), args...),
		Result:    result,
		Body:      body,
	})
	b.functions[name] = h
	return h, true
}

// LookupFunction returns the handle of a previously declared function.
func (b *Builder) LookupFunction(name string) (FunctionHandle, bool) {
	h, ok := b.functions[name]
	return h, ok
}

// Argument returns an identifier value for argument i of fn.
func (b *Builder) Argument(fn FunctionHandle, i int) ValueHandle {
	f := &b.module.Functions[fn]
	arg := f.Arguments[i]
	return b.Identifier(arg.Name, arg.Type)
}

// NewBlock allocates an empty block.
func (b *Builder) NewBlock() BlockHandle {
	h := BlockHandle(len(b.module.Blocks)) //nolint:gosec // G115: block count fits in uint32
	b.module.Blocks = append(b.module.Blocks, Block{})
	return h
}

// StartFunction makes fn's body the current block.
func (b *Builder) StartFunction(fn FunctionHandle) {
	b.StartBlock(b.module.Functions[fn].Body)
}

// StartBlock pushes block onto the block stack.
func (b *Builder) StartBlock(block BlockHandle) {
	b.blocks = append(b.blocks, block)
}

// EndBlock pops the current block.
func (b *Builder) EndBlock() {
	if len(b.blocks) == 0 {
		panic("ir: EndBlock without matching StartBlock")
	}
	b.blocks = b.blocks[:len(b.blocks)-1]
}

// Depth returns the number of open blocks.
func (b *Builder) Depth() int {
	return len(b.blocks)
}

func (b *Builder) emit(kind StatementKind) {
	if len(b.blocks) == 0 {
		panic("ir: statement outside of a block")
	}
	cur := b.blocks[len(b.blocks)-1]
	b.module.Blocks[cur] = append(b.module.Blocks[cur], Statement{Kind: kind})
}

// Local declares a local variable in the current block and returns the
// identifier value referring to it.
func (b *Builder) Local(name string, typ TypeHandle) ValueHandle {
	v := b.Identifier(name, typ)
	b.emit(StmtLocal{Variable: v, Type: typ})
	return v
}

// LocalInit declares a local variable initialized with init.
func (b *Builder) LocalInit(name string, init ValueHandle) ValueHandle {
	typ := b.TypeOf(init)
	v := b.Identifier(name, typ)
	b.emit(StmtLocal{Variable: v, Type: typ, Init: &init})
	return v
}

// Assign stores value into target.
func (b *Builder) Assign(target, value ValueHandle) {
	b.emit(StmtAssign{Target: target, Value: value})
}

// CallStatement calls fn for its side effects.
func (b *Builder) CallStatement(fn FunctionHandle, args ...ValueHandle) {
	b.emit(StmtCall{Function: fn, Arguments: cloneHandles(args)})
}

// Return returns v from the current function.
func (b *Builder) Return(v ValueHandle) {
	b.emit(StmtReturn{Value: &v})
}

// ReturnVoid returns from a void function.
func (b *Builder) ReturnVoid() {
	b.emit(StmtReturn{})
}

// Discard aborts the fragment invocation.
func (b *Builder) Discard() {
	b.emit(StmtDiscard{})
}

// If appends an if statement to the current block and returns its accept
// and reject blocks. Enter them with StartBlock.
func (b *Builder) If(cond ValueHandle) (accept, reject BlockHandle) {
	accept = b.NewBlock()
	reject = b.NewBlock()
	b.emit(StmtIf{Condition: cond, Accept: accept, Reject: reject})
	return accept, reject
}

// cloneHandles copies a caller's variadic slice so built values stay
// immutable.
func cloneHandles(hs []ValueHandle) []ValueHandle {
	return append([]ValueHandle(nil), hs...)
}
