package ir

// Statement represents a statement in the IR.
// Statements have side effects and structured control flow, but do not produce values.
type Statement struct {
	Kind StatementKind
}

// StatementKind represents the different kinds of statements.
type StatementKind interface {
	statementKind()
}

// Block represents a sequence of statements executed in order.
type Block []Statement

// StmtLocal declares a function-local variable. Variable is the identifier
// value other statements use to refer to it.
type StmtLocal struct {
	Variable ValueHandle
	Type     TypeHandle
	Init     *ValueHandle
}

func (StmtLocal) statementKind() {}

// StmtAssign stores Value into Target, which must be an identifier, member
// access or index access.
type StmtAssign struct {
	Target ValueHandle
	Value  ValueHandle
}

func (StmtAssign) statementKind() {}

// StmtCall calls a function for its side effects.
type StmtCall struct {
	Function  FunctionHandle
	Arguments []ValueHandle
}

func (StmtCall) statementKind() {}

// StmtReturn returns from the function, possibly with a value.
type StmtReturn struct {
	Value *ValueHandle
}

func (StmtReturn) statementKind() {}

// StmtIf conditionally executes one of two blocks based on the condition value.
// An empty Reject block emits no else branch.
type StmtIf struct {
	Condition ValueHandle // Must be a bool value
	Accept    BlockHandle
	Reject    BlockHandle
}

func (StmtIf) statementKind() {}

// StmtDiscard aborts the current fragment invocation.
type StmtDiscard struct{}

func (StmtDiscard) statementKind() {}
