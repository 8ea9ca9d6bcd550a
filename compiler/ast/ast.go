package ast

type (
	// Node is any syntax tree node. Program declarations hold
	// *Func values and top-level statements side by side.
	Node interface{}

	// Expr and Stmt are closed unions: only the types in this
	// package implement them, so switches can be exhaustive.
	Expr interface {
		Node
		expr()
	}

	Stmt interface {
		Node
		stmt()
	}

	Type int

	Program struct {
		Decls []Node
	}

	Number struct {
		Value string
		Line  int
	}

	Bool struct {
		Value bool
		Line  int
	}

	String struct {
		Value string
		Line  int
	}

	Var struct {
		Name string
		Line int
	}

	Unary struct {
		Op   string
		Expr Expr
		Line int
	}

	Binary struct {
		Op          string
		Left, Right Expr
		Line        int
	}

	Call struct {
		Name string
		Args []Expr
		Line int
	}

	VarDecl struct {
		Type Type
		Name string
		Init Expr // nil means default value
		Line int
	}

	Assign struct {
		Name  string
		Value Expr
		Line  int
	}

	Print struct {
		Expr Expr
		Line int
	}

	CallStmt struct {
		Name string
		Args []Expr
		Line int
	}

	Return struct {
		Value Expr // nil for a void return
		Line  int
	}

	Input struct {
		Name string
		Line int
	}

	NewlineStmt struct {
		Line int
	}

	If struct {
		Cond Expr
		Then *Block
		Else *Block // nil if absent
		Line int
	}

	While struct {
		Cond  Expr
		Block *Block
		Line  int
	}

	For struct {
		Var        string
		Start, End Expr
		Block      *Block
		Line       int
	}

	Block struct {
		Stmts []Stmt
	}

	Param struct {
		Type Type
		Name string
	}

	Func struct {
		Name   string
		Params []Param
		Body   *Block
		Line   int
	}
)

const (
	Unknown Type = iota
	Int
	BoolType
	StringType
	Void
)

func (Number) expr() {}
func (Bool) expr()   {}
func (String) expr() {}
func (Var) expr()    {}
func (Unary) expr()  {}
func (Binary) expr() {}
func (*Call) expr()  {}

func (VarDecl) stmt()     {}
func (Assign) stmt()      {}
func (Print) stmt()       {}
func (*CallStmt) stmt()   {}
func (Return) stmt()      {}
func (Input) stmt()       {}
func (NewlineStmt) stmt() {}
func (*If) stmt()         {}
func (*While) stmt()      {}
func (*For) stmt()        {}
func (*Block) stmt()      {}

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case BoolType:
		return "bool"
	case StringType:
		return "string"
	case Void:
		return "void"
	default:
		return "unknown"
	}
}
