// Package ir defines the flat three-address-code form shared by the
// lowering, optimization, and code generation stages. A program is an
// ordered []Instr; all structure (function extents, loops, branches)
// is encoded through label instructions only.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op string

	Kind uint8

	// Operand is a tagged value slot: an integer, boolean, or text
	// literal, a user variable, or a compiler temporary. The zero
	// Operand means "absent".
	Operand struct {
		Kind Kind

		Int  int64
		Bool bool
		Text string // text literal or variable name
		Temp int
	}

	Instr struct {
		Op   Op
		A, B Operand
		Dst  Operand

		// Name is the label name for OpLabel, the jump target for
		// OpGoto/OpIfFalse, and the callee for OpCall.
		Name string

		Args []Operand // call arguments, in source order
	}
)

const (
	None Kind = iota
	IntLit
	BoolLit
	TextLit
	Var
	TempVar
)

const (
	OpLabel   Op = "label"
	OpAssign  Op = "assign"
	OpPrint   Op = "print"
	OpNewline Op = "newline"
	OpCall    Op = "call"
	OpReturn  Op = "return"
	OpGoto    Op = "goto"
	OpIfFalse Op = "ifFalse"

	// arithmetic, relational, and logical operators keep their
	// source symbol as the op tag
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	OpLt  Op = "<"
	OpGt  Op = ">"
	OpLeq Op = "<="
	OpGeq Op = ">="
	OpEq  Op = "=="
	OpNeq Op = "!="
	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpNot Op = "!"
)

// Function extent markers. The code generator recovers function
// boundaries by scanning for these exact label texts.
const (
	FuncPrefix    = "func_"
	EndFuncPrefix = "endfunc_"
)

func Int(v int64) Operand      { return Operand{Kind: IntLit, Int: v} }
func Bool(v bool) Operand      { return Operand{Kind: BoolLit, Bool: v} }
func Text(s string) Operand    { return Operand{Kind: TextLit, Text: s} }
func Name(name string) Operand { return Operand{Kind: Var, Text: name} }
func Temp(id int) Operand      { return Operand{Kind: TempVar, Temp: id} }

func FuncLabel(name string) string    { return FuncPrefix + name }
func EndFuncLabel(name string) string { return EndFuncPrefix + name }

func (i Instr) IsLabel() bool {
	return i.Op == OpLabel
}

func (i Instr) IsFuncLabel() bool {
	return i.Op == OpLabel && strings.HasPrefix(i.Name, FuncPrefix)
}

func (i Instr) IsEndFuncLabel() bool {
	return i.Op == OpLabel && strings.HasPrefix(i.Name, EndFuncPrefix)
}

// FuncName returns the function name embedded in a func_/endfunc_
// marker, or "" for plain labels.
func (i Instr) FuncName() string {
	switch {
	case i.IsEndFuncLabel():
		return i.Name[len(EndFuncPrefix):]
	case i.IsFuncLabel():
		return i.Name[len(FuncPrefix):]
	default:
		return ""
	}
}

// Arith reports whether op is a pure arithmetic, relational, or
// logical operator: no side effects, safe for folding and removal.
func (op Op) Arith() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpLt, OpGt, OpLeq, OpGeq, OpEq, OpNeq,
		OpAnd, OpOr, OpNot:
		return true
	}

	return false
}

func (o Operand) None() bool {
	return o.Kind == None
}

func (o Operand) IsTemp() bool {
	return o.Kind == TempVar
}

func (o Operand) IsLiteral() bool {
	return o.Kind == IntLit || o.Kind == BoolLit || o.Kind == TextLit
}

func (o Operand) String() string {
	switch o.Kind {
	case None:
		return ""
	case IntLit:
		return strconv.FormatInt(o.Int, 10)
	case BoolLit:
		if o.Bool {
			return "true"
		}

		return "false"
	case TextLit:
		return strconv.Quote(o.Text)
	case Var:
		return o.Text
	case TempVar:
		return fmt.Sprintf("t%d", o.Temp)
	default:
		panic(o.Kind)
	}
}

// String renders one listing line of the diagnostic TAC dump.
func (i Instr) String() string {
	switch i.Op {
	case OpLabel:
		return i.Name + ":"
	case OpAssign:
		return fmt.Sprintf("%v = %v", i.Dst, i.A)
	case OpPrint:
		return fmt.Sprintf("print %v", i.A)
	case OpNewline:
		return "newline"
	case OpCall:
		var sb strings.Builder

		if !i.Dst.None() {
			fmt.Fprintf(&sb, "%v = ", i.Dst)
		}

		fmt.Fprintf(&sb, "call %v", i.Name)

		for _, a := range i.Args {
			fmt.Fprintf(&sb, ", %v", a)
		}

		return sb.String()
	case OpReturn:
		if i.A.None() {
			return "return"
		}

		return fmt.Sprintf("return %v", i.A)
	case OpGoto:
		return "goto " + i.Name
	case OpIfFalse:
		return fmt.Sprintf("ifFalse %v goto %v", i.A, i.Name)
	}

	if !i.B.None() {
		return fmt.Sprintf("%v = %v %v %v", i.Dst, i.A, i.Op, i.B)
	}

	return fmt.Sprintf("%v = %v %v", i.Dst, i.Op, i.A)
}

// Dump appends a human-readable listing of the instruction sequence.
// It is a diagnostic side channel, not meant for reparsing.
func Dump(b []byte, code []Instr) []byte {
	for _, t := range code {
		b = append(b, t.String()...)
		b = append(b, '\n')
	}

	return b
}

func (i Instr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, -1)

	b = e.AppendKeyString(b, "op", string(i.Op))

	if !i.Dst.None() {
		b = e.AppendKeyString(b, "dst", i.Dst.String())
	}

	if !i.A.None() {
		b = e.AppendKeyString(b, "a", i.A.String())
	}

	if !i.B.None() {
		b = e.AppendKeyString(b, "b", i.B.String())
	}

	if i.Name != "" {
		b = e.AppendKeyString(b, "name", i.Name)
	}

	for j, a := range i.Args {
		b = e.AppendKeyString(b, "arg"+strconv.Itoa(j), a.String())
	}

	b = e.AppendBreak(b)

	return b
}
