// Package interp executes a checked syntax tree directly. It is an
// alternate execution path that never touches the instruction list:
// values live in a stack of scopes and user functions are walked on
// call.
package interp

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ast"
)

type (
	Kind uint8

	// Value is a runtime value. The zero Value is the integer 0,
	// which is also what a function without an explicit return
	// produces.
	Value struct {
		Kind Kind

		Int  int64
		Bool bool
		Text string
	}

	Interpreter struct {
		env   []map[string]Value
		funcs map[string]*ast.Func

		out io.Writer
		in  *bufio.Scanner
	}
)

const (
	Int Kind = iota
	Bool
	Text
)

func IntVal(v int64) Value   { return Value{Kind: Int, Int: v} }
func BoolVal(v bool) Value   { return Value{Kind: Bool, Bool: v} }
func TextVal(s string) Value { return Value{Kind: Text, Text: s} }

func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Bool:
		if v.Bool {
			return "true"
		}

		return "false"
	default:
		return v.Text
	}
}

func New(out io.Writer, in io.Reader) *Interpreter {
	return &Interpreter{
		env:   []map[string]Value{{}},
		funcs: map[string]*ast.Func{},
		out:   out,
		in:    bufio.NewScanner(in),
	}
}

// Run registers functions, initializes globals, then executes the
// top-level statements in order.
func (p *Interpreter) Run(ctx context.Context, prog *ast.Program) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "interpret")
	defer tr.Finish("err", &err)

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.Func:
			p.funcs[d.Name] = d
		case ast.VarDecl:
			v, err := p.declValue(d)
			if err != nil {
				return err
			}

			p.env[0][d.Name] = v
		}
	}

	for _, d := range prog.Decls {
		s, ok := d.(ast.Stmt)
		if !ok {
			continue
		}

		if _, ok := s.(ast.VarDecl); ok {
			continue // already initialized
		}

		_, err = p.stmt(s)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Interpreter) declValue(d ast.VarDecl) (Value, error) {
	if d.Init != nil {
		return p.eval(d.Init)
	}

	switch d.Type {
	case ast.Int:
		return IntVal(0), nil
	case ast.BoolType:
		return BoolVal(false), nil
	default:
		return TextVal(""), nil
	}
}

// stmt executes one statement. A non-nil first return value means a
// return statement fired and is propagating out of the enclosing
// function call.
func (p *Interpreter) stmt(s ast.Stmt) (*Value, error) {
	switch s := s.(type) {
	case ast.VarDecl:
		v, err := p.declValue(s)
		if err != nil {
			return nil, err
		}

		p.env[len(p.env)-1][s.Name] = v
	case ast.Assign:
		v, err := p.eval(s.Value)
		if err != nil {
			return nil, err
		}

		p.setVar(s.Name, v)
	case ast.Print:
		v, err := p.eval(s.Expr)
		if err != nil {
			return nil, err
		}

		io.WriteString(p.out, v.String())
	case ast.NewlineStmt:
		io.WriteString(p.out, "\n")
	case ast.Input:
		p.input(s.Name)
	case ast.Return:
		if s.Value == nil {
			return &Value{}, nil
		}

		v, err := p.eval(s.Value)
		if err != nil {
			return nil, err
		}

		return &v, nil
	case *ast.For:
		return p.forStmt(s)
	case *ast.While:
		return p.whileStmt(s)
	case *ast.If:
		return p.ifStmt(s)
	case *ast.Block:
		return p.block(s)
	case *ast.CallStmt:
		_, err := p.call(s.Name, s.Args)
		return nil, err
	}

	return nil, nil
}

func (p *Interpreter) block(b *ast.Block) (*Value, error) {
	if b == nil {
		return nil, nil
	}

	p.env = append(p.env, map[string]Value{})
	defer func() { p.env = p.env[:len(p.env)-1] }()

	for _, s := range b.Stmts {
		ret, err := p.stmt(s)
		if ret != nil || err != nil {
			return ret, err
		}
	}

	return nil, nil
}

// forStmt evaluates the bounds once, then iterates the loop variable
// from start to end inclusive.
func (p *Interpreter) forStmt(s *ast.For) (*Value, error) {
	cur := p.env[len(p.env)-1]
	if _, ok := cur[s.Var]; !ok {
		cur[s.Var] = IntVal(0)
	}

	start, err := p.eval(s.Start)
	if err != nil {
		return nil, err
	}

	end, err := p.eval(s.End)
	if err != nil {
		return nil, err
	}

	for i := start.Int; i <= end.Int; i++ {
		p.setVar(s.Var, IntVal(i))

		ret, err := p.block(s.Block)
		if ret != nil || err != nil {
			return ret, err
		}
	}

	return nil, nil
}

func (p *Interpreter) whileStmt(s *ast.While) (*Value, error) {
	for {
		c, err := p.eval(s.Cond)
		if err != nil {
			return nil, err
		}

		if !c.Bool {
			return nil, nil
		}

		ret, err := p.block(s.Block)
		if ret != nil || err != nil {
			return ret, err
		}
	}
}

func (p *Interpreter) ifStmt(s *ast.If) (*Value, error) {
	c, err := p.eval(s.Cond)
	if err != nil {
		return nil, err
	}

	if c.Bool {
		return p.block(s.Then)
	}

	if s.Else != nil {
		return p.block(s.Else)
	}

	return nil, nil
}

func (p *Interpreter) eval(e ast.Expr) (Value, error) {
	switch e := e.(type) {
	case nil:
		return Value{}, nil
	case ast.Number:
		v, err := strconv.ParseInt(e.Value, 10, 64)
		if err != nil {
			return Value{}, errors.New("bad number literal %q", e.Value)
		}

		return IntVal(v), nil
	case ast.Bool:
		return BoolVal(e.Value), nil
	case ast.String:
		return TextVal(e.Value), nil
	case ast.Var:
		return p.getVar(e.Name)
	case *ast.Call:
		return p.call(e.Name, e.Args)
	case ast.Unary:
		sub, err := p.eval(e.Expr)
		if err != nil {
			return Value{}, err
		}

		switch e.Op {
		case "!":
			return BoolVal(!sub.Bool), nil
		case "-":
			return IntVal(-sub.Int), nil
		}

		return Value{}, errors.New("unsupported unary operator %q", e.Op)
	case ast.Binary:
		l, err := p.eval(e.Left)
		if err != nil {
			return Value{}, err
		}

		r, err := p.eval(e.Right)
		if err != nil {
			return Value{}, err
		}

		return binary(e.Op, l, r)
	default:
		return Value{}, nil
	}
}

func binary(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		// text on either side turns + into concatenation of printed forms
		if l.Kind == Text || r.Kind == Text {
			return TextVal(l.String() + r.String()), nil
		}

		return IntVal(l.Int + r.Int), nil
	case "-":
		return IntVal(l.Int - r.Int), nil
	case "*":
		return IntVal(l.Int * r.Int), nil
	case "/":
		if r.Int == 0 {
			return Value{}, errors.New("division by zero")
		}

		return IntVal(l.Int / r.Int), nil
	case "%":
		if r.Int == 0 {
			return Value{}, errors.New("modulo by zero")
		}

		return IntVal(l.Int % r.Int), nil
	case "==":
		// printed forms compare, so mixed kinds are allowed
		return BoolVal(l.String() == r.String()), nil
	case "!=":
		return BoolVal(l.String() != r.String()), nil
	case "<":
		return BoolVal(l.Int < r.Int), nil
	case ">":
		return BoolVal(l.Int > r.Int), nil
	case "<=":
		return BoolVal(l.Int <= r.Int), nil
	case ">=":
		return BoolVal(l.Int >= r.Int), nil
	case "&&":
		return BoolVal(l.Bool && r.Bool), nil
	case "||":
		return BoolVal(l.Bool || r.Bool), nil
	}

	return Value{}, errors.New("unsupported operator %q", op)
}

// call runs a user function if one is defined under the name, falling
// back to the built-in implementations otherwise.
func (p *Interpreter) call(name string, args []ast.Expr) (Value, error) {
	vals := make([]Value, len(args))

	for i, a := range args {
		v, err := p.eval(a)
		if err != nil {
			return Value{}, err
		}

		vals[i] = v
	}

	f, ok := p.funcs[name]
	if !ok {
		return p.builtin(name, vals)
	}

	p.env = append(p.env, map[string]Value{})
	defer func() { p.env = p.env[:len(p.env)-1] }()

	scope := p.env[len(p.env)-1]

	for i, prm := range f.Params {
		if i < len(vals) {
			scope[prm.Name] = vals[i]
			continue
		}

		switch prm.Type {
		case ast.BoolType:
			scope[prm.Name] = BoolVal(false)
		case ast.StringType:
			scope[prm.Name] = TextVal("")
		default:
			scope[prm.Name] = IntVal(0)
		}
	}

	if f.Body != nil {
		for _, s := range f.Body.Stmts {
			ret, err := p.stmt(s)
			if err != nil {
				return Value{}, err
			}

			if ret != nil {
				return *ret, nil
			}
		}
	}

	return Value{}, nil
}

func (p *Interpreter) setVar(name string, v Value) {
	for i := len(p.env) - 1; i >= 0; i-- {
		if _, ok := p.env[i][name]; ok {
			p.env[i][name] = v
			return
		}
	}

	p.env[len(p.env)-1][name] = v
}

func (p *Interpreter) getVar(name string) (Value, error) {
	for i := len(p.env) - 1; i >= 0; i-- {
		if v, ok := p.env[i][name]; ok {
			return v, nil
		}
	}

	return Value{}, errors.New("use of undeclared variable %q", name)
}

// input reads one line and stores it into the variable, coerced to
// the variable's current kind when it already exists.
func (p *Interpreter) input(name string) {
	line := ""
	if p.in.Scan() {
		line = p.in.Text()
	}

	cur, err := p.getVar(name)
	if err != nil {
		p.setVar(name, TextVal(line))
		return
	}

	switch cur.Kind {
	case Int:
		x, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			x = 0
		}

		p.setVar(name, IntVal(x))
	case Bool:
		p.setVar(name, BoolVal(line == "true"))
	default:
		p.setVar(name, TextVal(line))
	}
}
