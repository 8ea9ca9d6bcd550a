package analyze

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ast"
)

type (
	Analyzer struct {
		symtab *SymTab

		inFunction bool
		returnType ast.Type
	}
)

// Builtins are the pattern and math routines available without
// declaration. A user function of the same name shadows the builtin.
var Builtins = map[string]*Symbol{
	"repeat":          builtin(ast.StringType, ast.StringType, ast.Int),
	"pyramid":         builtin(ast.Void, ast.Int),
	"diamond":         builtin(ast.Void, ast.Int),
	"line":            builtin(ast.Void, ast.StringType, ast.Int),
	"box":             builtin(ast.Void, ast.StringType, ast.Int, ast.Int),
	"stairs":          builtin(ast.Void, ast.Int, ast.StringType),
	"max":             builtin(ast.Int, ast.Int, ast.Int),
	"min":             builtin(ast.Int, ast.Int, ast.Int),
	"abs":             builtin(ast.Int, ast.Int),
	"pow":             builtin(ast.Int, ast.Int, ast.Int),
	"sqrt":            builtin(ast.Int, ast.Int),
	"rangeSum":        builtin(ast.Int, ast.Int),
	"factor":          builtin(ast.Void, ast.Int),
	"isPrime":         builtin(ast.BoolType, ast.Int),
	"table":           builtin(ast.Void, ast.Int),
	"patternMultiply": builtin(ast.Void, ast.Int, ast.Int),
}

func builtin(ret ast.Type, params ...ast.Type) *Symbol {
	return &Symbol{IsFunction: true, IsBuiltin: true, ParamTypes: params, ReturnType: ret}
}

func New() *Analyzer {
	return &Analyzer{symtab: NewSymTab()}
}

// Analyze type-checks the program. It assumes nothing downstream:
// the IR generator and code generator rely on the tree it approves
// being well typed.
func (a *Analyzer) Analyze(ctx context.Context, prog *ast.Program) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze")
	defer tr.Finish("err", &err)

	// first pass: function signatures and globals
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.Func:
			sym := &Symbol{Name: d.Name, IsFunction: true, ReturnType: ast.Unknown}

			for _, p := range d.Params {
				sym.ParamTypes = append(sym.ParamTypes, p.Type)
			}

			if !a.symtab.InsertGlobal(sym) {
				return errors.New("line %d: redefinition of function %q", d.Line, d.Name)
			}
		case ast.VarDecl:
			if d.Type == ast.Unknown {
				return errors.New("line %d: unknown type for variable %q", d.Line, d.Name)
			}

			if !a.symtab.Insert(&Symbol{Name: d.Name, Type: d.Type}) {
				return errors.New("line %d: redefinition of variable %q", d.Line, d.Name)
			}
		}
	}

	// second pass: bodies and top-level statements
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.Func:
			err = a.funcDecl(d)
		case ast.VarDecl:
			if d.Init == nil {
				continue
			}

			var rt ast.Type

			rt, err = a.expr(d.Init)
			if err == nil && rt != d.Type {
				err = errors.New("line %d: type mismatch in initialization of %q: expected %v but got %v", d.Line, d.Name, d.Type, rt)
			}
		case ast.Stmt:
			err = a.stmt(d)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (a *Analyzer) expr(e ast.Expr) (ast.Type, error) {
	switch e := e.(type) {
	case ast.Number:
		return ast.Int, nil
	case ast.Bool:
		return ast.BoolType, nil
	case ast.String:
		return ast.StringType, nil
	case ast.Var:
		sym := a.symtab.Lookup(e.Name)
		if sym == nil {
			return ast.Unknown, errors.New("line %d: use of undeclared variable %q", e.Line, e.Name)
		}

		if sym.IsFunction {
			return ast.Unknown, errors.New("line %d: %q is a function, not a variable", e.Line, e.Name)
		}

		return sym.Type, nil
	case *ast.Call:
		return a.call(e)
	case ast.Unary:
		sub, err := a.expr(e.Expr)
		if err != nil {
			return ast.Unknown, err
		}

		switch e.Op {
		case "!":
			if sub != ast.BoolType {
				return ast.Unknown, errors.New("line %d: operator '!' requires bool operand", e.Line)
			}

			return ast.BoolType, nil
		case "-":
			if sub != ast.Int {
				return ast.Unknown, errors.New("line %d: unary '-' requires int operand", e.Line)
			}

			return ast.Int, nil
		}

		return ast.Unknown, nil
	case ast.Binary:
		return a.binary(e)
	default:
		return ast.Unknown, nil
	}
}

func (a *Analyzer) call(e *ast.Call) (ast.Type, error) {
	sym := a.symtab.Lookup(e.Name)
	if sym == nil || !sym.IsFunction {
		return ast.Unknown, errors.New("line %d: call to undeclared function %q", e.Line, e.Name)
	}

	if len(sym.ParamTypes) != len(e.Args) {
		return ast.Unknown, errors.New("line %d: function %q expects %d arguments but got %d", e.Line, e.Name, len(sym.ParamTypes), len(e.Args))
	}

	for i, arg := range e.Args {
		at, err := a.expr(arg)
		if err != nil {
			return ast.Unknown, err
		}

		if at != sym.ParamTypes[i] {
			return ast.Unknown, errors.New("line %d: type mismatch in argument %d of function %q: expected %v but got %v", e.Line, i+1, e.Name, sym.ParamTypes[i], at)
		}
	}

	if sym.ReturnType == ast.Unknown {
		return ast.Int, nil
	}

	return sym.ReturnType, nil
}

func (a *Analyzer) binary(e ast.Binary) (ast.Type, error) {
	l, err := a.expr(e.Left)
	if err != nil {
		return ast.Unknown, err
	}

	r, err := a.expr(e.Right)
	if err != nil {
		return ast.Unknown, err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%":
		if l != ast.Int || r != ast.Int {
			return ast.Unknown, errors.New("line %d: arithmetic operator %q requires integer operands", e.Line, e.Op)
		}

		return ast.Int, nil
	case "==", "!=":
		if l != r {
			return ast.Unknown, errors.New("line %d: equality operator requires operands of same type", e.Line)
		}

		return ast.BoolType, nil
	case "<", ">", "<=", ">=":
		if l != ast.Int || r != ast.Int {
			return ast.Unknown, errors.New("line %d: relational operator %q requires integer operands", e.Line, e.Op)
		}

		return ast.BoolType, nil
	case "&&", "||":
		if l != ast.BoolType || r != ast.BoolType {
			return ast.Unknown, errors.New("line %d: logical operator %q requires boolean operands", e.Line, e.Op)
		}

		return ast.BoolType, nil
	}

	return ast.Unknown, nil
}

func (a *Analyzer) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case ast.VarDecl:
		if s.Type == ast.Unknown {
			return errors.New("line %d: unknown type in declaration of %q", s.Line, s.Name)
		}

		if a.symtab.ExistsInCurrent(s.Name) {
			return errors.New("line %d: redeclaration of variable %q", s.Line, s.Name)
		}

		a.symtab.Insert(&Symbol{Name: s.Name, Type: s.Type})

		if s.Init != nil {
			rt, err := a.expr(s.Init)
			if err != nil {
				return err
			}

			if rt != s.Type {
				return errors.New("line %d: type mismatch in initialization of %q: expected %v but got %v", s.Line, s.Name, s.Type, rt)
			}
		}

		return nil
	case ast.Assign:
		sym := a.symtab.Lookup(s.Name)
		if sym == nil {
			return errors.New("line %d: assignment to undeclared variable %q", s.Line, s.Name)
		}

		if sym.IsFunction {
			return errors.New("line %d: cannot assign to function %q", s.Line, s.Name)
		}

		rt, err := a.expr(s.Value)
		if err != nil {
			return err
		}

		if rt != sym.Type {
			return errors.New("line %d: type mismatch in assignment to %q: expected %v but got %v", s.Line, s.Name, sym.Type, rt)
		}

		return nil
	case ast.Print:
		_, err := a.expr(s.Expr)
		return err
	case *ast.CallStmt:
		_, err := a.call(&ast.Call{Name: s.Name, Args: s.Args, Line: s.Line})
		return err
	case ast.Input:
		if a.symtab.Lookup(s.Name) == nil {
			return errors.New("line %d: input to undeclared variable %q", s.Line, s.Name)
		}

		return nil
	case ast.NewlineStmt:
		return nil
	case ast.Return:
		if !a.inFunction {
			return errors.New("line %d: return statement outside of function", s.Line)
		}

		if s.Value != nil {
			rt, err := a.expr(s.Value)
			if err != nil {
				return err
			}

			if a.returnType != ast.Unknown && rt != a.returnType {
				return errors.New("line %d: return type mismatch: expected %v but got %v", s.Line, a.returnType, rt)
			}
		}

		return nil
	case *ast.For:
		return a.forStmt(s)
	case *ast.While:
		ct, err := a.expr(s.Cond)
		if err != nil {
			return err
		}

		if ct != ast.BoolType {
			return errors.New("line %d: while condition must be boolean", s.Line)
		}

		return a.scoped(s.Block)
	case *ast.If:
		ct, err := a.expr(s.Cond)
		if err != nil {
			return err
		}

		if ct != ast.BoolType {
			return errors.New("line %d: if condition must be boolean", s.Line)
		}

		err = a.scoped(s.Then)
		if err != nil {
			return err
		}

		if s.Else != nil {
			err = a.scoped(s.Else)
		}

		return err
	case *ast.Block:
		return a.scoped(s)
	}

	return nil
}

func (a *Analyzer) scoped(b *ast.Block) error {
	a.symtab.PushScope()
	defer a.symtab.PopScope()

	for _, s := range b.Stmts {
		err := a.stmt(s)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *Analyzer) forStmt(s *ast.For) error {
	if a.symtab.ExistsInCurrent(s.Var) {
		vs := a.symtab.Lookup(s.Var)
		if vs.Type != ast.Int {
			return errors.New("line %d: loop variable %q must be int", s.Line, s.Var)
		}
	} else {
		a.symtab.Insert(&Symbol{Name: s.Var, Type: ast.Int})
	}

	st, err := a.expr(s.Start)
	if err != nil {
		return err
	}

	en, err := a.expr(s.End)
	if err != nil {
		return err
	}

	if st != ast.Int || en != ast.Int {
		return errors.New("line %d: for loop bounds must be integers", s.Line)
	}

	return a.scoped(s.Block)
}

// funcDecl checks a function body and infers its return type from
// the return statements it actually contains: the first typed return
// fixes the type, later ones must agree, none at all means void.
func (a *Analyzer) funcDecl(f *ast.Func) error {
	a.inFunction = true
	a.returnType = ast.Unknown

	defer func() {
		a.inFunction = false
		a.returnType = ast.Void
	}()

	a.symtab.PushScope()
	defer a.symtab.PopScope()

	for _, p := range f.Params {
		if !a.symtab.Insert(&Symbol{Name: p.Name, Type: p.Type}) {
			return errors.New("line %d: parameter name %q duplicated", f.Line, p.Name)
		}
	}

	if f.Body != nil {
		for _, s := range f.Body.Stmts {
			err := a.walk(f, s)
			if err != nil {
				return err
			}
		}
	}

	fsym := a.symtab.Lookup(f.Name)
	if fsym != nil && fsym.IsFunction {
		if a.returnType != ast.Unknown {
			fsym.ReturnType = a.returnType
		} else {
			fsym.ReturnType = ast.Void
		}
	}

	return nil
}

func (a *Analyzer) walk(f *ast.Func, s ast.Stmt) error {
	switch s := s.(type) {
	case ast.Return:
		if s.Value == nil {
			if a.returnType == ast.Unknown {
				a.returnType = ast.Void
			} else if a.returnType != ast.Void {
				return errors.New("line %d: inconsistent return types (void vs non-void) in function %q", s.Line, f.Name)
			}

			return nil
		}

		rt, err := a.expr(s.Value)
		if err != nil {
			return err
		}

		if a.returnType == ast.Unknown {
			a.returnType = rt
		} else if a.returnType != rt {
			return errors.New("line %d: inconsistent return types in function %q", s.Line, f.Name)
		}

		return nil
	case *ast.Block:
		a.symtab.PushScope()
		defer a.symtab.PopScope()

		for _, st := range s.Stmts {
			err := a.walk(f, st)
			if err != nil {
				return err
			}
		}

		return nil
	case *ast.If:
		_, err := a.expr(s.Cond)
		if err != nil {
			return err
		}

		err = a.walkScoped(f, s.Then)
		if err != nil {
			return err
		}

		if s.Else != nil {
			err = a.walkScoped(f, s.Else)
		}

		return err
	case *ast.For:
		if !a.symtab.ExistsInCurrent(s.Var) {
			a.symtab.Insert(&Symbol{Name: s.Var, Type: ast.Int})
		}

		_, err := a.expr(s.Start)
		if err != nil {
			return err
		}

		_, err = a.expr(s.End)
		if err != nil {
			return err
		}

		return a.walkScoped(f, s.Block)
	case *ast.While:
		_, err := a.expr(s.Cond)
		if err != nil {
			return err
		}

		return a.walkScoped(f, s.Block)
	default:
		return a.stmt(s)
	}
}

func (a *Analyzer) walkScoped(f *ast.Func, b *ast.Block) error {
	a.symtab.PushScope()
	defer a.symtab.PopScope()

	for _, s := range b.Stmts {
		err := a.walk(f, s)
		if err != nil {
			return err
		}
	}

	return nil
}
