package parse

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ast"
	"github.com/patlang/pat/compiler/lex"
)

type (
	Parser struct {
		tokens []lex.Token
		cur    int
	}
)

// Parse builds a Program from a token stream. The grammar is not
// error-recovering: the first violation aborts with a diagnostic
// carrying the source line.
func Parse(ctx context.Context, tokens []lex.Token) (p *ast.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "tokens", len(tokens))
	defer tr.Finish("err", &err)

	ps := &Parser{tokens: tokens}

	prog := &ast.Program{}

	for !ps.atEnd() {
		d, err := ps.declaration()
		if err != nil {
			return nil, err
		}

		prog.Decls = append(prog.Decls, d)
	}

	return prog, nil
}

func (p *Parser) declaration() (ast.Node, error) {
	if p.match(lex.Func) {
		return p.funcDecl()
	}

	if p.checkType() {
		return p.varDecl()
	}

	return p.statement()
}

func (p *Parser) funcDecl() (*ast.Func, error) {
	name, err := p.ident("function name")
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.LParen, "expected '(' after function name")
	if err != nil {
		return nil, err
	}

	var params []ast.Param

	if !p.check(lex.RParen) {
		for {
			if !p.checkType() {
				return nil, p.errorf("expected parameter type")
			}

			typ := typeOf(p.advance().Kind)

			pname, err := p.ident("parameter name")
			if err != nil {
				return nil, err
			}

			params = append(params, ast.Param{Type: typ, Name: pname.Name})

			if !p.match(lex.Comma) {
				break
			}
		}
	}

	err = p.expect(lex.RParen, "expected ')' after parameters")
	if err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.Func{Name: name.Name, Params: params, Body: body, Line: name.Line}, nil
}

func (p *Parser) varDecl() (ast.Stmt, error) {
	typ := typeOf(p.advance().Kind)

	name, err := p.ident("variable name")
	if err != nil {
		return nil, err
	}

	var init ast.Expr

	if p.match(lex.Assign) {
		init, err = p.expr()
		if err != nil {
			return nil, err
		}
	}

	err = p.expect(lex.Semicolon, "expected ';' after variable declaration")
	if err != nil {
		return nil, err
	}

	return ast.VarDecl{Type: typ, Name: name.Name, Init: init, Line: name.Line}, nil
}

func (p *Parser) block() (*ast.Block, error) {
	err := p.expect(lex.LBrace, "expected '{'")
	if err != nil {
		return nil, err
	}

	b := &ast.Block{}

	for !p.check(lex.RBrace) && !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}

		b.Stmts = append(b.Stmts, s)
	}

	err = p.expect(lex.RBrace, "expected '}'")
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.checkType():
		return p.varDecl()
	case p.match(lex.Print):
		return p.printStmt()
	case p.match(lex.Return):
		return p.returnStmt()
	case p.match(lex.Input):
		return p.inputStmt()
	case p.match(lex.Newline):
		line := p.prev().Line
		err := p.expect(lex.Semicolon, "expected ';'")
		if err != nil {
			return nil, err
		}

		return ast.NewlineStmt{Line: line}, nil
	case p.match(lex.For):
		return p.forStmt()
	case p.match(lex.While):
		return p.whileStmt()
	case p.match(lex.If):
		return p.ifStmt()
	case p.check(lex.LBrace):
		return p.block()
	}

	return p.assignOrCall()
}

func (p *Parser) forStmt() (ast.Stmt, error) {
	v, err := p.ident("loop variable")
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.Assign, "expected '=' in for loop")
	if err != nil {
		return nil, err
	}

	start, err := p.expr()
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.To, "expected 'to' in for loop")
	if err != nil {
		return nil, err
	}

	end, err := p.expr()
	if err != nil {
		return nil, err
	}

	blk, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.For{Var: v.Name, Start: start, End: end, Block: blk, Line: v.Line}, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	err := p.expect(lex.LParen, "expected '('")
	if err != nil {
		return nil, err
	}

	line := p.prev().Line

	cond, err := p.expr()
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.RParen, "expected ')'")
	if err != nil {
		return nil, err
	}

	blk, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.While{Cond: cond, Block: blk, Line: line}, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	err := p.expect(lex.LParen, "expected '('")
	if err != nil {
		return nil, err
	}

	line := p.prev().Line

	cond, err := p.expr()
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.RParen, "expected ')'")
	if err != nil {
		return nil, err
	}

	then, err := p.block()
	if err != nil {
		return nil, err
	}

	var els *ast.Block

	if p.match(lex.Else) {
		els, err = p.block()
		if err != nil {
			return nil, err
		}
	}

	return &ast.If{Cond: cond, Then: then, Else: els, Line: line}, nil
}

func (p *Parser) assignOrCall() (ast.Stmt, error) {
	name, err := p.ident("variable name")
	if err != nil {
		return nil, err
	}

	if p.match(lex.LParen) {
		args, err := p.callArgs()
		if err != nil {
			return nil, err
		}

		err = p.expect(lex.Semicolon, "expected ';'")
		if err != nil {
			return nil, err
		}

		return &ast.CallStmt{Name: name.Name, Args: args, Line: name.Line}, nil
	}

	err = p.expect(lex.Assign, "expected '='")
	if err != nil {
		return nil, err
	}

	val, err := p.expr()
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.Semicolon, "expected ';'")
	if err != nil {
		return nil, err
	}

	return ast.Assign{Name: name.Name, Value: val, Line: name.Line}, nil
}

func (p *Parser) printStmt() (ast.Stmt, error) {
	line := p.prev().Line

	val, err := p.expr()
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.Semicolon, "expected ';'")
	if err != nil {
		return nil, err
	}

	return ast.Print{Expr: val, Line: line}, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	line := p.prev().Line

	var val ast.Expr
	var err error

	if !p.check(lex.Semicolon) {
		val, err = p.expr()
		if err != nil {
			return nil, err
		}
	}

	err = p.expect(lex.Semicolon, "expected ';'")
	if err != nil {
		return nil, err
	}

	return ast.Return{Value: val, Line: line}, nil
}

func (p *Parser) inputStmt() (ast.Stmt, error) {
	name, err := p.ident("variable name after input")
	if err != nil {
		return nil, err
	}

	err = p.expect(lex.Semicolon, "expected ';'")
	if err != nil {
		return nil, err
	}

	return ast.Input{Name: name.Name, Line: name.Line}, nil
}

// expr parses with the precedence chain
// or > and > equality > relational > additive > multiplicative > unary.
func (p *Parser) expr() (ast.Expr, error) {
	return p.logicOr()
}

func (p *Parser) logicOr() (ast.Expr, error) {
	return p.binary(p.logicAnd, lex.Or)
}

func (p *Parser) logicAnd() (ast.Expr, error) {
	return p.binary(p.equality, lex.And)
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.rel, lex.Eq, lex.Neq)
}

func (p *Parser) rel() (ast.Expr, error) {
	return p.binary(p.add, lex.Lt, lex.Gt, lex.Leq, lex.Geq)
}

func (p *Parser) add() (ast.Expr, error) {
	return p.binary(p.mul, lex.Plus, lex.Minus)
}

func (p *Parser) mul() (ast.Expr, error) {
	return p.binary(p.unary, lex.Mul, lex.Div, lex.Mod)
}

func (p *Parser) binary(next func() (ast.Expr, error), kinds ...lex.Kind) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.matchAny(kinds...) {
		op := p.prev()

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = ast.Binary{Op: op.Lex, Left: left, Right: right, Line: op.Line}
	}

	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(lex.Not) || p.match(lex.Minus) {
		op := p.prev()

		sub, err := p.unary()
		if err != nil {
			return nil, err
		}

		return ast.Unary{Op: op.Lex, Expr: sub, Line: op.Line}, nil
	}

	return p.primary()
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.match(lex.IntLit):
		return ast.Number{Value: p.prev().Lex, Line: p.prev().Line}, nil
	case p.match(lex.BoolLit):
		return ast.Bool{Value: p.prev().Lex == "true", Line: p.prev().Line}, nil
	case p.match(lex.StringLit):
		return ast.String{Value: p.prev().Lex, Line: p.prev().Line}, nil
	case p.match(lex.LParen):
		e, err := p.expr()
		if err != nil {
			return nil, err
		}

		err = p.expect(lex.RParen, "expected ')'")
		if err != nil {
			return nil, err
		}

		return e, nil
	case p.check(lex.Ident):
		id, err := p.ident("expression")
		if err != nil {
			return nil, err
		}

		if p.match(lex.LParen) {
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}

			return &ast.Call{Name: id.Name, Args: args, Line: id.Line}, nil
		}

		return id, nil
	}

	return nil, p.errorf("unexpected token %q", p.peek().Lex)
}

func (p *Parser) callArgs() (args []ast.Expr, err error) {
	if !p.check(lex.RParen) {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}

			args = append(args, a)

			if !p.match(lex.Comma) {
				break
			}
		}
	}

	err = p.expect(lex.RParen, "expected ')'")
	if err != nil {
		return nil, err
	}

	return args, nil
}

// ident consumes an identifier token. Names shaped like compiler
// temporaries (t1, t42, ...) are reserved; rejecting them here is what
// keeps IR temporaries collision-free with user variables.
func (p *Parser) ident(what string) (ast.Var, error) {
	if !p.check(lex.Ident) {
		return ast.Var{}, p.errorf("expected %v, got %q", what, p.peek().Lex)
	}

	tk := p.advance()

	if isReserved(tk.Lex) {
		return ast.Var{}, errors.New("line %d: identifier %q is reserved for compiler temporaries", tk.Line, tk.Lex)
	}

	return ast.Var{Name: tk.Lex, Line: tk.Line}, nil
}

func isReserved(name string) bool {
	if len(name) < 2 || name[0] != 't' {
		return false
	}

	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

func typeOf(k lex.Kind) ast.Type {
	switch k {
	case lex.Int:
		return ast.Int
	case lex.Bool:
		return ast.BoolType
	case lex.String:
		return ast.StringType
	default:
		return ast.Unknown
	}
}

func (p *Parser) checkType() bool {
	return p.check(lex.Int) || p.check(lex.Bool) || p.check(lex.String)
}

func (p *Parser) expect(k lex.Kind, msg string) error {
	if p.match(k) {
		return nil
	}

	return p.errorf("%v", msg)
}

func (p *Parser) errorf(f string, args ...any) error {
	args = append([]any{p.peek().Line}, args...)

	return errors.New("line %d: "+f, args...)
}

func (p *Parser) matchAny(kinds ...lex.Kind) bool {
	for _, k := range kinds {
		if p.match(k) {
			return true
		}
	}

	return false
}

func (p *Parser) match(k lex.Kind) bool {
	if !p.check(k) {
		return false
	}

	p.advance()

	return true
}

func (p *Parser) check(k lex.Kind) bool {
	if p.atEnd() {
		return k == lex.EOF
	}

	return p.peek().Kind == k
}

func (p *Parser) advance() lex.Token {
	if !p.atEnd() {
		p.cur++
	}

	return p.tokens[p.cur-1]
}

func (p *Parser) peek() lex.Token {
	return p.tokens[p.cur]
}

func (p *Parser) prev() lex.Token {
	return p.tokens[p.cur-1]
}

func (p *Parser) atEnd() bool {
	return p.tokens[p.cur].Kind == lex.EOF
}
