// Package lower flattens a checked syntax tree into TAC. Lowering is
// deterministic: expressions evaluate left to right, every operator
// and call gets one fresh temporary, and control flow becomes labels
// and jumps.
package lower

import (
	"context"
	"strconv"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ast"
	"github.com/patlang/pat/compiler/ir"
)

type (
	// Generator carries the whole-program temp and label counters.
	// Both are global, not per-function: later stages scan the flat
	// list for exact marker and label text, so names must be unique
	// across the entire sequence.
	Generator struct {
		code []ir.Instr

		tmp int
		lbl int
	}
)

func New() *Generator {
	return &Generator{}
}

// Generate lowers the program: functions first, then globals and
// top-level statements in declaration order.
func (g *Generator) Generate(ctx context.Context, prog *ast.Program) []ir.Instr {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lower")
	defer func() { tr.Finish("instrs", len(g.code)) }()

	for _, d := range prog.Decls {
		if f, ok := d.(*ast.Func); ok {
			g.funcDecl(f)
		}
	}

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.Func:
			// already done
		case ast.VarDecl:
			g.varDecl(d)
		case ast.Stmt:
			g.stmt(d)
		}
	}

	return g.code
}

func (g *Generator) funcDecl(f *ast.Func) {
	g.emit(ir.Instr{Op: ir.OpLabel, Name: ir.FuncLabel(f.Name)})

	if f.Body != nil {
		for _, s := range f.Body.Stmts {
			g.stmt(s)
		}
	}

	// the body may fall through; the trailing return keeps every
	// path inside the func_/endfunc_ extent
	g.emit(ir.Instr{Op: ir.OpReturn})

	g.emit(ir.Instr{Op: ir.OpLabel, Name: ir.EndFuncLabel(f.Name)})
}

func (g *Generator) varDecl(s ast.VarDecl) {
	if s.Init != nil {
		rhs := g.expr(s.Init)
		g.assign(s.Name, rhs)

		return
	}

	switch s.Type {
	case ast.Int:
		g.assign(s.Name, ir.Int(0))
	case ast.BoolType:
		g.assign(s.Name, ir.Bool(false))
	default:
		g.assign(s.Name, ir.Text(""))
	}
}

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case ast.VarDecl:
		g.varDecl(s)
	case ast.Assign:
		rhs := g.expr(s.Value)
		g.assign(s.Name, rhs)
	case ast.Print:
		v := g.expr(s.Expr)
		g.emit(ir.Instr{Op: ir.OpPrint, A: v})
	case ast.NewlineStmt:
		g.emit(ir.Instr{Op: ir.OpNewline})
	case ast.Return:
		if s.Value != nil {
			v := g.expr(s.Value)
			g.emit(ir.Instr{Op: ir.OpReturn, A: v})
		} else {
			g.emit(ir.Instr{Op: ir.OpReturn})
		}
	case *ast.For:
		g.forStmt(s)
	case *ast.While:
		g.whileStmt(s)
	case *ast.If:
		g.ifStmt(s)
	case *ast.Block:
		g.block(s)
	case *ast.CallStmt, ast.Input:
		// not lowered: the code generator reconstructs these from
		// the tree when the top-level IR carries no print/call
	}
}

// forStmt lowers `for v = start to end { body }`. The bound is
// re-evaluated every iteration, so side effects in the end expression
// re-run each pass.
func (g *Generator) forStmt(s *ast.For) {
	start := g.expr(s.Start)
	g.assign(s.Var, start)

	lbegin := g.newLabel()
	lend := g.newLabel()

	g.emit(ir.Instr{Op: ir.OpLabel, Name: lbegin})

	end := g.expr(s.End)
	cond := g.newTemp()
	g.emit(ir.Instr{Op: ir.OpLeq, A: ir.Name(s.Var), B: end, Dst: cond})
	g.emit(ir.Instr{Op: ir.OpIfFalse, A: cond, Name: lend})

	g.block(s.Block)

	inc := g.newTemp()
	g.emit(ir.Instr{Op: ir.OpAdd, A: ir.Name(s.Var), B: ir.Int(1), Dst: inc})
	g.assign(s.Var, inc)

	g.emit(ir.Instr{Op: ir.OpGoto, Name: lbegin})
	g.emit(ir.Instr{Op: ir.OpLabel, Name: lend})
}

func (g *Generator) whileStmt(s *ast.While) {
	lbegin := g.newLabel()
	lend := g.newLabel()

	g.emit(ir.Instr{Op: ir.OpLabel, Name: lbegin})

	cond := g.expr(s.Cond)
	g.emit(ir.Instr{Op: ir.OpIfFalse, A: cond, Name: lend})

	g.block(s.Block)

	g.emit(ir.Instr{Op: ir.OpGoto, Name: lbegin})
	g.emit(ir.Instr{Op: ir.OpLabel, Name: lend})
}

func (g *Generator) ifStmt(s *ast.If) {
	lelse := g.newLabel()
	lend := g.newLabel()

	cond := g.expr(s.Cond)

	to := lend
	if s.Else != nil {
		to = lelse
	}

	g.emit(ir.Instr{Op: ir.OpIfFalse, A: cond, Name: to})

	g.block(s.Then)
	g.emit(ir.Instr{Op: ir.OpGoto, Name: lend})

	if s.Else != nil {
		g.emit(ir.Instr{Op: ir.OpLabel, Name: lelse})
		g.block(s.Else)
	}

	g.emit(ir.Instr{Op: ir.OpLabel, Name: lend})
}

func (g *Generator) block(b *ast.Block) {
	if b == nil {
		return
	}

	for _, s := range b.Stmts {
		g.stmt(s)
	}
}

// expr lowers an expression and returns the operand holding its
// value. Literals and variables return themselves; everything else
// emits exactly one instruction into a fresh temporary.
func (g *Generator) expr(e ast.Expr) ir.Operand {
	switch e := e.(type) {
	case nil:
		return ir.Int(0)
	case ast.Number:
		v, _ := strconv.ParseInt(e.Value, 10, 64)
		return ir.Int(v)
	case ast.Bool:
		return ir.Bool(e.Value)
	case ast.String:
		return ir.Text(e.Value)
	case ast.Var:
		return ir.Name(e.Name)
	case *ast.Call:
		args := make([]ir.Operand, len(e.Args))
		for i, a := range e.Args {
			args[i] = g.expr(a)
		}

		dst := g.newTemp()
		g.emit(ir.Instr{Op: ir.OpCall, Name: e.Name, Args: args, Dst: dst})

		return dst
	case ast.Unary:
		sub := g.expr(e.Expr)

		dst := g.newTemp()
		g.emit(ir.Instr{Op: ir.Op(e.Op), A: sub, Dst: dst})

		return dst
	case ast.Binary:
		l := g.expr(e.Left)
		r := g.expr(e.Right)

		dst := g.newTemp()
		g.emit(ir.Instr{Op: ir.Op(e.Op), A: l, B: r, Dst: dst})

		return dst
	default:
		return ir.Int(0)
	}
}

func (g *Generator) assign(name string, src ir.Operand) {
	g.emit(ir.Instr{Op: ir.OpAssign, A: src, Dst: ir.Name(name)})
}

func (g *Generator) emit(t ir.Instr) {
	if tlog.If("emit") {
		tlog.Printw("emit", "i", len(g.code), "instr", t, "from", loc.Caller(1))
	}

	g.code = append(g.code, t)
}

func (g *Generator) newTemp() ir.Operand {
	g.tmp++
	return ir.Temp(g.tmp)
}

func (g *Generator) newLabel() string {
	g.lbl++
	return "L" + strconv.Itoa(g.lbl)
}
