// Package back renders optimized TAC into a standalone C++ source
// file. The flat instruction list carries no function structure, so
// the generator first recovers per-function extents from the
// func_/endfunc_ marker labels and then emits each extent as a C++
// function body, with the leftover top-level instructions going into
// main.
package back

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ast"
	"github.com/patlang/pat/compiler/ir"
	"github.com/patlang/pat/compiler/set"
)

type (
	Generator struct {
		code []ir.Instr
		prog *ast.Program

		// varTypes has top-level declarations and all function
		// parameters; it answers type questions for named variables
		// anywhere in the output.
		varTypes map[string]ast.Type

		// globals is the subset of varTypes pre-declared in main, in
		// declaration order. Parameters are excluded: they are already
		// declared by the signatures they belong to.
		globals []ast.VarDecl

		funcs  []string // appearance order of func_ labels
		ranges map[string]extent
	}

	// extent is a half-open instruction range [Start, End).
	extent struct {
		Start, End int
	}

	// scope tracks which named variables already got a C++
	// declaration in the current emission context.
	scope map[string]bool
)

func New() *Generator {
	return &Generator{}
}

// Generate renders the program. The tree is consulted for parameter
// lists, declared types, and the top-level fallback; everything else
// comes from the instruction list.
func (g *Generator) Generate(ctx context.Context, code []ir.Instr, prog *ast.Program) []byte {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "codegen", "instrs", len(code))

	g.code = code
	g.prog = prog

	g.collectVarTypes()
	g.findFuncs()

	var b []byte

	b = append(b, "#include <iostream>\n"...)
	b = append(b, "#include <string>\n"...)
	b = append(b, "#include <cmath>\n"...)
	b = append(b, "using namespace std;\n\n"...)

	b = g.appendBuiltins(b)
	b = g.appendForwardDecls(b)

	for _, name := range g.funcs {
		b = g.appendFunc(b, name)
	}

	b = g.appendMain(b)

	tr.Finish("bytes", len(b))

	return b
}

func (g *Generator) collectVarTypes() {
	g.varTypes = map[string]ast.Type{}
	g.globals = nil

	for _, d := range g.prog.Decls {
		switch d := d.(type) {
		case ast.VarDecl:
			g.varTypes[d.Name] = d.Type
			g.globals = append(g.globals, d)
		case *ast.Func:
			for _, p := range d.Params {
				g.varTypes[p.Name] = p.Type
			}
		}
	}
}

// findFuncs locates every func_<name> marker and computes the body
// extent. Preference order: the matching endfunc_<name> label, else
// the first return, else the next func_ label or the end of the list.
func (g *Generator) findFuncs() {
	g.funcs = nil
	g.ranges = map[string]extent{}

	for i, t := range g.code {
		if !t.IsFuncLabel() {
			continue
		}

		name := t.FuncName()
		start := i + 1
		end := -1

		for j := start; j < len(g.code); j++ {
			if g.code[j].IsLabel() && g.code[j].Name == ir.EndFuncLabel(name) {
				end = j + 1 // the marker itself belongs to the extent
				break
			}
		}

		if end < 0 {
			j := start
			for ; j < len(g.code); j++ {
				if g.code[j].IsFuncLabel() {
					break
				}

				if g.code[j].Op == ir.OpReturn {
					j++
					break
				}
			}

			end = j
		}

		g.funcs = append(g.funcs, name)
		g.ranges[name] = extent{Start: start, End: end}
	}
}

func (g *Generator) findDecl(name string) *ast.Func {
	for _, d := range g.prog.Decls {
		if f, ok := d.(*ast.Func); ok && f.Name == name {
			return f
		}
	}

	return nil
}

func (g *Generator) appendForwardDecls(b []byte) []byte {
	for _, name := range g.funcs {
		b = fmt.Appendf(b, "int %s(%s);\n", name, g.paramList(name))
	}

	b = append(b, '\n')

	return b
}

func (g *Generator) paramList(name string) string {
	f := g.findDecl(name)
	if f == nil {
		return ""
	}

	var sb strings.Builder

	for i, p := range f.Params {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(cppType(p.Type))
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
	}

	return sb.String()
}

func (g *Generator) appendFunc(b []byte, name string) []byte {
	rng := g.ranges[name]

	b = fmt.Appendf(b, "int %s(%s) {\n", name, g.paramList(name))
	b = g.appendTempDecls(b, g.tempsIn(rng), rng)

	vars := scope{}

	if f := g.findDecl(name); f != nil {
		for _, p := range f.Params {
			vars[p.Name] = true
		}
	}

	for k := rng.Start; k < rng.End && k < len(g.code); k++ {
		b = g.appendInstr(b, g.code[k], vars)
	}

	b = append(b, "    return 0;\n}\n\n"...)

	return b
}

// tempsIn collects the ids of every temporary touched inside the
// extent, sorted so emission order is stable.
func (g *Generator) tempsIn(rng extent) []int {
	seen := set.MakeBitmap(64)

	for i := rng.Start; i < rng.End && i < len(g.code); i++ {
		t := g.code[i]

		for _, o := range []ir.Operand{t.Dst, t.A, t.B} {
			if o.IsTemp() {
				seen.Set(o.Temp)
			}
		}

		for _, o := range t.Args {
			if o.IsTemp() {
				seen.Set(o.Temp)
			}
		}
	}

	ids := make([]int, 0, seen.Size())

	seen.Range(func(i int) bool {
		ids = append(ids, i)
		return true
	})

	sort.Ints(ids)

	return ids
}

func (g *Generator) appendTempDecls(b []byte, ids []int, rng extent) []byte {
	for _, id := range ids {
		typ := g.tempType(id, rng)
		b = fmt.Appendf(b, "    %s t%d = %s;\n", typ, id, defaultInit(typ))
	}

	return b
}

// tempType infers a C++ type for a temporary from its uses inside the
// extent. Text evidence wins over bool, bool over int; with no
// evidence at all the temp is an int.
func (g *Generator) tempType(id int, rng extent) string {
	seenText := false
	seenBool := false

	hint := func(o ir.Operand) {
		switch o.Kind {
		case ir.TextLit:
			seenText = true
		case ir.BoolLit:
			seenBool = true
		case ir.Var:
			switch g.varTypes[o.Text] {
			case ast.StringType:
				seenText = true
			case ast.BoolType:
				seenBool = true
			}
		}
	}

	for i := rng.Start; i < rng.End && i < len(g.code); i++ {
		t := g.code[i]

		if !mentions(t, id) {
			continue
		}

		if boolOp(t.Op) {
			seenBool = true
		}

		hint(t.A)
		hint(t.B)

		for _, a := range t.Args {
			hint(a)
		}
	}

	switch {
	case seenText:
		return "std::string"
	case seenBool:
		return "bool"
	default:
		return "int"
	}
}

func mentions(t ir.Instr, id int) bool {
	for _, o := range []ir.Operand{t.Dst, t.A, t.B} {
		if o.IsTemp() && o.Temp == id {
			return true
		}
	}

	for _, o := range t.Args {
		if o.IsTemp() && o.Temp == id {
			return true
		}
	}

	return false
}

func boolOp(op ir.Op) bool {
	switch op {
	case ir.OpLt, ir.OpGt, ir.OpLeq, ir.OpGeq, ir.OpEq, ir.OpNeq,
		ir.OpAnd, ir.OpOr, ir.OpNot:
		return true
	}

	return false
}

// appendInstr emits one TAC instruction as a C++ statement. The first
// write to a named variable in the current scope also declares it,
// with the declared type when known and int otherwise.
func (g *Generator) appendInstr(b []byte, t ir.Instr, vars scope) []byte {
	switch t.Op {
	case ir.OpLabel:
		if t.IsFuncLabel() || t.IsEndFuncLabel() {
			return b
		}

		return fmt.Appendf(b, "    %s:\n", t.Name)
	case ir.OpAssign:
		return g.appendStore(b, t.Dst, operand(t.A), vars)
	case ir.OpPrint:
		return fmt.Appendf(b, "    cout << %s;\n", operand(t.A))
	case ir.OpNewline:
		return append(b, "    cout << endl;\n"...)
	case ir.OpCall:
		call := fmt.Sprintf("%s(%s)", t.Name, argList(t.Args))
		if t.Dst.None() {
			return fmt.Appendf(b, "    %s;\n", call)
		}

		return g.appendStore(b, t.Dst, call, vars)
	case ir.OpReturn:
		if t.A.None() {
			return append(b, "    return 0;\n"...)
		}

		return fmt.Appendf(b, "    return %s;\n", operand(t.A))
	case ir.OpGoto:
		return fmt.Appendf(b, "    goto %s;\n", t.Name)
	case ir.OpIfFalse:
		return fmt.Appendf(b, "    if (!(%s)) goto %s;\n", operand(t.A), t.Name)
	}

	// binary and unary operators
	var rhs string

	if t.B.None() {
		rhs = fmt.Sprintf("%s %s", t.Op, operand(t.A))
	} else {
		rhs = fmt.Sprintf("%s %s %s", operand(t.A), t.Op, operand(t.B))
	}

	return g.appendStore(b, t.Dst, rhs, vars)
}

func (g *Generator) appendStore(b []byte, dst ir.Operand, rhs string, vars scope) []byte {
	if dst.IsTemp() || vars[dst.Text] {
		return fmt.Appendf(b, "    %s = %s;\n", operand(dst), rhs)
	}

	typ := "int"
	if t, ok := g.varTypes[dst.Text]; ok {
		typ = cppType(t)
	}

	vars[dst.Text] = true

	return fmt.Appendf(b, "    %s %s = %s;\n", typ, dst.Text, rhs)
}

func (g *Generator) appendMain(b []byte) []byte {
	b = append(b, "int main() {\n"...)

	vars := scope{}

	for _, d := range g.globals {
		typ := cppType(d.Type)
		b = fmt.Appendf(b, "    %s %s = %s;\n", typ, d.Name, defaultInit(typ))
		vars[d.Name] = true
	}

	// mask out every instruction owned by a function extent; what
	// remains is the top-level program
	inFunc := set.MakeBitmap(len(g.code))

	for _, rng := range g.ranges {
		end := rng.End
		if end > len(g.code) {
			end = len(g.code)
		}

		inFunc.FillSet(rng.Start, end)
	}

	whole := extent{Start: 0, End: len(g.code)}
	hasTopWork := false
	topTemps := set.MakeBitmap(64)

	for i, t := range g.code {
		if inFunc.IsSet(i) {
			continue
		}

		if t.Op == ir.OpCall || t.Op == ir.OpPrint {
			hasTopWork = true
		}

		for _, o := range []ir.Operand{t.Dst, t.A, t.B} {
			if o.IsTemp() {
				topTemps.Set(o.Temp)
			}
		}

		for _, o := range t.Args {
			if o.IsTemp() {
				topTemps.Set(o.Temp)
			}
		}
	}

	ids := make([]int, 0, topTemps.Size())

	topTemps.Range(func(i int) bool {
		ids = append(ids, i)
		return true
	})

	sort.Ints(ids)

	// top-level temp types are decided over the whole list
	b = g.appendTempDecls(b, ids, whole)

	for i, t := range g.code {
		if inFunc.IsSet(i) {
			continue
		}

		b = g.appendInstr(b, t, vars)
	}

	// statement calls and input never reach the instruction list, so a
	// program made only of those leaves the top level empty; rebuild
	// it from the tree
	if !hasTopWork {
		b = g.appendTopLevelFromTree(b)
	}

	b = append(b, "    return 0;\n}\n"...)

	return b
}

func (g *Generator) appendTopLevelFromTree(b []byte) []byte {
	for _, d := range g.prog.Decls {
		switch d := d.(type) {
		case *ast.CallStmt:
			b = fmt.Appendf(b, "    %s(%s);\n", d.Name, exprArgs(d.Args))
		case ast.Print:
			b = fmt.Appendf(b, "    cout << %s;\n", simpleExpr(d.Expr))
		case ast.NewlineStmt:
			b = append(b, "    cout << endl;\n"...)
		case ast.Input:
			b = fmt.Appendf(b, "    cin >> %s;\n", d.Name)
		}
	}

	return b
}

// simpleExpr renders the restricted expression forms the tree-rebuild
// path supports: literals, variables, negated number literals, and
// calls over those.
func simpleExpr(e ast.Expr) string {
	switch e := e.(type) {
	case ast.Number:
		return e.Value
	case ast.String:
		return strconv.Quote(e.Value)
	case ast.Bool:
		if e.Value {
			return "true"
		}

		return "false"
	case ast.Var:
		return e.Name
	case ast.Unary:
		if n, ok := e.Expr.(ast.Number); ok && e.Op == "-" {
			return "-" + n.Value
		}

		return ""
	case *ast.Call:
		return fmt.Sprintf("%s(%s)", e.Name, exprArgs(e.Args))
	default:
		return ""
	}
}

func exprArgs(args []ast.Expr) string {
	var sb strings.Builder

	for i, a := range args {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(simpleExpr(a))
	}

	return sb.String()
}

func operand(o ir.Operand) string {
	return o.String() // literal quoting matches C++ source form
}

func argList(args []ir.Operand) string {
	var sb strings.Builder

	for i, a := range args {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(operand(a))
	}

	return sb.String()
}

func cppType(t ast.Type) string {
	switch t {
	case ast.Int:
		return "int"
	case ast.BoolType:
		return "bool"
	case ast.StringType:
		return "std::string"
	default:
		return "auto"
	}
}

func defaultInit(cppTyp string) string {
	switch cppTyp {
	case "std::string":
		return `""`
	case "bool":
		return "false"
	default:
		return "0"
	}
}
