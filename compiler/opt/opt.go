// Package opt rewrites a TAC sequence into a behaviorally equivalent,
// smaller one. Four passes run in fixed order (constant folding,
// strength reduction, copy propagation, dead code elimination) and
// the cycle repeats while any pass reports a change, capped at ten
// iterations. Labels are inert to every pass.
package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/ir"
	"github.com/patlang/pat/compiler/set"
)

// maxIterations bounds the fixpoint search. Running out of the cap
// without converging is not an error; the result so far is used.
const maxIterations = 10

type (
	Optimizer struct{}
)

func New() *Optimizer {
	return &Optimizer{}
}

// Optimize returns a new optimized sequence. The input is never
// mutated, so optimizing twice is observably idempotent.
func (o *Optimizer) Optimize(ctx context.Context, code []ir.Instr) []ir.Instr {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "optimize", "instrs", len(code))

	out := make([]ir.Instr, len(code))
	copy(out, code)

	for i := range out {
		out[i].Args = append([]ir.Operand(nil), out[i].Args...)
	}

	changed := true

	iters := 0
	for changed && iters < maxIterations {
		changed = false
		iters++

		changed = constantFold(out) || changed
		changed = strengthReduce(out) || changed
		changed = copyPropagate(out) || changed

		out, changed = deadCodeElim(out, changed)
	}

	tr.Finish("instrs", len(out), "iterations", iters)

	return out
}

// constantFold rewrites an instruction whose operands are both
// integer literals (or both boolean literals) into a plain assign of
// the computed value. Division and modulo by literal zero stay
// unfolded: they must remain a run-time fault of the generated
// program, never a compile-time one.
func constantFold(code []ir.Instr) (changed bool) {
	for i := range code {
		t := &code[i]

		if t.IsLabel() || t.B.None() {
			continue
		}

		switch {
		case t.A.Kind == ir.IntLit && t.B.Kind == ir.IntLit:
			v, ok := foldInt(t.Op, t.A.Int, t.B.Int)
			if !ok {
				continue
			}

			*t = ir.Instr{Op: ir.OpAssign, A: v, Dst: t.Dst}
			changed = true
		case t.A.Kind == ir.BoolLit && t.B.Kind == ir.BoolLit:
			v, ok := foldBool(t.Op, t.A.Bool, t.B.Bool)
			if !ok {
				continue
			}

			*t = ir.Instr{Op: ir.OpAssign, A: ir.Bool(v), Dst: t.Dst}
			changed = true
		}
	}

	return changed
}

func foldInt(op ir.Op, a, b int64) (ir.Operand, bool) {
	switch op {
	case ir.OpAdd:
		return ir.Int(a + b), true
	case ir.OpSub:
		return ir.Int(a - b), true
	case ir.OpMul:
		return ir.Int(a * b), true
	case ir.OpDiv:
		if b == 0 {
			return ir.Operand{}, false
		}

		return ir.Int(a / b), true
	case ir.OpMod:
		if b == 0 {
			return ir.Operand{}, false
		}

		return ir.Int(a % b), true
	case ir.OpLt:
		return ir.Bool(a < b), true
	case ir.OpGt:
		return ir.Bool(a > b), true
	case ir.OpLeq:
		return ir.Bool(a <= b), true
	case ir.OpGeq:
		return ir.Bool(a >= b), true
	case ir.OpEq:
		return ir.Bool(a == b), true
	case ir.OpNeq:
		return ir.Bool(a != b), true
	}

	return ir.Operand{}, false
}

func foldBool(op ir.Op, a, b bool) (bool, bool) {
	switch op {
	case ir.OpAnd:
		return a && b, true
	case ir.OpOr:
		return a || b, true
	case ir.OpEq:
		return a == b, true
	case ir.OpNeq:
		return a != b, true
	}

	return false, false
}

// strengthReduce rewrites x * 2 and 2 * x into x + x. This is a
// literal match on the constant 2, not power-of-two recognition.
func strengthReduce(code []ir.Instr) (changed bool) {
	for i := range code {
		t := &code[i]

		if t.IsLabel() || t.Op != ir.OpMul || t.B.None() {
			continue
		}

		switch {
		case t.A.Kind == ir.IntLit && t.A.Int == 2:
			t.Op = ir.OpAdd
			t.A = t.B
			changed = true
		case t.B.Kind == ir.IntLit && t.B.Int == 2:
			t.Op = ir.OpAdd
			t.B = t.A
			changed = true
		}
	}

	return changed
}

// copyPropagate does one linear forward scan, mapping a temporary to
// the literal or temporary it was last assigned, and substituting
// that value into later operand uses. The scan is strictly forward:
// across a loop back-edge a binding established below the loop body
// can leak into an earlier point. That approximation is kept as-is.
func copyPropagate(code []ir.Instr) (changed bool) {
	repl := map[int]ir.Operand{}

	for i := range code {
		t := &code[i]

		if t.IsLabel() {
			continue
		}

		if t.A.IsTemp() {
			if v, ok := repl[t.A.Temp]; ok {
				t.A = v
				changed = true
			}
		}

		if t.B.IsTemp() {
			if v, ok := repl[t.B.Temp]; ok {
				t.B = v
				changed = true
			}
		}

		for j := range t.Args {
			if !t.Args[j].IsTemp() {
				continue
			}

			if v, ok := repl[t.Args[j].Temp]; ok {
				t.Args[j] = v
				changed = true
			}
		}

		if t.Op == ir.OpAssign && t.Dst.IsTemp() {
			if t.A.IsLiteral() || t.A.IsTemp() {
				repl[t.Dst.Temp] = t.A
				changed = true
			}
		} else if t.Dst.IsTemp() {
			// redefined by something else (a call result, an
			// arithmetic op): the binding no longer holds
			delete(repl, t.Dst.Temp)
		}
	}

	return changed
}

// deadCodeElim removes instructions whose result temporary is never
// read, provided the operator has no observable effect. Calls are
// always retained. Removal re-runs to a local fixpoint because
// deleting one instruction can orphan the temporaries feeding it.
func deadCodeElim(code []ir.Instr, changed bool) ([]ir.Instr, bool) {
	used := set.MakeBitmap(64)

	for _, t := range code {
		if t.IsLabel() {
			continue
		}

		markUses(&used, t)
	}

	removed := true
	for removed {
		removed = false

		newCode := make([]ir.Instr, 0, len(code))

		for i, t := range code {
			if t.IsLabel() {
				newCode = append(newCode, t)
				continue
			}

			dead := t.Dst.IsTemp() && !used.IsSet(t.Dst.Temp) &&
				(t.Op == ir.OpAssign || t.Op.Arith())

			if !dead {
				newCode = append(newCode, t)
				continue
			}

			removed = true
			changed = true

			forUses(t, func(id int) {
				if !appearsElsewhere(code, i, id) {
					used.Clear(id)
				}
			})
		}

		code = newCode
	}

	return code, changed
}

func markUses(used *set.Bitmap, t ir.Instr) {
	forUses(t, func(id int) { used.Set(id) })
}

func forUses(t ir.Instr, f func(id int)) {
	if t.A.IsTemp() {
		f(t.A.Temp)
	}

	if t.B.IsTemp() {
		f(t.B.Temp)
	}

	for _, a := range t.Args {
		if a.IsTemp() {
			f(a.Temp)
		}
	}
}

func appearsElsewhere(code []ir.Instr, skip, id int) bool {
	for j, t := range code {
		if j == skip || t.IsLabel() {
			continue
		}

		found := false

		forUses(t, func(u int) {
			if u == id {
				found = true
			}
		})

		if found {
			return true
		}
	}

	return false
}
