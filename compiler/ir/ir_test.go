package ir

import (
	"testing"
)

func TestListing(t *testing.T) {
	code := []Instr{
		{Op: OpLabel, Name: FuncLabel("f")},
		{Op: OpAdd, A: Name("a"), B: Int(1), Dst: Temp(1)},
		{Op: OpCall, Name: "g", Args: []Operand{Temp(1), Text("x")}, Dst: Temp(2)},
		{Op: OpIfFalse, A: Temp(2), Name: "L1"},
		{Op: OpReturn, A: Bool(true)},
		{Op: OpLabel, Name: EndFuncLabel("f")},
	}

	want := `func_f:
t1 = a + 1
t2 = call g, t1, "x"
ifFalse t2 goto L1
return true
endfunc_f:
`

	if got := string(Dump(nil, code)); got != want {
		t.Errorf("listing:\n%s\nwanted:\n%s", got, want)
	}
}

func TestFuncMarkers(t *testing.T) {
	f := Instr{Op: OpLabel, Name: FuncLabel("main")}
	e := Instr{Op: OpLabel, Name: EndFuncLabel("main")}
	l := Instr{Op: OpLabel, Name: "L1"}

	if !f.IsFuncLabel() || f.IsEndFuncLabel() {
		t.Errorf("func marker misclassified")
	}

	if !e.IsEndFuncLabel() {
		t.Errorf("end marker misclassified")
	}

	if f.FuncName() != "main" || e.FuncName() != "main" || l.FuncName() != "" {
		t.Errorf("func names: %q %q %q", f.FuncName(), e.FuncName(), l.FuncName())
	}
}

func TestArith(t *testing.T) {
	for _, op := range []Op{OpAdd, OpSub, OpMul, OpDiv, OpMod, OpLt, OpEq, OpAnd, OpNot} {
		if !op.Arith() {
			t.Errorf("%v: wanted pure", op)
		}
	}

	for _, op := range []Op{OpCall, OpPrint, OpAssign, OpLabel, OpGoto, OpIfFalse, OpReturn, OpNewline} {
		if op.Arith() {
			t.Errorf("%v: wanted impure", op)
		}
	}
}
