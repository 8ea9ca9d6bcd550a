package lower

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patlang/pat/compiler/analyze"
	"github.com/patlang/pat/compiler/ir"
	"github.com/patlang/pat/compiler/lex"
	"github.com/patlang/pat/compiler/parse"
)

func lowerText(t *testing.T, src string) []ir.Instr {
	t.Helper()

	ctx := context.Background()

	prog, err := parse.Parse(ctx, lex.Tokenize([]byte(src)))
	require.NoError(t, err)

	err = analyze.New().Analyze(ctx, prog)
	require.NoError(t, err)

	return New().Generate(ctx, prog)
}

func listing(code []ir.Instr) string {
	return string(ir.Dump(nil, code))
}

func TestFuncExtent(t *testing.T) {
	code := lowerText(t, `
func add(int a, int b) {
	return a + b;
}

int r = add(2, 3);
print r;
`)

	assert.Equal(t, `func_add:
t1 = a + b
return t1
return
endfunc_add:
t2 = call add, 2, 3
r = t2
print r
`, listing(code))
}

func TestForLoop(t *testing.T) {
	code := lowerText(t, `for i = 1 to 3 { print i; }`)

	assert.Equal(t, `i = 1
L1:
t1 = i <= 3
ifFalse t1 goto L2
print i
t2 = i + 1
i = t2
goto L1
L2:
`, listing(code))
}

func TestWhile(t *testing.T) {
	code := lowerText(t, `int x = 5;
while (x > 0) {
	x = x - 1;
}
`)

	assert.Equal(t, `x = 5
L1:
t1 = x > 0
ifFalse t1 goto L2
t2 = x - 1
x = t2
goto L1
L2:
`, listing(code))
}

func TestIfElse(t *testing.T) {
	code := lowerText(t, `if (1 < 2) { print 1; } else { print 0; }`)

	// both labels are allocated before the condition lowers, so the
	// else label always numbers lower than the end label
	assert.Equal(t, `t1 = 1 < 2
ifFalse t1 goto L1
print 1
goto L2
L1:
print 0
L2:
`, listing(code))
}

func TestIfWithoutElse(t *testing.T) {
	code := lowerText(t, `if (true) { newline; }`)

	assert.Equal(t, `ifFalse true goto L2
newline
goto L2
L2:
`, listing(code))
}

func TestDefaultInit(t *testing.T) {
	code := lowerText(t, `int a; bool b; string s;`)

	assert.Equal(t, "a = 0\nb = false\ns = \"\"\n", listing(code))
}

func TestStatementCallsNotLowered(t *testing.T) {
	code := lowerText(t, `pyramid(5);
int x;
input x;
`)

	// only the declaration default shows up
	assert.Equal(t, "x = 0\n", listing(code))
}

func TestFuncsLowerFirst(t *testing.T) {
	code := lowerText(t, `
int x = f();

func f() {
	return 7;
}
`)

	require.True(t, code[0].IsFuncLabel())
	assert.Equal(t, "f", code[0].FuncName())
}

func TestNestedExprTemps(t *testing.T) {
	code := lowerText(t, `int y = (1 + 2) * (3 - 4);`)

	assert.Equal(t, `t1 = 1 + 2
t2 = 3 - 4
t3 = t1 * t2
y = t3
`, listing(code))
}
