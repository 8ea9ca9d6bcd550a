package compiler

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	res, err := Compile(context.Background(), "loop.pat", []byte(`for i = 1 to 3 { print i; }`))
	require.NoError(t, err)

	assert.NotEmpty(t, res.TAC)
	assert.NotEmpty(t, res.Optimized)
	assert.LessOrEqual(t, len(res.Optimized), len(res.TAC))
	assert.Contains(t, string(res.Source), "int main() {")

	t.Logf("generated:\n%s", res.Source)
}

func TestCompileOptimizes(t *testing.T) {
	res, err := Compile(context.Background(), "fold.pat", []byte(`int x = 2 + 3; print x;`))
	require.NoError(t, err)

	assert.Contains(t, string(res.Source), "x = 5;")
	assert.NotContains(t, string(res.Source), "2 + 3")
}

func TestCompileParseError(t *testing.T) {
	_, err := Compile(context.Background(), "bad.pat", []byte(`x = ;`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestCompileTypeError(t *testing.T) {
	_, err := Compile(context.Background(), "bad.pat", []byte(`int x = true;`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyze")
}

func TestRun(t *testing.T) {
	var out bytes.Buffer

	err := Run(context.Background(), "loop.pat", []byte(`for i = 1 to 3 { print i; }`), &out, strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, "123", out.String())
}

func TestRunMatchesGeneratedSemantics(t *testing.T) {
	src := []byte(`
func add(int a, int b) {
	return a + b;
}

int r = add(2, 3);
print r;
`)

	var out bytes.Buffer

	err := Run(context.Background(), "add.pat", src, &out, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "5", out.String())

	res, err := Compile(context.Background(), "add.pat", src)
	require.NoError(t, err)
	assert.Contains(t, string(res.Source), "cout << r;")
}
