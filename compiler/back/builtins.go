package back

import (
	"sort"

	"github.com/patlang/pat/compiler/ast"
	"github.com/patlang/pat/compiler/ir"
)

// builtinCode holds ready C++ implementations for the built-in
// pattern and math functions. Only the ones a program actually calls
// are copied into the output, and a user function with the same name
// suppresses the built-in entirely.
var builtinCode = map[string]string{
	"repeat": "string repeat(string c, int times) { string s; for (int i = 0; i < times; ++i) s += c; return s; }\n",
	"pyramid": "void pyramid(int height) { for (int i = 1; i <= height; ++i) { for (int j = 0; j < height - i; ++j) cout << ' '; for (int j = 0; j < 2 * i - 1; ++j) cout << '*'; cout << endl; } }\n",
	"diamond": "void diamond(int height) { int n = height; for (int i = 1; i <= n; ++i) { for (int j = 0; j < n - i; ++j) cout << ' '; for (int j = 0; j < 2 * i - 1; ++j) cout << '*'; cout << endl; } for (int i = n - 1; i >= 1; --i) { for (int j = 0; j < n - i; ++j) cout << ' '; for (int j = 0; j < 2 * i - 1; ++j) cout << '*'; cout << endl; } }\n",
	"line": "void line(string c, int width) { for (int i = 0; i < width; ++i) cout << c; cout << endl; }\n",
	"box": "void box(string c, int width, int height) { for (int i = 0; i < height; ++i) { for (int j = 0; j < width; ++j) cout << c; cout << endl; } }\n",
	"stairs": "void stairs(int height, string c) { for (int i = 1; i <= height; ++i) { for (int j = 0; j < i; ++j) cout << c; cout << endl; } }\n",
	"max": "int max(int a, int b) { return a > b ? a : b; }\n",
	"min": "int min(int a, int b) { return a < b ? a : b; }\n",
	"abs": "int abs(int x) { return x < 0 ? -x : x; }\n",
	"pow": "int pow(int a, int b) { return static_cast<int>(std::pow(a, b)); }\n",
	"sqrt": "int sqrt(int n) { return static_cast<int>(std::sqrt(n)); }\n",
	"rangeSum": "int rangeSum(int n) { int s = 0; for (int i = 1; i <= n; ++i) s += i; return s; }\n",
	"factor": "void factor(int n) { for (int i = 2; i <= n; ++i) { while (n % i == 0) { cout << i << ' '; n /= i; } } cout << endl; }\n",
	"isPrime": "bool isPrime(int n) { if (n <= 1) return false; for (int i = 2; i * i <= n; ++i) if (n % i == 0) return false; return true; }\n",
	"table": "void table(int n) { for (int i = 1; i <= n; ++i) { for (int j = 1; j <= n; ++j) cout << i * j << '\\t'; cout << endl; } }\n",
	"patternMultiply": "void patternMultiply(int a, int b) { for (int i = 0; i < a; ++i) { for (int j = 0; j < b; ++j) cout << '*'; cout << endl; } }\n",
}

// usedBuiltins gathers callee names from the instruction list and
// from the top-level tree nodes the instruction list doesn't carry
// (statement calls, printed calls).
func (g *Generator) usedBuiltins() map[string]bool {
	used := map[string]bool{}

	for _, t := range g.code {
		if t.Op == ir.OpCall && t.Name != "" {
			used[t.Name] = true
		}
	}

	for _, d := range g.prog.Decls {
		switch d := d.(type) {
		case *ast.CallStmt:
			used[d.Name] = true
		case ast.Print:
			if c, ok := d.Expr.(*ast.Call); ok {
				used[c.Name] = true
			}
		}
	}

	return used
}

func (g *Generator) appendBuiltins(b []byte) []byte {
	used := g.usedBuiltins()

	names := make([]string, 0, len(used))

	for name := range used {
		if builtinCode[name] == "" || g.findDecl(name) != nil {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		b = append(b, builtinCode[name]...)
	}

	b = append(b, '\n')

	return b
}
