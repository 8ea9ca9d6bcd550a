package interp

import (
	"fmt"
	"math"
	"strings"

	"tlog.app/go/errors"
)

// builtin dispatches the pattern and math routines. They mirror the
// C++ bodies the code generator emits, so both execution paths print
// the same text.
func (p *Interpreter) builtin(name string, args []Value) (Value, error) {
	arg := func(i int) Value {
		if i < len(args) {
			return args[i]
		}

		return Value{}
	}

	switch name {
	case "repeat":
		return TextVal(strings.Repeat(arg(0).Text, int(arg(1).Int))), nil
	case "pyramid":
		h := arg(0).Int
		for i := int64(1); i <= h; i++ {
			fmt.Fprintf(p.out, "%s%s\n", spaces(h-i), stars(2*i-1))
		}
	case "diamond":
		h := arg(0).Int
		for i := int64(1); i <= h; i++ {
			fmt.Fprintf(p.out, "%s%s\n", spaces(h-i), stars(2*i-1))
		}
		for i := h - 1; i >= 1; i-- {
			fmt.Fprintf(p.out, "%s%s\n", spaces(h-i), stars(2*i-1))
		}
	case "line":
		fmt.Fprintf(p.out, "%s\n", strings.Repeat(arg(0).Text, int(arg(1).Int)))
	case "box":
		for i := int64(0); i < arg(2).Int; i++ {
			fmt.Fprintf(p.out, "%s\n", strings.Repeat(arg(0).Text, int(arg(1).Int)))
		}
	case "stairs":
		for i := int64(1); i <= arg(0).Int; i++ {
			fmt.Fprintf(p.out, "%s\n", strings.Repeat(arg(1).Text, int(i)))
		}
	case "max":
		a, b := arg(0).Int, arg(1).Int
		if a > b {
			return IntVal(a), nil
		}

		return IntVal(b), nil
	case "min":
		a, b := arg(0).Int, arg(1).Int
		if a < b {
			return IntVal(a), nil
		}

		return IntVal(b), nil
	case "abs":
		x := arg(0).Int
		if x < 0 {
			x = -x
		}

		return IntVal(x), nil
	case "pow":
		return IntVal(ipow(arg(0).Int, arg(1).Int)), nil
	case "sqrt":
		return IntVal(int64(math.Sqrt(float64(arg(0).Int)))), nil
	case "rangeSum":
		n := arg(0).Int
		return IntVal(n * (n + 1) / 2), nil
	case "factor":
		n := arg(0).Int
		for i := int64(2); i <= n; i++ {
			for n%i == 0 {
				fmt.Fprintf(p.out, "%d ", i)
				n /= i
			}
		}

		fmt.Fprintln(p.out)
	case "isPrime":
		return BoolVal(isPrime(arg(0).Int)), nil
	case "table":
		n := arg(0).Int
		for i := int64(1); i <= n; i++ {
			for j := int64(1); j <= n; j++ {
				fmt.Fprintf(p.out, "%d\t", i*j)
			}

			fmt.Fprintln(p.out)
		}
	case "patternMultiply":
		for i := int64(0); i < arg(0).Int; i++ {
			fmt.Fprintf(p.out, "%s\n", stars(arg(1).Int))
		}
	default:
		return Value{}, errors.New("call to undeclared function %q", name)
	}

	return Value{}, nil
}

func spaces(n int64) string { return pad(n, ' ') }
func stars(n int64) string  { return pad(n, '*') }

func pad(n int64, c byte) string {
	if n <= 0 {
		return ""
	}

	return strings.Repeat(string(c), int(n))
}

func ipow(a, b int64) int64 {
	if b < 0 {
		return 0
	}

	r := int64(1)

	for ; b > 0; b-- {
		r *= a
	}

	return r
}

func isPrime(n int64) bool {
	if n <= 1 {
		return false
	}

	for i := int64(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}

	return true
}
