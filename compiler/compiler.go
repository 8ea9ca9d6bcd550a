// Package compiler wires the pipeline stages together: tokens, tree,
// checks, TAC, optimization, C++ text. It also exposes the
// interpreter entry, which shares the front half of the pipeline and
// skips the rest.
package compiler

import (
	"context"
	"io"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler/analyze"
	"github.com/patlang/pat/compiler/ast"
	"github.com/patlang/pat/compiler/back"
	"github.com/patlang/pat/compiler/interp"
	"github.com/patlang/pat/compiler/ir"
	"github.com/patlang/pat/compiler/lex"
	"github.com/patlang/pat/compiler/lower"
	"github.com/patlang/pat/compiler/opt"
	"github.com/patlang/pat/compiler/parse"
)

type (
	// Result carries the artifacts of a full compilation. Both the
	// raw and the optimized instruction lists are kept so callers can
	// show them side by side.
	Result struct {
		Prog      *ast.Program
		TAC       []ir.Instr
		Optimized []ir.Instr
		Source    []byte // generated C++
	}
)

func CompileFile(ctx context.Context, name string) (*Result, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

func Compile(ctx context.Context, name string, text []byte) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	prog, err := front(ctx, text)
	if err != nil {
		return nil, err
	}

	tac := lower.New().Generate(ctx, prog)

	if tr.If("dump_tac") {
		tr.Printw("raw tac")

		for i, t := range tac {
			tr.Printw("tac", "i", i, "instr", t)
		}
	}

	optimized := opt.New().Optimize(ctx, tac)

	if tr.If("dump_tac") {
		tr.Printw("optimized tac")

		for i, t := range optimized {
			tr.Printw("tac", "i", i, "instr", t)
		}
	}

	src := back.New().Generate(ctx, optimized, prog)

	return &Result{
		Prog:      prog,
		TAC:       tac,
		Optimized: optimized,
		Source:    src,
	}, nil
}

// RunFile interprets the program instead of compiling it. Program
// output goes to out; input statements read from in.
func RunFile(ctx context.Context, name string, out io.Writer, in io.Reader) error {
	text, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	return Run(ctx, name, text, out, in)
}

func Run(ctx context.Context, name string, text []byte, out io.Writer, in io.Reader) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "run", "name", name)
	defer tr.Finish("err", &err)

	prog, err := front(ctx, text)
	if err != nil {
		return err
	}

	err = interp.New(out, in).Run(ctx, prog)
	if err != nil {
		return errors.Wrap(err, "interpret")
	}

	return nil
}

func front(ctx context.Context, text []byte) (*ast.Program, error) {
	tokens := lex.Tokenize(text)

	prog, err := parse.Parse(ctx, tokens)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	err = analyze.New().Analyze(ctx, prog)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	return prog, nil
}
