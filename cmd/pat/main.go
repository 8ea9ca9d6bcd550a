package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/patlang/pat/compiler"
	"github.com/patlang/pat/compiler/ir"
)

func main() {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source files to C++ (written to output.cpp)",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "interpret source files directly, bypassing codegen",
		Action:      runAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "pat",
		Description: "pat is a tool for managing pat source code",
		Commands: []*cli.Command{
			compileCmd,
			runCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	if len(c.Args) == 0 {
		return errors.New("usage: pat %v <file>", c.Name)
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		res, err := compiler.CompileFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		fmt.Printf("=== RAW TAC (Before Optimization) ===\n%s\n", ir.Dump(nil, res.TAC))
		fmt.Printf("=== OPTIMIZED TAC ===\n%s=== END OPTIMIZED TAC ===\n\n", ir.Dump(nil, res.Optimized))

		err = os.WriteFile("output.cpp", res.Source, 0o644)
		if err != nil {
			return errors.Wrap(err, "write output")
		}

		fmt.Printf("Generated output.cpp - compile with: g++ output.cpp -o out && ./out\n")
	}

	return nil
}

func runAct(c *cli.Command) (err error) {
	if len(c.Args) == 0 {
		return errors.New("usage: pat %v <file>", c.Name)
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		err := compiler.RunFile(ctx, a, os.Stdout, os.Stdin)
		if err != nil {
			return errors.Wrap(err, "run %v", a)
		}
	}

	return nil
}
