// Command armc is the driver: a single, fixed-arity CLI that runs the
// whole pipeline (lexer -> parser -> HIR -> MIR -> CMIR -> LIR -> asm) over
// one source file and writes the assembly output plus five debug dumps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcturus-lang/armc/internal/asm"
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/dump"
	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/lexer"
	"github.com/arcturus-lang/armc/internal/lir"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/parser"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		errorexit(err)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "armc SRC OUT TOKENS AST HIR MIR LIR",
		Short: "armc compiles a source file to 32-bit ARM assembly",
		Args:  cobra.ExactArgs(7),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(args[0], args[1], args[2], args[3], args[4], args[5], args[6])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// compile runs the full pipeline and writes every output file. It stops at
// the first pass that fails. The assembly file is written only when every
// pass succeeds; dumps of the passes that ran before the failure stay on
// disk.
func compile(srcPath, outPath, tokensPath, astPath, hirPath, mirPath, lirPath string) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	toks, err := lexer.Lex(string(src))
	if err != nil {
		return cerrors.Wrap(err, "lex")
	}
	if err := writeDump(tokensPath, func(f *os.File) { dump.Tokens(f, toks) }); err != nil {
		return err
	}

	astProg, err := parser.Parse(toks)
	if err != nil {
		return cerrors.Wrap(err, "parse")
	}
	if err := writeDump(astPath, func(f *os.File) { dump.AST(f, astProg) }); err != nil {
		return err
	}

	hirProg, err := hir.LowerProgram(astProg)
	if err != nil {
		return cerrors.Wrap(err, "hir")
	}
	if err := writeDump(hirPath, func(f *os.File) { dump.HIR(f, hirProg) }); err != nil {
		return err
	}

	mirProg := mir.LowerProgram(hirProg)
	if err := writeDump(mirPath, func(f *os.File) { dump.MIR(f, mirProg) }); err != nil {
		return err
	}

	cmirProg, err := cmir.LowerProgram(mirProg)
	if err != nil {
		return cerrors.Wrap(err, "monomorphization")
	}

	lirProg, err := lir.LowerProgram(cmirProg)
	if err != nil {
		return cerrors.Wrap(err, "layout")
	}
	if err := writeDump(lirPath, func(f *os.File) { dump.LIR(f, lirProg) }); err != nil {
		return err
	}

	text, err := asm.Compile(lirProg)
	if err != nil {
		return cerrors.Wrap(err, "codegen")
	}
	return os.WriteFile(outPath, []byte(text), 0o644)
}

func writeDump(path string, write func(*os.File)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	write(f)
	return nil
}

// errorexit prints a single line and leaves with a nonzero status,
// recovering the taxonomy Kind when one is present so the message names
// the error class instead of showing a raw wrapped chain.
func errorexit(err error) {
	if ce, ok := cerrors.As(err); ok {
		fmt.Fprintf(os.Stderr, "armc: %s\n", ce.Error())
	} else {
		fmt.Fprintf(os.Stderr, "armc: %s\n", err)
	}
	os.Exit(1)
}
