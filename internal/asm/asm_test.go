package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/lexer"
	"github.com/arcturus-lang/armc/internal/lir"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/parser"
)

func compileSource(t *testing.T, src string) string {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	mirProg := mir.LowerProgram(hirProg)
	cmirProg, err := cmir.LowerProgram(mirProg)
	require.NoError(t, err)
	lirProg, err := lir.LowerProgram(cmirProg)
	require.NoError(t, err)
	text, err := Compile(lirProg)
	require.NoError(t, err)
	return text
}

func TestCompileEmitsEntryTrampoline(t *testing.T) {
	text := compileSource(t, `fun main() -> none { }`)
	require.Contains(t, text, ".global main")
	require.Contains(t, text, ".extern printf")
	require.Contains(t, text, "main:")
	require.Contains(t, text, "bl func_0")
}

func TestCompileEmitsPrintCallWithFormatString(t *testing.T) {
	text := compileSource(t, `
		fun main() -> none {
			print(1 + 2);
		}
	`)
	require.Contains(t, text, `fmt: .asciz "%d\n"`)
	require.Contains(t, text, "bl printf")
	require.Contains(t, text, "add r0, r1, r0")
}

func TestCompileEmitsBranchForIf(t *testing.T) {
	text := compileSource(t, `
		fun main() -> none {
			if true {
				print(1);
			} else {
				print(2);
			}
		}
	`)
	require.Contains(t, text, "cmp r0, #1")
	require.True(t, strings.Contains(text, "beq block_"))
}

func TestCompileFunctionCallUsesArgumentRegisters(t *testing.T) {
	text := compileSource(t, `
		fun add(a: int, b: int) -> int {
			return a + b;
		}

		fun main() -> none {
			print(add(1, 2));
		}
	`)
	require.Contains(t, text, "mov r1, r0")
	require.Contains(t, text, "mov r2, r0")
	require.Contains(t, text, "bl func_")
}

func TestCompileRejectsFunctionDeclarationOverArityLimit(t *testing.T) {
	text, err := compileOrErr(t, `
		fun f(a: int, b: int, c: int, d: int, e: int) -> none { }
		fun main() -> none { let done: none = f(1, 2, 3, 4, 5); }
	`)
	require.Error(t, err)
	require.Empty(t, text)
}

func TestCompileDerefFieldAccessAddsOffsetRatherThanSubtracting(t *testing.T) {
	text := compileSource(t, `
		struct Pair {
			x: int,
			y: int,
		}

		fun bumpY(p: &Pair) -> none {
			deref p = Pair { x: (deref p).x, y: (deref p).y + 1 };
		}

		fun main() -> none {
			let pair: Pair = Pair { x: 1, y: 2 };
			let done: none = bumpY(ref pair);
			print(pair.y);
		}
	`)
	require.Contains(t, text, "ldr r0, [r0, #8]")
	require.Contains(t, text, "str r0, [r1, #8]")
	require.NotContains(t, text, "[r0, #-8]")
	require.NotContains(t, text, "[r1, #-8]")
}

func compileOrErr(t *testing.T, src string) (string, error) {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	mirProg := mir.LowerProgram(hirProg)
	cmirProg, err := cmir.LowerProgram(mirProg)
	require.NoError(t, err)
	lirProg, err := lir.LowerProgram(cmirProg)
	require.NoError(t, err)
	return Compile(lirProg)
}
