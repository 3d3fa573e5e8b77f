package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cerrors"
)

// runCompile writes src to a temp source file and runs the full pipeline,
// returning the emitted assembly text (or the error, with no assembly file
// written) and the directory holding every debug dump for inspection.
func runCompile(t *testing.T, src string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "input.arc")
	require.NoError(t, os.WriteFile(srcPath, []byte(src), 0o644))

	outPath := filepath.Join(dir, "out.s")
	err := compile(srcPath, outPath,
		filepath.Join(dir, "tokens.txt"),
		filepath.Join(dir, "ast.txt"),
		filepath.Join(dir, "hir.txt"),
		filepath.Join(dir, "mir.txt"),
		filepath.Join(dir, "lir.txt"),
	)
	if err != nil {
		return "", dir, err
	}
	text, readErr := os.ReadFile(outPath)
	require.NoError(t, readErr)
	return string(text), dir, nil
}

func TestArithmeticAndPrecedence(t *testing.T) {
	text, _, err := runCompile(t, `fun main() -> int { print(1 + 2 * 3); return 0; }`)
	require.NoError(t, err)
	require.Contains(t, text, "mul r0, r1, r0")
	require.Contains(t, text, "add r0, r1, r0")
	require.Contains(t, text, "bl printf")
}

func TestLoopWithEarlyExit(t *testing.T) {
	text, _, err := runCompile(t, `
		fun main() -> int {
			let i: int = 0;
			while i < 10 {
				if i == 5 {
					break;
				}
				print(i);
				i = i + 1;
			}
			return 0;
		}
	`)
	require.NoError(t, err)
	require.Contains(t, text, "cmp r1, r0") // the < and == comparisons both lower through compileBinOp
	require.Contains(t, text, "bl printf")
}

func TestUserFunctionCall(t *testing.T) {
	text, _, err := runCompile(t, `
		fun add(a: int, b: int) -> int {
			return a + b;
		}

		fun main() -> int {
			print(add(40, 2));
			return 0;
		}
	`)
	require.NoError(t, err)
	require.Contains(t, text, "func_")
	require.Contains(t, text, "mov r1, r0")
	require.Contains(t, text, "mov r2, r0")
}

func TestStructFieldAccess(t *testing.T) {
	text, _, err := runCompile(t, `
		struct Pair {
			x: int,
			y: int,
		}

		fun main() -> int {
			let p: Pair = Pair { x: 10, y: 32 };
			print(p.x + p.y);
			return 0;
		}
	`)
	require.NoError(t, err)
	require.Contains(t, text, "add r0, r1, r0")
}

func TestReferenceRoundTrip(t *testing.T) {
	text, _, err := runCompile(t, `
		fun setSeven(p: &int) -> none {
			deref p = 7;
		}

		fun main() -> int {
			let v: int = 0;
			let done: none = setSeven(ref v);
			print(v);
			return 0;
		}
	`)
	require.NoError(t, err)
	require.Contains(t, text, "ldr r1, [fp, #-") // deref-place store through the saved pointer
}

func TestDivergingGenericIsRejected(t *testing.T) {
	_, dir, err := runCompile(t, `
		fun f<T>(x: T) -> int {
			return f<&T>(ref x);
		}

		fun main() -> int {
			return f<int>(1);
		}
	`)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.MonomorphizationDiverges, ce.Kind)

	_, statErr := os.Stat(filepath.Join(dir, "out.s"))
	require.True(t, os.IsNotExist(statErr), "no assembly file should be written on a failed compile")
}

func TestCompileWritesAllFiveDebugDumps(t *testing.T) {
	_, dir, err := runCompile(t, `fun main() -> none { print(1); }`)
	require.NoError(t, err)
	for _, name := range []string{"tokens.txt", "ast.txt", "hir.txt", "mir.txt", "lir.txt"} {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, readErr)
		require.NotEmpty(t, strings.TrimSpace(string(data)))
	}
}

func TestErrorExitReportsSingleLineOnLexicalError(t *testing.T) {
	_, _, err := runCompile(t, `fun main() -> none { let x: int = @; }`)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.Lexical, ce.Kind)
}
