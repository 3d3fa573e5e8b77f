package dump

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
	"github.com/arcturus-lang/armc/internal/token"
)

const src = `
	struct Pair {
		x: int,
		y: int,
	}

	fun main() -> int {
		let p: Pair = Pair { x: 1, y: 2 };
		let i: int = 0;
		while i < p.x {
			i = i + 1;
		}
		print(p.y);
		return 0;
	}
`

func lexed(t *testing.T) []token.Token {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	return toks
}

func TestTokensDumpListsEveryToken(t *testing.T) {
	toks := lexed(t)
	var sb strings.Builder
	Tokens(&sb, toks)
	out := sb.String()
	require.Equal(t, len(toks), strings.Count(out, "\n"))
	require.Contains(t, out, "struct")
	require.Contains(t, out, "while")
}

func TestEveryStageDumpIsNonEmptyAndLabelled(t *testing.T) {
	astProg, err := parser.Parse(lexed(t))
	require.NoError(t, err)
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	mirProg := mir.LowerProgram(hirProg)
	cmirProg, err := cmir.LowerProgram(mirProg)
	require.NoError(t, err)
	lirProg, err := lir.LowerProgram(cmirProg)
	require.NoError(t, err)

	var astOut, hirOut, mirOut, cmirOut, lirOut strings.Builder
	AST(&astOut, astProg)
	HIR(&hirOut, hirProg)
	MIR(&mirOut, mirProg)
	CMIR(&cmirOut, cmirProg)
	LIR(&lirOut, lirProg)

	require.Contains(t, astOut.String(), "fun main")
	require.Contains(t, astOut.String(), "while")

	require.Contains(t, hirOut.String(), "func_0 main")
	require.Contains(t, hirOut.String(), "print")

	// The CFG-shaped stages label blocks the way the emitter labels them,
	// so a dump and its assembly read side by side.
	require.Contains(t, mirOut.String(), "block_0:")
	require.Contains(t, mirOut.String(), "branch")
	require.Contains(t, cmirOut.String(), "block_0:")
	require.Contains(t, lirOut.String(), "chunk0:")
	require.Contains(t, lirOut.String(), "goto block_")
}
