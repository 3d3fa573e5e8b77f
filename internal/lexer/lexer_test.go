package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks, err := Lex("fun main struct ref deref")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.Fun, token.Ident, token.Struct, token.Ref, token.Deref, token.EOF}, kinds(toks))
	require.Equal(t, "main", toks[1].Text)
}

func TestLexArrowIsNotMinusThenGt(t *testing.T) {
	toks, err := Lex("->")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.Arrow, token.EOF}, kinds(toks))
}

func TestLexEqEqIsNotTwoEquals(t *testing.T) {
	toks, err := Lex("==")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.EqEq, token.EOF}, kinds(toks))
}

func TestLexSkipsLineComments(t *testing.T) {
	toks, err := Lex("let x // trailing comment\n = 1")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.Let, token.Ident, token.Eq, token.Int, token.EOF}, kinds(toks))
}

func TestLexRecordsOffsets(t *testing.T) {
	toks, err := Lex("  x")
	require.NoError(t, err)
	require.Equal(t, 2, toks[0].Offset)
}

func TestLexInvalidCharacterIsLexicalError(t *testing.T) {
	_, err := Lex("let x = @")
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.Lexical, ce.Kind)
}
