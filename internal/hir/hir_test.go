package hir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/lexer"
	"github.com/arcturus-lang/armc/internal/parser"
	"github.com/arcturus-lang/armc/internal/typesys"
)

func mustLower(t *testing.T, src string) *Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)
	prog, err := LowerProgram(astProg)
	require.NoError(t, err)
	return prog
}

func TestLowerProgramRequiresMain(t *testing.T) {
	toks, err := lexer.Lex(`fun f() -> int { return 1; }`)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)

	_, err = LowerProgram(astProg)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.MissingMain, ce.Kind)
}

func TestLowerProgramFindsEntryPoint(t *testing.T) {
	prog := mustLower(t, `fun main() -> none { }`)
	entry, ok := prog.Functions[prog.Entry]
	require.True(t, ok)
	require.Equal(t, "main", entry.Name)
}

func TestLowerResolvesVariableScope(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			let x: int = 1;
			print(x);
		}
	`)
	fn := prog.Functions[prog.Entry]
	let := fn.Body[0].(LetStmt)
	print := fn.Body[1].(PrintStmt)
	ref := print.Value.Kind.(VariableExpr)
	require.Equal(t, let.Var, ref.Var)
}

func TestLowerRejectsUnboundVariable(t *testing.T) {
	toks, err := lexer.Lex(`
		fun main() -> none {
			print(missing);
		}
	`)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)

	_, err = LowerProgram(astProg)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.UnboundName, ce.Kind)
}

func TestLowerRejectsBreakOutsideLoop(t *testing.T) {
	toks, err := lexer.Lex(`
		fun main() -> none {
			break;
		}
	`)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)

	_, err = LowerProgram(astProg)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.ControlOutsideLoop, ce.Kind)
}

func TestLowerAllowsBreakInsideLoop(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			while true {
				break;
			}
		}
	`)
	fn := prog.Functions[prog.Entry]
	loop := fn.Body[0].(WhileStmt)
	_, ok := loop.Body[0].(BreakStmt)
	require.True(t, ok)
}

func TestLowerRejectsTypeMismatchInLet(t *testing.T) {
	toks, err := lexer.Lex(`
		fun main() -> none {
			let x: int = true;
		}
	`)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)

	_, err = LowerProgram(astProg)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.TypeMismatch, ce.Kind)
}

func TestLowerDereferenceUnwrapsOneReferenceLevel(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			let x: int = 1;
			let p: &int = ref x;
			let y: int = deref p;
		}
	`)
	fn := prog.Functions[prog.Entry]
	letY := fn.Body[2].(LetStmt)
	prim, ok := letY.Value.Type.IsPrim()
	require.True(t, ok)
	require.Equal(t, typesys.Integer, prim) // deref of &int yields int, not &int
}

func TestLowerPopulatesCallGraph(t *testing.T) {
	prog := mustLower(t, `
		fun helper() -> int { return 1; }
		fun main() -> none {
			print(helper());
		}
	`)
	require.NotNil(t, prog.CallGraph)
	var mainID, helperID = prog.Entry, prog.Entry
	for id, fn := range prog.Functions {
		if fn.Name == "helper" {
			helperID = id
		}
		if fn.Name == "main" {
			mainID = id
		}
	}
	callees := prog.CallGraph.ConcreteCallees(mainID, nil)
	require.Len(t, callees, 1)
	require.Equal(t, helperID, callees[0].Func)
}
