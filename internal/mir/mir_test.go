package mir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/ids"
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
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	return LowerProgram(hirProg)
}

// assertWellFormedCFG checks the invariant every MIR function must hold:
// every block ends with exactly one terminator, every branch target names a
// block that exists, and the entry block is among them.
func assertWellFormedCFG(t *testing.T, fn *Function) {
	t.Helper()
	_, ok := fn.Blocks[fn.Entry]
	require.True(t, ok, "entry block must exist")
	for id, block := range fn.Blocks {
		require.NotNil(t, block.Terminator, "block %v has no terminator", id)
		switch term := block.Terminator.(type) {
		case Goto:
			_, ok := fn.Blocks[term.Target]
			require.True(t, ok, "goto target %v does not exist", term.Target)
		case Branch:
			_, ok := fn.Blocks[term.Then]
			require.True(t, ok, "branch then-target %v does not exist", term.Then)
			_, ok = fn.Blocks[term.Else]
			require.True(t, ok, "branch else-target %v does not exist", term.Else)
		case Return:
		default:
			t.Fatalf("unknown terminator kind %T", term)
		}
	}
}

func TestLowerIfProducesWellFormedCFG(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			let x: int = 1;
			if x == 1 {
				print(1);
			} else {
				print(2);
			}
		}
	`)
	assertWellFormedCFG(t, prog.Functions[prog.Entry])
}

func TestLowerWhileProducesWellFormedCFG(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			let x: int = 0;
			while x < 10 {
				x = x + 1;
				if x == 5 {
					break;
				}
				continue;
			}
		}
	`)
	assertWellFormedCFG(t, prog.Functions[prog.Entry])
}

func TestLowerFunctionFallsThroughToImplicitReturn(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			print(1);
		}
	`)
	fn := prog.Functions[prog.Entry]
	assertWellFormedCFG(t, fn)

	found := false
	for _, block := range fn.Blocks {
		if ret, ok := block.Terminator.(Return); ok {
			found = true
			require.False(t, ret.HasValue)
		}
	}
	require.True(t, found, "expected a reachable Return terminator")
}

// Lowering the same source twice must produce structurally identical MIR,
// ids included — cell and block numbering is fixed by the source, not by
// map iteration order, so dumps and labels are reproducible.
func TestLowerIsDeterministic(t *testing.T) {
	src := `
		struct Pair {
			x: int,
			y: int,
		}

		fun main() -> none {
			let p: Pair = Pair { x: 1, y: 2 };
			let i: int = 0;
			while i < p.x {
				if i == 1 {
					break;
				}
				i = i + 1;
			}
			print(p.y);
		}
	`
	first := mustLower(t, src)
	second := mustLower(t, src)

	diff := cmp.Diff(first.Functions, second.Functions, cmp.AllowUnexported(
		ids.FuncID{}, ids.BlockID{}, ids.CellID{}, ids.VarID{},
		ids.NewtypeID{}, ids.TypevarID{}, typesys.GenericType{},
	))
	require.Empty(t, diff)
	require.Equal(t, first.Entry, second.Entry)
}

func TestLowerIntroducesTempCellsForIntermediateValues(t *testing.T) {
	prog := mustLower(t, `
		fun main() -> none {
			print(1 + 2 * 3);
		}
	`)
	fn := prog.Functions[prog.Entry]
	hasTemp := false
	for _, cell := range fn.Cells {
		if _, ok := cell.Kind.(TempCell); ok {
			hasTemp = true
		}
	}
	require.True(t, hasTemp, "nested binary expression should allocate a temporary")
}
