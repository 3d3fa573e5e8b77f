package cmir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/lexer"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/parser"
	"github.com/arcturus-lang/armc/internal/typesys"
)

func lowerToMIR(t *testing.T, src string) *mir.Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	return mir.LowerProgram(hirProg)
}

func TestMonomorphizeInstantiatesGenericFunctionOnce(t *testing.T) {
	mirProg := lowerToMIR(t, `
		fun identity<T>(x: T) -> T {
			return x;
		}

		fun main() -> none {
			let y: int = identity<int>(1);
			print(y);
		}
	`)
	prog, err := LowerProgram(mirProg)
	require.NoError(t, err)

	// main plus exactly one concrete instantiation of identity.
	require.Len(t, prog.Functions, 2)
	entry := prog.Functions[prog.Entry]
	require.Equal(t, "main", entry.Name)

	for id, fn := range prog.Functions {
		if id == prog.Entry {
			continue
		}
		require.Equal(t, "identity", fn.Name)
		prim, ok := fn.RetType.IsPrim()
		require.True(t, ok)
		require.Equal(t, typesys.Integer, prim)
	}
}

func TestMonomorphizeRejectsDivergingGenericRecursion(t *testing.T) {
	mirProg := lowerToMIR(t, `
		fun wrap<T>(x: T) -> none {
			return wrap<&T>(ref x);
		}

		fun main() -> none {
			return wrap<int>(1);
		}
	`)
	_, err := LowerProgram(mirProg)
	require.Error(t, err)
	ce, ok := cerrors.As(err)
	require.True(t, ok)
	require.Equal(t, cerrors.MonomorphizationDiverges, ce.Kind)
}

// Monomorphizing the same program twice must number its functions, cells,
// and blocks identically and record the same newtype instantiations in the
// same order.
func TestMonomorphizeIsDeterministic(t *testing.T) {
	src := `
		struct Box<T> {
			inner: T,
		}

		fun unbox<T>(b: Box<T>) -> T {
			return b.inner;
		}

		fun main() -> none {
			let bi: Box<int> = Box<int> { inner: 1 };
			let bb: Box<bool> = Box<bool> { inner: true };
			print(unbox<int>(bi));
			let flag: bool = unbox<bool>(bb);
		}
	`
	first, err := LowerProgram(lowerToMIR(t, src))
	require.NoError(t, err)
	second, err := LowerProgram(lowerToMIR(t, src))
	require.NoError(t, err)

	opts := cmp.AllowUnexported(
		ids.FuncID{}, ids.BlockID{}, ids.CellID{},
		ids.NewtypeID{}, ids.TypevarID{}, typesys.ConcreteType{},
	)
	require.Empty(t, cmp.Diff(first.Functions, second.Functions, opts))
	require.Empty(t, cmp.Diff(first.Newtypes, second.Newtypes, opts))
	require.Equal(t, first.Entry, second.Entry)
}

func TestMonomorphizeInstantiatesSeparatelyPerConcreteTypeArgument(t *testing.T) {
	mirProg := lowerToMIR(t, `
		fun identity<T>(x: T) -> T {
			return x;
		}

		fun main() -> none {
			let y: int = identity<int>(1);
			let z: bool = identity<bool>(true);
			print(y);
		}
	`)
	prog, err := LowerProgram(mirProg)
	require.NoError(t, err)

	// main plus one instantiation of identity per distinct concrete type
	// argument: int and bool must not share a monomorphic function.
	require.Len(t, prog.Functions, 3)

	seenInt, seenBool := false, false
	for id, fn := range prog.Functions {
		if id == prog.Entry {
			continue
		}
		prim, ok := fn.RetType.IsPrim()
		require.True(t, ok)
		switch prim {
		case typesys.Integer:
			seenInt = true
		case typesys.Bool:
			seenBool = true
		}
	}
	require.True(t, seenInt)
	require.True(t, seenBool)
}
