package binops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/typesys"
)

func TestTypecheckArithmeticRequiresInteger(t *testing.T) {
	integer := typesys.PrimG(typesys.Integer)
	boolean := typesys.PrimG(typesys.Bool)

	result, ok := Typecheck(Add, integer, integer)
	require.True(t, ok)
	require.True(t, result.Equal(integer))

	_, ok = Typecheck(Add, integer, boolean)
	require.False(t, ok)
}

func TestTypecheckEqualsAcceptsAnyMatchingType(t *testing.T) {
	boolean := typesys.PrimG(typesys.Bool)
	result, ok := Typecheck(Equals, boolean, boolean)
	require.True(t, ok)
	require.True(t, result.Equal(boolean))
}

func TestTypecheckLessRequiresIntegerAndYieldsBool(t *testing.T) {
	integer := typesys.PrimG(typesys.Integer)
	result, ok := Typecheck(Less, integer, integer)
	require.True(t, ok)
	require.True(t, result.Equal(typesys.PrimG(typesys.Bool)))
}

func TestTypecheckModuloRejectsBool(t *testing.T) {
	boolean := typesys.PrimG(typesys.Bool)
	_, ok := Typecheck(Modulo, boolean, boolean)
	require.False(t, ok)
}
