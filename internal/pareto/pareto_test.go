package pareto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDominatesRequiresNoWorseAndOneBetter(t *testing.T) {
	require.True(t, Dominates([]int{2, 2}, []int{1, 2}))
	require.True(t, Dominates([]int{2, 2}, []int{2, 1}))
	require.False(t, Dominates([]int{1, 1}, []int{1, 1})) // equal, not strictly better anywhere
	require.False(t, Dominates([]int{1, 2}, []int{2, 1})) // mixed, neither dominates
}

func TestGuardAllowsNonMonotoneSequence(t *testing.T) {
	g := NewGuard()
	require.False(t, g.Observe("f", []int{1, 0}))
	require.False(t, g.Observe("f", []int{0, 1})) // incomparable with the first
	require.False(t, g.Observe("f", []int{1, 0})) // identical to the first, not strictly better
}

func TestGuardCatchesParetoMonotoneGrowth(t *testing.T) {
	g := NewGuard()
	require.False(t, g.Observe("f", []int{0}))
	require.True(t, g.Observe("f", []int{1})) // strictly dominates the first observation
}

func TestGuardBucketsAreIndependent(t *testing.T) {
	g := NewGuard()
	require.False(t, g.Observe("f", []int{0}))
	require.False(t, g.Observe("g", []int{1})) // different generic function, no relation to f's history
}
