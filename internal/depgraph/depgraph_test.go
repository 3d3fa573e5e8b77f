package depgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortOrdersDependenciesFirst(t *testing.T) {
	deps := map[string][]string{
		"c": {"b"},
		"b": {"a"},
		"a": nil,
	}
	order, ok := Sort(deps)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSortDetectsCycle(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	_, ok := Sort(deps)
	require.False(t, ok)
}

func TestSortHandlesDiamond(t *testing.T) {
	deps := map[string][]string{
		"d": {"b", "c"},
		"b": {"a"},
		"c": {"a"},
		"a": nil,
	}
	order, ok := Sort(deps)
	require.True(t, ok)
	index := make(map[string]int, len(order))
	for i, n := range order {
		index[n] = i
	}
	require.Less(t, index["a"], index["b"])
	require.Less(t, index["a"], index["c"])
	require.Less(t, index["b"], index["d"])
	require.Less(t, index["c"], index["d"])
}
