package bayra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableIndexRoundTrip(t *testing.T) {
	d3 := NewDomain("d3", "a", "b", "c")
	x := NewVariable("x", Boolean)
	y := NewVariable("y", d3)
	tab, err := NewTable[float64](x, y)
	require.NoError(t, err)
	require.Equal(t, 6, tab.Size())

	for idx := 0; idx < tab.Size(); idx++ {
		key := tab.Key(idx, nil)
		back, err := tab.Index(key)
		require.NoError(t, err)
		assert.Equal(t, idx, back)
	}
}

func TestTableGetSetPresence(t *testing.T) {
	x := NewVariable("x", Boolean)
	tab, err := NewTable[int](x)
	require.NoError(t, err)

	_, ok := tab.At(0)
	assert.False(t, ok)

	require.NoError(t, tab.Set([]int{1}, 42))
	v, ok, err := tab.Get([]int{1})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTableInvalidKeys(t *testing.T) {
	x := NewVariable("x", Boolean)
	tab, err := NewTable[int](x)
	require.NoError(t, err)

	_, err = tab.Index([]int{0, 0})
	assert.ErrorContains(t, err, "invalid key")
	_, err = tab.Index([]int{5})
	assert.ErrorIs(t, err, ErrInvalidDomain)

	c := NewContinuous("c")
	_, err = NewTable[int](c)
	assert.ErrorContains(t, err, "not enumerable")
}

func TestTableIndicesMatching(t *testing.T) {
	d3 := NewDomain("d3", "a", "b", "c")
	x := NewVariable("x", Boolean)
	y := NewVariable("y", d3)
	z := NewVariable("z", Boolean)
	tab, err := NewTable[int](x, y, z)
	require.NoError(t, err)

	got, err := tab.IndicesMatching([]int{-1, 1, -1})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, idx := range got {
		key := tab.Key(idx, nil)
		assert.Equal(t, 1, key[1])
	}

	all, err := tab.IndicesMatching([]int{-1, -1, -1})
	require.NoError(t, err)
	assert.Len(t, all, tab.Size())
}
