package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBefore(t *testing.T) {
	ix := NewIndex([]float64{10, 20, 20, 30})

	tests := []struct {
		target float64
		want   int
	}{
		{target: 5, want: 0},
		{target: 10, want: 0},
		{target: 15, want: 1},
		{target: 20, want: 1},
		{target: 25, want: 3},
		{target: 30, want: 3},
		{target: 35, want: 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ix.FindBefore(tt.target), "target %v", tt.target)
	}
}

func TestFindEqual(t *testing.T) {
	ix := NewIndex([]float64{10, 20, 20, 30})

	pos, ok := ix.FindEqual(10)
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	pos, ok = ix.FindEqual(30)
	require.True(t, ok)
	assert.Equal(t, 3, pos)

	_, ok = ix.FindEqual(25)
	assert.False(t, ok)

	_, ok = ix.FindEqual(5)
	assert.False(t, ok)
}

func TestQuery(t *testing.T) {
	// Positions 0..3 hold timestamps 10, 20, 20, 30.
	ix := NewIndex([]float64{10, 20, 20, 30})

	// Walking back from before=25 returns the two items with timestamp 20,
	// newest-first relative to load order.
	got := ix.Query(25, 2, nil)
	assert.Equal(t, []int{2, 1}, got)

	// A cursor below every key returns nothing.
	assert.Empty(t, ix.Query(5, 10, nil))

	// A cursor beyond every key starts from the newest end.
	got = ix.Query(100, 10, nil)
	assert.Equal(t, []int{3, 2, 1, 0}, got)

	// Limit truncates.
	got = ix.Query(math.MaxFloat64, 1, nil)
	assert.Equal(t, []int{3}, got)

	// Filter is applied before the limit.
	even := func(pos int) bool { return pos%2 == 0 }
	got = ix.Query(100, 10, even)
	assert.Equal(t, []int{2, 0}, got)
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := NewIndex(nil)
	assert.Empty(t, ix.Query(100, 10, nil))
	assert.Equal(t, 0, ix.FindBefore(1))
	assert.Equal(t, 0, ix.Len())
}

func TestQueryUnsortedInput(t *testing.T) {
	// Buffers are not guaranteed globally sorted; the index must order them.
	ix := NewIndex([]float64{30, 10, 20})
	got := ix.Query(math.MaxFloat64, 10, nil)
	assert.Equal(t, []int{0, 2, 1}, got)
}
