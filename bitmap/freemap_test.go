package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeMapStartsAllUsed(t *testing.T) {
	m := NewFreeMap(10)

	assert.Equal(t, 0, m.FreeCount())
	assert.False(t, m.IsFree(0))
}

func TestFreeMapMarkFreeAndUsed(t *testing.T) {
	m := NewFreeMap(4)

	require.NoError(t, m.MarkFree(1))
	require.NoError(t, m.MarkFree(2))

	assert.True(t, m.IsFree(1))
	assert.True(t, m.IsFree(2))
	assert.Equal(t, 2, m.FreeCount())

	require.NoError(t, m.MarkUsed(1))
	assert.False(t, m.IsFree(1))
	assert.Equal(t, 1, m.FreeCount())
}

func TestFreeMapOutOfRange(t *testing.T) {
	m := NewFreeMap(4)

	assert.Error(t, m.MarkFree(4))
	assert.Error(t, m.MarkUsed(-1))
	assert.False(t, m.IsFree(10))
}

func TestFreeMapRanges(t *testing.T) {
	m := NewFreeMap(8)

	require.NoError(t, m.MarkRangeFree(2, 4))
	assert.Equal(t, 4, m.FreeCount())

	require.NoError(t, m.MarkRangeUsed(3, 1))
	assert.False(t, m.IsFree(3))
	assert.Equal(t, 3, m.FreeCount())
}

func TestFreeMapFindFreeRun(t *testing.T) {
	m := NewFreeMap(8)
	require.NoError(t, m.MarkRangeFree(3, 3))

	start, ok := m.FindFreeRun(0, 3)

	assert.True(t, ok)
	assert.Equal(t, 3, start)
}

func TestFreeMapFindFreeRunNotFound(t *testing.T) {
	m := NewFreeMap(4)

	_, ok := m.FindFreeRun(0, 1)

	assert.False(t, ok)
}

func TestFreeMapFindFreeBlocksNonContiguous(t *testing.T) {
	m := NewFreeMap(8)
	require.NoError(t, m.MarkFree(1))
	require.NoError(t, m.MarkFree(5))
	require.NoError(t, m.MarkFree(6))

	blocks, ok := m.FindFreeBlocks(3)

	assert.True(t, ok)
	assert.Equal(t, []int{1, 5, 6}, blocks)
}

func TestFreeMapBytesRoundTrip(t *testing.T) {
	m := NewFreeMap(8)
	require.NoError(t, m.MarkFree(0))
	require.NoError(t, m.MarkFree(7))

	restored := FromBytes(m.Bytes(), 8)

	assert.True(t, restored.IsFree(0))
	assert.True(t, restored.IsFree(7))
	assert.False(t, restored.IsFree(3))
}
