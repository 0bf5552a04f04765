package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNumberMapStartsAllFree(t *testing.T) {
	m := NewFileNumberMap(4)

	assert.Equal(t, 4, m.FreeCount())
	assert.True(t, m.IsFree(0))
}

func TestFileNumberMapAllocateBlocks(t *testing.T) {
	m := NewFileNumberMap(4)

	blocks, err := m.AllocateBlocks(5, 2)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, blocks)
	assert.Equal(t, 2, m.FreeCount())

	owner, err := m.Owner(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), owner)
}

func TestFileNumberMapAllocateInsufficientSpace(t *testing.T) {
	m := NewFileNumberMap(2)

	_, err := m.AllocateBlocks(1, 3)

	assert.Error(t, err)
	assert.Equal(t, 2, m.FreeCount(), "a failed allocation must not mutate any slot")
}

func TestFileNumberMapRelease(t *testing.T) {
	m := NewFileNumberMap(4)
	_, err := m.AllocateBlocks(7, 3)
	require.NoError(t, err)

	freed := m.Release(7)

	assert.Equal(t, 3, freed)
	assert.Equal(t, 4, m.FreeCount())
}

func TestFileNumberMapNextFreeFileNumber(t *testing.T) {
	m := NewFileNumberMap(4)
	require.NoError(t, m.Assign(0, 1))
	require.NoError(t, m.Assign(1, 2))

	n, err := m.NextFreeFileNumber(1, 5)

	require.NoError(t, err)
	assert.Equal(t, uint8(3), n)
}

func TestFileNumberMapNextFreeFileNumberExhausted(t *testing.T) {
	m := NewFileNumberMap(1)
	require.NoError(t, m.Assign(0, 1))

	_, err := m.NextFreeFileNumber(1, 1)

	assert.Error(t, err)
}

func TestFileNumberMapSlotsRoundTrip(t *testing.T) {
	m := NewFileNumberMap(3)
	require.NoError(t, m.Assign(1, 9))

	restored := FromSlots(m.Slots())

	owner, err := restored.Owner(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), owner)
}
