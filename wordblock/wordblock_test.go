package wordblock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/block"
	"pdpimage/storage"
)

func newTestDevice(t *testing.T, blocks int64) *Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := storage.Create(path, blocks*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	t.Cleanup(func() { img.Close() })
	return New(block.New(img))
}

func TestRead12Write12RoundTrip(t *testing.T) {
	d := newTestDevice(t, 1)

	var words [wordsPerBlock]uint16
	for i := range words {
		words[i] = uint16(i*7+1) & 0o7777
	}
	require.NoError(t, d.Write12(0, words))

	got, err := d.Read12(0)
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestRead12MasksTo12Bits(t *testing.T) {
	d := newTestDevice(t, 1)

	var words [wordsPerBlock]uint16
	words[0] = 0xFFFF
	require.NoError(t, d.Write12(0, words))

	got, err := d.Read12(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0o7777), got[0])
}

func TestRead18Write18RoundTrip(t *testing.T) {
	d := newTestDevice(t, 2)

	var words [wordsPerBlock]uint32
	for i := range words {
		words[i] = uint32(i*131) & 0x3FFFF
	}
	require.NoError(t, d.Write18(0, words))

	got, err := d.Read18(0)
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestRead18MasksTo18Bits(t *testing.T) {
	d := newTestDevice(t, 2)

	var words [wordsPerBlock]uint32
	words[0] = 0xFFFFFFFF
	require.NoError(t, d.Write18(0, words))

	got, err := d.Read18(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3FFFF), got[0])
}
