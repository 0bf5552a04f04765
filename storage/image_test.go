package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")

	img, err := Create(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), img.Size())
	assert.False(t, img.ReadOnly())
	require.NoError(t, img.Close())

	reopened, err := Open(path, true)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, int64(1024), reopened.Size())
	assert.True(t, reopened.ReadOnly())
}

func TestWriteAndReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, 16)
	require.NoError(t, err)
	defer img.Close()

	require.NoError(t, img.WriteAt([]byte("HELLO"), 4))

	buf := make([]byte, 5)
	require.NoError(t, img.ReadAt(buf, 4))
	assert.Equal(t, "HELLO", string(buf))
}

func TestSeekTellRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, 16)
	require.NoError(t, err)
	defer img.Close()

	require.NoError(t, img.WriteAt([]byte("ABCDEFGH"), 0))

	_, err = img.Seek(2, SeekStart)
	require.NoError(t, err)

	pos, err := img.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	buf, err := img.Read(3)
	require.NoError(t, err)
	assert.Equal(t, "CDE", string(buf))
}

func TestWriteOnReadOnlyImageFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, 16)
	require.NoError(t, err)
	require.NoError(t, img.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer ro.Close()

	assert.Error(t, ro.Write([]byte("X")))
	assert.Error(t, ro.Truncate(0))
}

func TestReadBlockWriteBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, int64(DefaultBlockSize*2))
	require.NoError(t, err)
	defer img.Close()

	block := make([]byte, DefaultBlockSize)
	for i := range block {
		block[i] = byte(i)
	}
	require.NoError(t, img.WriteBlock(block, 0, 1))

	got, err := img.ReadBlock(0, 1)
	require.NoError(t, err)
	assert.Equal(t, block, got)
}

func TestWriteBlockWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, int64(DefaultBlockSize))
	require.NoError(t, err)
	defer img.Close()

	assert.Error(t, img.WriteBlock([]byte{1, 2, 3}, 0, 0))
}

func TestTruncateGrowsAndShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dsk")
	img, err := Create(path, 16)
	require.NoError(t, err)
	defer img.Close()

	require.NoError(t, img.Truncate(32))
	assert.Equal(t, int64(32), img.Size())

	require.NoError(t, img.Truncate(8))
	assert.Equal(t, int64(8), img.Size())
}
