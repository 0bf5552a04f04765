package dms

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const testImageBlocks = 0o400 // covers every fixed block address the driver uses

func imageSize() int64 {
	return int64(testImageBlocks)*int64(blockSizeWords)*int64(bytesPerWord) + bytesPerWord
}

func newTestVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dms.dsk")
	img, err := storage.Create(path, imageSize())
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.Initialize(fsapi.InitOptions{}))
	return f
}

func TestInitializeRegistersMonitorEntry(t *testing.T) {
	f := newTestVolume(t)

	entries, err := f.EntriesList()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EX C.SYS", entries[0].Name())
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TEST.ASCII", content, "", "", 0))

	got, err := f.ReadBytes("TEST.ASCII", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len(content))
	assert.Equal(t, content, got[:len(content)])
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("A.ASCII", []byte("hi"), "", "", 0))

	e, err := f.GetFileEntry("A.ASCII")

	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t)

	_, err := f.GetFileEntry("NOPE.ASCII")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestSixbitNameRoundTrip(t *testing.T) {
	w := ascToSixbit("AB")

	assert.Equal(t, "AB", sixbitToAsc(w))
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dms.dsk")
	img, err := storage.Create(path, imageSize())
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	require.NoError(t, f.Initialize(fsapi.InitOptions{}))
	require.NoError(t, f.Close())

	roFS, err := mount(path, true, false)
	require.NoError(t, err)
	defer roFS.Close()

	err = roFS.WriteBytes("X.ASCII", []byte("x"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}
