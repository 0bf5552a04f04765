package solo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func newTestVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solo.dsk")
	img, err := storage.Create(path, diskSize*int64(blockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.Initialize(fsapi.InitOptions{}))
	return f
}

func TestInitializeProducesEmptyVolume(t *testing.T) {
	f := newTestVolume(t)

	entries, err := f.FilterEntriesList("", false, true)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TESTFILE", content, "", "", 0))

	got, err := f.ReadBytes("TESTFILE", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len(content))
	assert.Equal(t, content, got[:len(content)])
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("AFILE", []byte("hi"), "", "", 0))

	e, err := f.GetFileEntry("AFILE")

	require.NoError(t, err)
	assert.Equal(t, "AFILE", e.Name())
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t)

	_, err := f.GetFileEntry("NOPE")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestDeleteRemovesEntry(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("BFILE", []byte("bye"), "", "", 0))
	e, err := f.GetFileEntry("BFILE")
	require.NoError(t, err)

	require.NoError(t, f.Delete(e))

	assert.False(t, f.Exists("BFILE"))
}

func TestEntriesListIncludesFixedSegments(t *testing.T) {
	f := newTestVolume(t)

	entries, err := f.EntriesList()

	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "@KERNEL")
	assert.Contains(t, names, "@SOLO")
	assert.Contains(t, names, "@OTHEROS")
}

func TestFilenameHashIsStableAndBounded(t *testing.T) {
	h := filenameHash("TESTFILE", 15)

	assert.GreaterOrEqual(t, h, 0)
	assert.Less(t, h, 15*catPageLength)
	assert.Equal(t, h, filenameHash("TESTFILE", 15))
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solo.dsk")
	img, err := storage.Create(path, diskSize*int64(blockSize))
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

	err = roFS.WriteBytes("X", []byte("x"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}
