package caps11

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
	path := filepath.Join(t.TempDir(), "caps11.tap")
	img, err := storage.Create(path, 0)
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

	entries, err := f.EntriesList()

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TEST.DAT", content, "", "", 0))

	got, err := f.ReadBytes("TEST.DAT", 0)

	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("A.TXT", []byte("hi"), "", "", 0))

	e, err := f.GetFileEntry("A.TXT")

	require.NoError(t, err)
	assert.Equal(t, "A.TXT", e.Name())
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t)

	_, err := f.GetFileEntry("NOPE.DAT")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestWriteBytesOverwritesSameName(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("X.DAT", []byte("first"), "", "", 0))
	require.NoError(t, f.WriteBytes("Y.DAT", []byte("second"), "", "", 0))

	require.NoError(t, f.WriteBytes("X.DAT", []byte("replaced"), "", "", 0))

	got, err := f.ReadBytes("X.DAT", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), got)

	entries, err := f.EntriesList()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFilterEntriesListWildcard(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("FOO.TXT", []byte("x"), "", "", 0))
	require.NoError(t, f.WriteBytes("BAR.DAT", []byte("y"), "", "", 0))

	matches, err := f.FilterEntriesList("*.TXT", false, true)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "FOO.TXT", matches[0].Name())
}

func TestDeleteIsUnsupported(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("X.DAT", []byte("x"), "", "", 0))
	e, err := f.GetFileEntry("X.DAT")
	require.NoError(t, err)

	err = f.Delete(e)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caps11.tap")
	img, err := storage.Create(path, 0)
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

	err = roFS.WriteBytes("X.DAT", []byte("x"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestChdirUnsupported(t *testing.T) {
	f := newTestVolume(t)

	err := f.Chdir("SOMEWHERE")

	assert.Error(t, err)
}
