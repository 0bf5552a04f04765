package decsys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func newTestVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decsys.dtp")
	img, err := storage.Create(path, totalBlocks*int64(storage.DefaultBlockSize))
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
	content := []byte("HI")

	require.NoError(t, f.WriteBytes("TESTPRG", content, "", "", int(encoding.ASCII)))

	got, err := f.ReadBytes("TESTPRG", int(encoding.ASCII))
	require.NoError(t, err)
	assert.Contains(t, string(got), "HI")
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("AFILE", []byte("hi"), "", "", int(encoding.ASCII)))

	e, err := f.GetFileEntry("AFILE")

	require.NoError(t, err)
	assert.Equal(t, "AFILE", e.Name())
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t)

	_, err := f.GetFileEntry("NOPE")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestSplitFullnameWithForkPrefix(t *testing.T) {
	ft, hasFork, name := splitFullname("F,MYPROG")

	assert.True(t, hasFork)
	assert.Equal(t, Fortran, ft)
	assert.Equal(t, "MYPROG", name)
}

func TestSplitFullnameWithoutForkPrefix(t *testing.T) {
	_, hasFork, name := splitFullname("MYPROG")

	assert.False(t, hasFork)
	assert.Equal(t, "MYPROG", name)
}

func TestCanonicalFilenameStripsUnrepresentableChars(t *testing.T) {
	got := canonicalFilename("my_prog!", false)

	assert.Equal(t, "MYPROG", got)
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decsys.dtp")
	img, err := storage.Create(path, totalBlocks*int64(storage.DefaultBlockSize))
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
