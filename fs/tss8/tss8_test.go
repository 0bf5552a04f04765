package tss8

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

// totalTestBlocks covers the default 20-user MFD track plus some slack for
// file allocation beyond it.
const totalTestBlocks = monitorSize + blocksPerTrack*20 + blocksPerTrack + 64

func newTestVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tss8.dsk")
	img, err := storage.Create(path, int64(totalTestBlocks)*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.Initialize(fsapi.InitOptions{TotalBlocks: totalTestBlocks}))
	return f
}

func TestInitializeProducesEmptySystemAccount(t *testing.T) {
	f := newTestVolume(t)

	entries, err := f.EntriesList()

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "[0,1]", f.GetPwd())
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TEST.DAT", content, "", "", int(encoding.IMAGE)))

	got, err := f.ReadBytes("TEST.DAT", int(encoding.IMAGE))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len(content))
	assert.Equal(t, content, got[:len(content)])
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("A.DAT", []byte("hi"), "", "", int(encoding.IMAGE)))

	e, err := f.GetFileEntry("A.DAT")

	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t)

	_, err := f.GetFileEntry("NOPE.DAT")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestDeleteRemovesEntry(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("B.DAT", []byte("bye"), "", "", int(encoding.IMAGE)))
	e, err := f.GetFileEntry("B.DAT")
	require.NoError(t, err)

	require.NoError(t, f.Delete(e))

	assert.False(t, f.Exists("B.DAT"))
}

func TestChdirSwitchesPPN(t *testing.T) {
	f := newTestVolume(t)

	require.NoError(t, f.Chdir("[0,2]"))

	assert.Equal(t, "[0,2]", f.GetPwd())
}

func TestChdirRejectsGarbage(t *testing.T) {
	f := newTestVolume(t)

	err := f.Chdir("not-a-ppn")

	assert.Equal(t, fsapi.ErrInvalidArg, fsapi.Cause(err))
}

func TestFilterEntriesListHidesSystemAccountByDefault(t *testing.T) {
	f := newTestVolume(t)
	require.NoError(t, f.WriteBytes("SYS.DAT", []byte("x"), "", "", int(encoding.IMAGE)))

	entries, err := f.FilterEntriesList("", false, true)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = f.FilterEntriesList("", true, true)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tss8.dsk")
	img, err := storage.Create(path, int64(totalTestBlocks)*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	require.NoError(t, f.Initialize(fsapi.InitOptions{TotalBlocks: totalTestBlocks}))
	require.NoError(t, f.Close())

	roFS, err := mount(path, true, false)
	require.NoError(t, err)
	defer roFS.Close()

	err = roFS.WriteBytes("X.DAT", []byte("x"), "", "", int(encoding.IMAGE))

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}
