package unixcommon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func be16put(buf []byte, pos int, v uint16) {
	buf[pos] = byte(v)
	buf[pos+1] = byte(v >> 8)
}

func l3put(buf []byte, pos int, v int) {
	buf[pos] = byte(v >> 16)
	buf[pos+1] = byte(v)
	buf[pos+2] = byte(v >> 8)
}

// newFixtureVolume hand-builds a minimal V7 volume: a root directory inode
// (number 2) holding one entry, "TESTFILE", pointing at a file inode
// (number 3) with a single data block.
func newFixtureVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unixv7.dsk")
	img, err := storage.Create(path, 16*int64(blockSize))
	require.NoError(t, err)

	inodeBlock := make([]byte, blockSize)
	root := inodeBlock[64:128]
	be16put(root, 0, v6Dir) // directory, allocated
	l3put(root, 12, 10)     // Addr[0]: directory data block

	file := inodeBlock[128:192]
	be16put(file, 0, 0o100000) // regular file, allocated
	be16put(file, 10, 11)      // size low word
	l3put(file, 12, 11)        // Addr[0]: file data block
	require.NoError(t, img.WriteAt(inodeBlock, 2*int64(blockSize)))

	dirData := make([]byte, blockSize)
	be16put(dirData, 0, 3)
	copy(dirData[2:16], "TESTFILE")
	require.NoError(t, img.WriteAt(dirData, 10*int64(blockSize)))

	fileData := make([]byte, blockSize)
	copy(fileData, "HELLO WORLD")
	require.NoError(t, img.WriteAt(fileData, 11*int64(blockSize)))

	require.NoError(t, img.Close())

	fsi, err := Mount(path, true, false, V7)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestEntriesListFindsFixtureFile(t *testing.T) {
	f := newFixtureVolume(t)

	entries, err := f.EntriesList()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TESTFILE", entries[0].Name())
}

func TestGetFileEntryAndReadBytes(t *testing.T) {
	f := newFixtureVolume(t)

	e, err := f.GetFileEntry("TESTFILE")
	require.NoError(t, err)
	assert.Equal(t, "TESTFILE", e.Name())

	got, err := f.ReadBytes("TESTFILE", 0)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", string(got))
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newFixtureVolume(t)

	_, err := f.GetFileEntry("NOPE")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestWriteBytesIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t)

	err := f.WriteBytes("X", []byte("x"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestIsDirOnRoot(t *testing.T) {
	f := newFixtureVolume(t)

	assert.True(t, f.IsDir("/"))
	assert.False(t, f.IsDir("TESTFILE"))
}

func TestUnixJoin(t *testing.T) {
	assert.Equal(t, "/a/b", unixJoin("/a", "b"))
	assert.Equal(t, "/a/", unixJoin("/a/", ""))
	assert.Equal(t, "/c", unixJoin("/a", "/c"))
}

func TestUnixSplit(t *testing.T) {
	dir, base := unixSplit("/a/b/c.txt")

	assert.Equal(t, "/a/b", dir)
	assert.Equal(t, "c.txt", base)
}

func TestL3tol(t *testing.T) {
	buf := make([]byte, 6)
	l3put(buf, 0, 100)
	l3put(buf, 3, 200)

	got := l3tol(buf, 2)

	assert.Equal(t, []int{100, 200}, got)
}
