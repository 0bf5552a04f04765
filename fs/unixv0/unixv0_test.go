package unixv0

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func putBlockWords(t *testing.T, img *storage.Image, blockNumber int, words []int) {
	t.Helper()
	raw := make([]byte, wordsPerBlock*bytesPerWord)
	for i, w := range words {
		p := i * bytesPerWord
		raw[p] = byte(w)
		raw[p+1] = byte(w >> 8)
		raw[p+2] = byte(w >> 16)
		raw[p+3] = byte(w >> 24)
	}
	off := surfaceSize() + int64(blockNumber)*int64(wordsPerBlock)*int64(bytesPerWord)
	require.NoError(t, img.WriteAt(raw, off))
}

// asciiPair packs two 7-bit characters into one v0 directory-name word.
func asciiPair(a, b byte) int { return int(a)<<9 | int(b) }

// newFixtureVolume hand-builds a minimal v0 volume: a root directory inode
// (number 4) holding one entry, "TESTFILE", pointing at a small-file inode
// (number 5) with a single data block.
func newFixtureVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unixv0.dsk")
	img, err := storage.Create(path, surfaceSize()+16*int64(blockSize))
	require.NoError(t, err)

	rootWords := make([]int, wordsPerBlock)
	rootWords[48+flagsPos] = used | dirFlag
	rootWords[48+addrPos] = 10 // directory data block

	fileWords := make([]int, wordsPerBlock)
	fileWords[0+flagsPos] = used
	fileWords[0+addrPos] = 11 // data block
	fileWords[0+sizePos] = 2

	putBlockWords(t, img, 2, rootWords)
	putBlockWords(t, img, 3, fileWords)

	dirData := make([]int, wordsPerBlock)
	dirData[0] = 5 // inode number
	dirData[1] = asciiPair('T', 'E')
	dirData[2] = asciiPair('S', 'T')
	dirData[3] = asciiPair('F', 'I')
	dirData[4] = asciiPair('L', 'E')
	putBlockWords(t, img, 10, dirData)

	fileData := make([]int, wordsPerBlock)
	fileData[0] = 0o12345
	fileData[1] = 0o67777
	putBlockWords(t, img, 11, fileData)

	require.NoError(t, img.Close())

	fsi, err := mount(path, true, false)
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

	wide := make([]uint32, wordsPerBlock)
	wide[0] = 0o12345
	wide[1] = 0o67777
	want := encoding.Pack18WordsToBytes(wide, encoding.IMAGE)
	assert.Equal(t, want, got)
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newFixtureVolume(t)

	_, err := f.GetFileEntry("NOPE")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestExists(t *testing.T) {
	f := newFixtureVolume(t)

	assert.True(t, f.Exists("TESTFILE"))
	assert.False(t, f.Exists("NOPE"))
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
