package dos11

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func putWord(buf []byte, pos int, w uint16) {
	buf[pos] = byte(w)
	buf[pos+1] = byte(w >> 8)
}

func rad50Word(t *testing.T, s string) uint16 {
	t.Helper()
	w, err := encoding.Rad50ToWord(s)
	require.NoError(t, err)
	return w
}

// newFixtureVolume hand-builds a minimal XXDP+-style DOS-11 volume: an MFD
// block pointing at one UFD chain head, one contiguous file entry, and the
// file's single data block.
func newFixtureVolume(t *testing.T) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dos11.dsk")
	img, err := storage.Create(path, 16*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	dev := block.New(img)

	mfd := make([]byte, storage.DefaultBlockSize)
	putWord(mfd, 0, 0) // XXDP+ variety: no secondary MFD block
	putWord(mfd, 2, 2) // UFD chain head is block 2
	require.NoError(t, dev.WriteBlock(mfdBlock, mfd))

	ufd := make([]byte, storage.DefaultBlockSize*2)
	putWord(ufd, 0, 0) // end of UFD chain
	pos := 2
	putWord(ufd, pos+0, rad50Word(t, "TES"))
	putWord(ufd, pos+2, rad50Word(t, "T"))
	putWord(ufd, pos+4, rad50Word(t, "DAT"))
	putWord(ufd, pos+6, contiguousFileFlag)
	putWord(ufd, pos+10, 10) // file position: block 10
	putWord(ufd, pos+12, 1)  // length: 1 block
	require.NoError(t, dev.WriteBlocks(2, ufd))

	data := make([]byte, storage.DefaultBlockSize)
	copy(data, "HELLO")
	require.NoError(t, dev.WriteBlock(10, data))

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
	assert.Equal(t, "TEST.DAT", entries[0].Name())
}

func TestGetFileEntryAndReadBytes(t *testing.T) {
	f := newFixtureVolume(t)

	e, err := f.GetFileEntry("TEST.DAT")
	require.NoError(t, err)
	assert.Equal(t, "TEST.DAT", e.Name())

	content, err := f.ReadBytes("TEST.DAT", 0)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(content[:5]))
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newFixtureVolume(t)

	_, err := f.GetFileEntry("NOPE.DAT")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestFilterEntriesListWildcard(t *testing.T) {
	f := newFixtureVolume(t)

	matches, err := f.FilterEntriesList("*.DAT", false, true)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "TEST.DAT", matches[0].Name())
}

func TestWriteBytesIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t)

	err := f.WriteBytes("X.DAT", []byte("x"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestSplitPatternWithUIC(t *testing.T) {
	uic, base := splitPattern("[1,2]FOO.BAR")

	require.NotNil(t, uic)
	assert.Equal(t, encoding.UIC{Group: 1, User: 2}, *uic)
	assert.Equal(t, "FOO.BAR", base)
}

func TestSplitPatternWithoutUIC(t *testing.T) {
	uic, base := splitPattern("FOO.BAR")

	assert.Nil(t, uic)
	assert.Equal(t, "FOO.BAR", base)
}
