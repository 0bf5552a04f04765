package rt11

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func newTestVolume(t *testing.T, totalBlocks int64) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rt11.dsk")
	img, err := storage.Create(path, totalBlocks*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.Initialize(fsapi.InitOptions{TotalBlocks: int(totalBlocks)}))
	return f
}

func TestInitializeProducesEmptyVolume(t *testing.T) {
	f := newTestVolume(t, 800)

	entries, err := f.FilterEntriesList("", false, true)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t, 800)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TEST.TXT", content, "", "", int(encoding.IMAGE)))

	got, err := f.ReadBytes("TEST.TXT", int(encoding.IMAGE))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len(content))
	assert.Equal(t, content, got[:len(content)])
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t, 800)
	require.NoError(t, f.WriteBytes("A.TXT", []byte("hi"), "", "", int(encoding.IMAGE)))

	e, err := f.GetFileEntry("A.TXT")

	require.NoError(t, err)
	assert.Equal(t, "A.TXT", e.Name())
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t, 800)

	_, err := f.GetFileEntry("NOPE.TXT")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestDeleteRemovesEntry(t *testing.T) {
	f := newTestVolume(t, 800)
	require.NoError(t, f.WriteBytes("B.TXT", []byte("bye"), "", "", int(encoding.IMAGE)))
	e, err := f.GetFileEntry("B.TXT")
	require.NoError(t, err)

	require.NoError(t, f.Delete(e))

	assert.False(t, f.Exists("B.TXT"))
}

func TestFilterEntriesListWildcard(t *testing.T) {
	f := newTestVolume(t, 800)
	require.NoError(t, f.WriteBytes("FOO.TXT", []byte("x"), "", "", int(encoding.IMAGE)))
	require.NoError(t, f.WriteBytes("BAR.DAT", []byte("y"), "", "", int(encoding.IMAGE)))

	matches, err := f.FilterEntriesList("*.TXT", false, true)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "FOO.TXT", matches[0].Name())
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt11.dsk")
	img, err := storage.Create(path, 800*int64(storage.DefaultBlockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	require.NoError(t, f.Initialize(fsapi.InitOptions{TotalBlocks: 800}))
	require.NoError(t, f.Close())

	roFS, err := mount(path, true, false)
	require.NoError(t, err)
	defer roFS.Close()

	err = roFS.WriteBytes("X.TXT", []byte("x"), "", "", int(encoding.IMAGE))

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestChdirUnsupported(t *testing.T) {
	f := newTestVolume(t, 800)

	err := f.Chdir("SOMEWHERE")

	assert.Error(t, err)
}

// TestAllocateSpaceSplitsFullSegment forces the first directory segment to
// fill up (maxEntries entries with extraBytes=0 is 72: a fresh segment
// starts with 2 entries, one empty, one EOS, and each one-block write adds
// one entry) so that the 71st allocation must call splitSegment, then
// checks the resulting two-segment chain against rt11fs.py's split_segment
// invariants: the new segment is linked via nextLogicalSegment/next block
// number, each segment's last entry carries classEndOfSegment, and the
// first segment's numOfSegments is left at the count of segments that
// existed at split time (not bumped by the new segment, matching the
// original's `len(segments)` assignment rather than `len(segments)+1`).
func TestAllocateSpaceSplitsFullSegment(t *testing.T) {
	f := newTestVolume(t, 800)

	for i := 0; i < 71; i++ {
		name := fmt.Sprintf("F%02d.DAT", i)
		require.NoError(t, f.WriteBytes(name, []byte{byte(i)}, "", "", int(encoding.IMAGE)))
	}

	segs, err := f.readDirSegments()
	require.NoError(t, err)
	require.Len(t, segs, 2, "first segment should have split into two")

	first, second := segs[0], segs[1]
	assert.Equal(t, 1, first.numOfSegments)
	assert.NotZero(t, first.nextLogicalSegment)
	assert.Equal(t, second.blockNumber, first.nextBlockNumber())
	assert.Equal(t, 1, second.highestSegment)
	assert.Zero(t, second.nextLogicalSegment)

	require.NotEmpty(t, first.entries)
	assert.True(t, first.entries[len(first.entries)-1].IsEndOfSegment())
	require.NotEmpty(t, second.entries)
	assert.True(t, second.entries[len(second.entries)-1].IsEndOfSegment())

	for i := 0; i < 71; i++ {
		name := fmt.Sprintf("F%02d.DAT", i)
		assert.True(t, f.Exists(name), "%s should still be found after the split", name)
	}
}

func TestSegmentCountForSizing(t *testing.T) {
	assert.Equal(t, 1, segmentCountFor(100))
	assert.Equal(t, 4, segmentCountFor(800))
	assert.Equal(t, 16, segmentCountFor(4000))
	assert.Equal(t, 31, segmentCountFor(18000))
}
