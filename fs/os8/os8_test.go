package os8

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
	path := filepath.Join(t.TempDir(), "os8.dsk")
	img, err := storage.Create(path, totalBlocks*int64(blockSize))
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
	f := newTestVolume(t, 4096)

	entries, err := f.FilterEntriesList("", false, true)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAndReadBytesRoundTrip(t *testing.T) {
	f := newTestVolume(t, 4096)
	content := []byte("HELLO WORLD")

	require.NoError(t, f.WriteBytes("TEST.TX", content, "", "", int(encoding.IMAGE)))

	got, err := f.ReadBytes("TEST.TX", int(encoding.IMAGE))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len(content))
	assert.Equal(t, content, got[:len(content)])
}

func TestGetFileEntryAfterWrite(t *testing.T) {
	f := newTestVolume(t, 4096)
	require.NoError(t, f.WriteBytes("A.TX", []byte("hi"), "", "", int(encoding.IMAGE)))

	e, err := f.GetFileEntry("A.TX")

	require.NoError(t, err)
	assert.Equal(t, "A.TX", e.Name())
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newTestVolume(t, 4096)

	_, err := f.GetFileEntry("NOPE.TX")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestDeleteRemovesEntry(t *testing.T) {
	f := newTestVolume(t, 4096)
	require.NoError(t, f.WriteBytes("B.TX", []byte("bye"), "", "", int(encoding.IMAGE)))
	e, err := f.GetFileEntry("B.TX")
	require.NoError(t, err)

	require.NoError(t, f.Delete(e))

	assert.False(t, f.Exists("B.TX"))
}

func TestFilterEntriesListWildcard(t *testing.T) {
	f := newTestVolume(t, 4096)
	require.NoError(t, f.WriteBytes("FOO.TX", []byte("x"), "", "", int(encoding.IMAGE)))
	require.NoError(t, f.WriteBytes("BAR.DT", []byte("y"), "", "", int(encoding.IMAGE)))

	matches, err := f.FilterEntriesList("*.TX", false, true)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "FOO.TX", matches[0].Name())
}

func TestWriteBytesOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os8.dsk")
	img, err := storage.Create(path, 4096*int64(blockSize))
	require.NoError(t, err)
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	require.NoError(t, f.Initialize(fsapi.InitOptions{TotalBlocks: 4096}))
	require.NoError(t, f.Close())

	roFS, err := mount(path, true, false)
	require.NoError(t, err)
	defer roFS.Close()

	err = roFS.WriteBytes("X.TX", []byte("x"), "", "", int(encoding.IMAGE))

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

// TestAllocateSpaceSplitsFullSegment forces the partition's first directory
// segment to fill up (maxEntries with extraWords=1 is 40: a fresh segment
// starts with a single empty entry, and each one-block write adds one) so
// that the 40th allocation must call splitSegment, then checks the
// resulting two-segment chain against OS8Partition.split_segment's
// invariants: the new segment is linked via nextBlockNumber, chosen from
// an unused block in the partition's reserved directory range, and every
// file written before the split is still reachable afterward.
func TestAllocateSpaceSplitsFullSegment(t *testing.T) {
	f := newTestVolume(t, 4096)

	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("F%02d.TX", i)
		require.NoError(t, f.WriteBytes(name, []byte{byte(i)}, "", "", int(encoding.IMAGE)))
	}

	segs, err := f.readDirSegments(0)
	require.NoError(t, err)
	require.Len(t, segs, 2, "first segment should have split into two")

	first, second := segs[0], segs[1]
	assert.Equal(t, second.blockNumber, first.nextBlockNumber)
	assert.Zero(t, second.nextBlockNumber)
	assert.Greater(t, second.blockNumber, first.blockNumber)
	assert.Less(t, second.blockNumber, dirSegmentStart+numOfSegments)

	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("F%02d.TX", i)
		assert.True(t, f.Exists(name), "%s should still be found after the split", name)
	}
}

func TestNumPartitionsSingleForSmallImage(t *testing.T) {
	f := newTestVolume(t, 4096)

	assert.Equal(t, 1, f.numPartitions())
}
