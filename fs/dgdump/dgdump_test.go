package dgdump

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

// buildDumpBytes encodes a single top-level file as a minimal
// Name/Data/End block stream, matching what a real DG RDOS Dump writer
// would emit for one non-directory entry.
func buildDumpBytes(name string, content []byte) []byte {
	var buf []byte
	buf = append(buf, nameBlockID)
	buf = append(buf, 0, 0) // attributes: plain sequential file
	buf = append(buf, []byte(name)...)
	buf = append(buf, 0)

	buf = append(buf, dataBlockID)
	bc := len(content)
	buf = append(buf, byte(bc>>8), byte(bc))
	buf = append(buf, 0, 0) // checksum, unchecked by the reader
	buf = append(buf, content...)

	buf = append(buf, endBlockID)
	return buf
}

func newFixtureVolume(t *testing.T, name string, content []byte) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.img")
	raw := buildDumpBytes(name, content)
	img, err := storage.Create(path, int64(len(raw)))
	require.NoError(t, err)
	require.NoError(t, img.WriteAt(raw, 0))
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestEntriesListFindsFixtureFile(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("HELLO WORLD"))

	entries, err := f.EntriesList()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TESTFILE.DAT", entries[0].Name())
}

func TestGetFileEntryAndReadBytes(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("HELLO WORLD"))

	e, err := f.GetFileEntry("TESTFILE.DAT")
	require.NoError(t, err)
	assert.Equal(t, "TESTFILE.DAT", e.Name())
	assert.EqualValues(t, len("HELLO WORLD"), e.Length())

	got, err := f.ReadBytes("TESTFILE.DAT", 0)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", string(got))
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("x"))

	_, err := f.GetFileEntry("NOPE.DAT")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestExists(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("x"))

	assert.True(t, f.Exists("TESTFILE.DAT"))
	assert.False(t, f.Exists("NOPE.DAT"))
}

func TestIsDirOnRoot(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("x"))

	assert.True(t, f.IsDir("/"))
	assert.False(t, f.IsDir("TESTFILE.DAT"))
}

func TestWriteBytesIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("x"))

	err := f.WriteBytes("NEW.DAT", []byte("y"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestInitializeIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t, "TESTFILE.DAT", []byte("x"))

	err := f.Initialize(fsapi.InitOptions{})

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}
