package dgmagtape

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/tape"
)

// newFixtureVolume hand-builds a one-file tape: a single 514-byte block
// (510 data bytes plus the repeated file-number word pair) followed by the
// tape mark that closes the file.
func newFixtureVolume(t *testing.T, fileNumber byte, content []byte) *Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dgmagtape.tap")
	img, err := storage.Create(path, 0)
	require.NoError(t, err)

	payload := make([]byte, dataBlockSize+fileNumberSize)
	copy(payload, content)
	payload[len(payload)-4] = 0
	payload[len(payload)-3] = fileNumber
	payload[len(payload)-2] = 0
	payload[len(payload)-1] = fileNumber

	stream := tape.New(img)
	require.NoError(t, stream.WriteForward(payload))
	require.NoError(t, stream.WriteMark())
	require.NoError(t, img.Close())

	fsi, err := mount(path, false, false)
	require.NoError(t, err)
	f := fsi.(*Filesystem)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestEntriesListFindsFixtureFile(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("HELLO WORLD"))

	entries, err := f.EntriesList()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].Name())
	assert.EqualValues(t, dataBlockSize, entries[0].Length())
}

func TestGetFileEntryAndReadBytes(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("HELLO WORLD"))

	e, err := f.GetFileEntry("7")
	require.NoError(t, err)
	assert.Equal(t, "7", e.Name())

	got, err := f.ReadBytes("7", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), len("HELLO WORLD"))
	assert.Equal(t, "HELLO WORLD", string(got[:len("HELLO WORLD")]))
}

func TestGetFileEntryNotFound(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("x"))

	_, err := f.GetFileEntry("99")

	assert.Equal(t, fsapi.ErrNotFound, fsapi.Cause(err))
}

func TestExists(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("x"))

	assert.True(t, f.Exists("7"))
	assert.False(t, f.Exists("99"))
}

func TestWriteBytesIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("x"))

	err := f.WriteBytes("7", []byte("y"), "", "", 0)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestDeleteIsReadOnly(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("x"))
	e, err := f.GetFileEntry("7")
	require.NoError(t, err)

	err = f.Delete(e)

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}

func TestInitializeReformatsTape(t *testing.T) {
	f := newFixtureVolume(t, 7, []byte("x"))

	require.NoError(t, f.Initialize(fsapi.InitOptions{}))

	entries, err := f.EntriesList()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInitializeOnReadOnlyVolumeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dgmagtape.tap")
	img, err := storage.Create(path, 0)
	require.NoError(t, err)
	stream := tape.New(img)
	require.NoError(t, stream.WriteMark())
	require.NoError(t, stream.WriteMark())
	require.NoError(t, img.Close())

	fsi, err := mount(path, true, false)
	require.NoError(t, err)
	defer fsi.Close()

	err = fsi.Initialize(fsapi.InitOptions{})

	assert.Equal(t, fsapi.ErrReadOnly, fsapi.Cause(err))
}
