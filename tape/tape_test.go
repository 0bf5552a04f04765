package tape

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/storage"
)

func newTestStream(t *testing.T) *Stream {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tape.simh")
	img, err := storage.Create(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { img.Close() })
	return New(img)
}

func TestWriteForwardReadForwardRoundTrip(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("HELLO")))
	require.NoError(t, s.Rewind())

	got, err := s.ReadForward()

	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(got))
}

func TestWriteForwardOddLengthIsPadded(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("ODD")))

	pos, err := s.Pos()
	require.NoError(t, err)
	// 4-byte prefix + 4-byte padded payload (3 rounds to 4) + 4-byte trailer.
	assert.Equal(t, int64(12), pos)
}

func TestWriteMarkReadsAsEmpty(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteMark())
	require.NoError(t, s.Rewind())

	got, err := s.ReadForward()

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadForwardAtEndOfMedium(t *testing.T) {
	s := newTestStream(t)

	_, err := s.ReadForward()

	assert.Equal(t, ErrEndOfMedium, err)
}

func TestReadFileConcatenatesUntilMark(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("AB")))
	require.NoError(t, s.WriteForward([]byte("CD")))
	require.NoError(t, s.WriteMark())
	require.NoError(t, s.Rewind())

	got, err := s.ReadFile()

	require.NoError(t, err)
	assert.Equal(t, "ABCD", string(got))
}

func TestReadHeaderSkipsToNextMark(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("HEADER")))
	require.NoError(t, s.WriteForward([]byte("BODY1")))
	require.NoError(t, s.WriteForward([]byte("BODY2")))
	require.NoError(t, s.WriteMark())
	require.NoError(t, s.Rewind())

	header, skipped, err := s.ReadHeader()

	require.NoError(t, err)
	assert.Equal(t, "HEADER", string(header))
	assert.Equal(t, int64(10), skipped) // len("BODY1")+len("BODY2")
}

func TestAtLogicalEndOfTapeDetectsDoubleMark(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteMark())
	require.NoError(t, s.WriteMark())
	require.NoError(t, s.Rewind())

	at, err := s.AtLogicalEndOfTape()

	require.NoError(t, err)
	assert.True(t, at)

	pos, err := s.Pos()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos, "AtLogicalEndOfTape must not disturb the tape position")
}

func TestAtLogicalEndOfTapeFalseOnData(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("DATA")))
	require.NoError(t, s.Rewind())

	at, err := s.AtLogicalEndOfTape()

	require.NoError(t, err)
	assert.False(t, at)
}

func TestSeekAndPos(t *testing.T) {
	s := newTestStream(t)
	require.NoError(t, s.WriteForward([]byte("ONE")))
	mark, err := s.Pos()
	require.NoError(t, err)
	require.NoError(t, s.WriteForward([]byte("TWO")))

	require.NoError(t, s.Seek(mark))
	got, err := s.ReadForward()

	require.NoError(t, err)
	assert.Equal(t, "TWO", string(got))
}
