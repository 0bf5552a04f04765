package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRad50WordRoundTrip(t *testing.T) {
	w, err := Rad50ToWord("ABC")

	require.NoError(t, err)
	assert.Equal(t, "ABC", WordToRad50(w))
}

func TestRad50WordPadsShortStrings(t *testing.T) {
	w, err := Rad50ToWord("A")

	require.NoError(t, err)
	assert.Equal(t, "A", WordToRad50(w))
}

func TestRad50WordTooLong(t *testing.T) {
	_, err := Rad50ToWord("ABCD")

	assert.Error(t, err)
}

func TestRad50WordInvalidCharacter(t *testing.T) {
	_, err := Rad50ToWord("A#C")

	assert.Error(t, err)
}

func TestRad50StringRoundTrip(t *testing.T) {
	words, err := Rad50ToString("HELLO", 2)

	require.NoError(t, err)
	assert.Equal(t, "HELLO", StringFromRad50(words))
}

func TestRad50StringTrimsTrailingSpace(t *testing.T) {
	words, err := Rad50ToString("AB", 1)

	require.NoError(t, err)
	assert.Equal(t, "AB", StringFromRad50(words))
}
