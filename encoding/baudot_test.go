package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaudotStringRoundTrip(t *testing.T) {
	words := StrToBaudot("CAB", -1)

	got, pos := ReadBaudotString(words, 0)

	assert.Equal(t, "CAB", got)
	assert.Equal(t, len(words), pos)
}

func TestBaudotStringStopsAtEndWord(t *testing.T) {
	words := append(StrToBaudot("HI", -1), LabelEndWord, StrToBaudot("X", -1)[0])

	got, pos := ReadBaudotString(words, 0)

	assert.Equal(t, "HI", got) // the third (NUL-padded) character decodes to nothing
	assert.Equal(t, 1, pos)
}

func TestStrToBaudotPadsToLength(t *testing.T) {
	words := StrToBaudot("A", 3)

	assert.Len(t, words, 3)
}

func TestStrToBaudotTruncatesToLength(t *testing.T) {
	words := StrToBaudot("ABCDEFGHI", 2)

	assert.Len(t, words, 2)
}
