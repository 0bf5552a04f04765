package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack12RoundTripImage(t *testing.T) {
	words := []uint16{0o7777, 0o4000}

	packed := Pack12WordsToBytes(words, IMAGE)
	got := Unpack12BytesToWords(packed, IMAGE)

	assert.Equal(t, words, got)
}

func TestPack12RoundTripASCII(t *testing.T) {
	words := []uint16{0o100, 0o001}

	packed := Pack12WordsToBytes(words, ASCII)
	got := Unpack12BytesToWords(packed, ASCII)

	assert.Equal(t, words, got)
}

func TestPack12OddWordCountPadsWithZero(t *testing.T) {
	words := []uint16{0o1234}

	packed := Pack12WordsToBytes(words, IMAGE)

	assert.Len(t, packed, 3)
	got := Unpack12BytesToWords(packed, IMAGE)
	assert.Equal(t, uint16(0o1234), got[0])
	assert.Equal(t, uint16(0), got[1])
}

func TestRad50Word12ToAscStripsPadding(t *testing.T) {
	w := AscToRad50Word12("A")

	assert.Equal(t, "A", Rad50Word12ToAsc(w))
}

func TestRad50Word12ToAscRoundTrip(t *testing.T) {
	w := AscToRad50Word12("AB")

	assert.Equal(t, "AB", Rad50Word12ToAsc(w))
}
