package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack18RoundTripImage(t *testing.T) {
	words := []uint32{0o777777, 0o000001, 0o400000}

	packed := Pack18WordsToBytes(words, IMAGE)
	got := Unpack18BytesToWords(packed, IMAGE)

	assert.Equal(t, words, got)
}

func TestPack18RoundTripASCII(t *testing.T) {
	// ASCII mode keeps only 7 bits per half-word, so round-trip values must
	// be composed of two 7-bit characters (bits 7-8 and 16-17 clear).
	words := []uint32{uint32('A')<<9 | uint32('B'), uint32(' ')<<9 | uint32('Z')}

	packed := Pack18WordsToBytes(words, ASCII)
	got := Unpack18BytesToWords(packed, ASCII)

	assert.Equal(t, words, got)
}

func TestPack18ImageUsesThreeBytesPerWord(t *testing.T) {
	packed := Pack18WordsToBytes([]uint32{0, 0}, IMAGE)

	assert.Len(t, packed, 6)
}

func TestPack18ASCIIUsesTwoBytesPerWord(t *testing.T) {
	packed := Pack18WordsToBytes([]uint32{0, 0}, ASCII)

	assert.Len(t, packed, 4)
}
