package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiodecRoundTripSimpleText(t *testing.T) {
	words := StrToFiodec("HELLO")

	got := FiodecToStr(words, 0)

	assert.Equal(t, "HELLO", got)
}

func TestFiodecRoundTripWithNewline(t *testing.T) {
	words := StrToFiodec("AB\nCD")

	got := FiodecToStr(words, 0)

	assert.Equal(t, "AB\nCD", got)
}

func TestFiodecRoundTripLowercaseIsUppercased(t *testing.T) {
	words := StrToFiodec("abc")

	got := FiodecToStr(words, 0)

	assert.Equal(t, "ABC", got)
}

func TestFiodecStartsAtGivenPosition(t *testing.T) {
	prefix := StrToFiodec("X")
	full := append(append([]uint32{}, prefix...), StrToFiodec("HI")...)

	got := FiodecToStr(full, len(prefix))

	assert.Equal(t, "HI", got)
}
