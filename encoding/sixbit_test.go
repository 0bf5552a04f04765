package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSixbitRoundTrip(t *testing.T) {
	chars := [2]byte{'A', 'Z'}

	w := AscToSixbitWord12(chars)
	got := SixbitWord12ToAsc(w)

	assert.Equal(t, chars, got)
}

func TestSixbitWord12ToAscSpace(t *testing.T) {
	got := SixbitWord12ToAsc(0)

	assert.Equal(t, [2]byte{' ', ' '}, got)
}
