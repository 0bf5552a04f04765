// Package encoding implements the reversible character and date packers
// used across the filesystem drivers: RAD50, SIXBIT-12, FIODEC, Baudot, the
// 12-bit and 18-bit byte packers, and the per-format date encodings.
package encoding

import (
	"strings"

	"github.com/pkg/errors"
)

// rad50Alphabet is the 40-symbol PDP-11 RAD50 alphabet; index 0 is NUL,
// stripped on unpack.
const rad50Alphabet = "\x00ABCDEFGHIJKLMNOPQRSTUVWXYZ$%*0123456789:"

var rad50Index = buildRad50Index()

func buildRad50Index() map[byte]int {
	m := make(map[byte]int, len(rad50Alphabet))
	for i := 0; i < len(rad50Alphabet); i++ {
		m[rad50Alphabet[i]] = i
	}
	// Some dialects substitute '.' for '*' (symbol 30).
	m['.'] = 30
	return m
}

// Rad50ToWord packs up to 3 characters of s into one RAD50 word. Shorter
// strings are padded with NUL (symbol 0) on the right.
func Rad50ToWord(s string) (uint16, error) {
	if len(s) > 3 {
		return 0, errors.Errorf("RAD50 string too long: %q", s)
	}
	s = strings.ToUpper(s)
	var sym [3]int
	for i := 0; i < 3; i++ {
		if i < len(s) {
			v, ok := rad50Index[s[i]]
			if !ok {
				return 0, errors.Errorf("character %q not representable in RAD50", s[i])
			}
			sym[i] = v
		}
	}
	return uint16((sym[0]*40+sym[1])*40 + sym[2]), nil
}

// WordToRad50 unpacks one RAD50 word into 0-3 characters; NUL symbols are
// stripped.
func WordToRad50(w uint16) string {
	c := int(w % 40)
	w /= 40
	b := int(w % 40)
	w /= 40
	a := int(w % 40)

	var out strings.Builder
	for _, sym := range [3]int{a, b, c} {
		if sym == 0 {
			continue
		}
		if sym >= 0 && sym < len(rad50Alphabet) {
			out.WriteByte(rad50Alphabet[sym])
		}
	}
	return out.String()
}

// Rad50ToString packs an arbitrary-length string into RAD50 words, 3
// characters per word, space-padded to a multiple of 3 first.
func Rad50ToString(s string, nwords int) ([]uint16, error) {
	s = strings.ToUpper(s)
	for len(s) < nwords*3 {
		s += " "
	}
	words := make([]uint16, nwords)
	for i := 0; i < nwords; i++ {
		chunk := strings.ReplaceAll(s[i*3:i*3+3], " ", "\x00")
		w, err := Rad50ToWord(chunk)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// StringFromRad50 unpacks a slice of RAD50 words into a trimmed string.
func StringFromRad50(words []uint16) string {
	var out strings.Builder
	for _, w := range words {
		out.WriteString(WordToRad50(w))
	}
	return strings.TrimRight(out.String(), " ")
}
