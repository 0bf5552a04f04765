package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUICRoundTrip(t *testing.T) {
	uic, err := ParseUIC("[1,2]")

	require.NoError(t, err)
	assert.Equal(t, UIC{Group: 1, User: 2}, uic)
	assert.Equal(t, "[1,2]", uic.String())
}

func TestParseUICOctalDigits(t *testing.T) {
	uic, err := ParseUIC("[10,17]")

	require.NoError(t, err)
	assert.Equal(t, UIC{Group: 8, User: 15}, uic)
}

func TestParseUICWildcard(t *testing.T) {
	uic, err := ParseUIC("[*,5]")

	require.NoError(t, err)
	assert.Equal(t, UIC{Group: WildcardDigit, User: 5}, uic)
	assert.Equal(t, "[*,5]", uic.String())
}

func TestParseUICInvalidSyntax(t *testing.T) {
	_, err := ParseUIC("1,2")

	assert.Error(t, err)
}

func TestParseUICInvalidDigit(t *testing.T) {
	_, err := ParseUIC("[9,1]")

	assert.Error(t, err)
}

func TestUICWordRoundTrip(t *testing.T) {
	u := UIC{Group: 3, User: 200}

	assert.Equal(t, u, UICFromWord(u.ToWord()))
}

func TestUICMatchesWildcard(t *testing.T) {
	u := UIC{Group: 1, User: 2}
	pattern := UIC{Group: WildcardDigit, User: 2}

	assert.True(t, u.Matches(pattern))
}

func TestUICMatchesRejectsMismatch(t *testing.T) {
	u := UIC{Group: 1, User: 2}
	pattern := UIC{Group: 1, User: 3}

	assert.False(t, u.Matches(pattern))
}
