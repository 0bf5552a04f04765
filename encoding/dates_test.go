package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRT11DateRoundTrip(t *testing.T) {
	d := Date{1985, 6, 15}
	val := DateToRT11(d)
	got, ok := RT11ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestRT11DateZero(t *testing.T) {
	got, ok := RT11ToDate(0)

	assert.False(t, ok)
	assert.True(t, got.IsZero())
}

func TestRT11DateAgeRollover(t *testing.T) {
	// Year 2004 is past the base 32-year range (1972-2003), so the "age"
	// field must be carried to round-trip.
	d := Date{2004, 1, 1}
	val := DateToRT11(d)
	got, ok := RT11ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestDOS11DateRoundTrip(t *testing.T) {
	d := Date{1978, 12, 31}
	val := DateToDOS11(d)
	got, ok := DOS11ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestOS8DateRoundTrip(t *testing.T) {
	d := Date{1974, 3, 9}
	val := DateToOS8(d)
	got, ok := OS8ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestTSS8DateRoundTrip(t *testing.T) {
	d := Date{1976, 5, 20}
	val := DateToTSS8(d)
	got, ok := TSS8ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestCAPS11DateRoundTrip(t *testing.T) {
	d := Date{1981, 11, 2}
	val := DateToCAPS11(d)
	got, ok := CAPS11ToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestCAPS11DateZeroIsSpaces(t *testing.T) {
	val := DateToCAPS11(Date{})

	assert.Equal(t, [6]byte{' ', ' ', ' ', ' ', ' ', ' '}, val)
}

func TestCAPS11DateInvalidDigits(t *testing.T) {
	_, ok := CAPS11ToDate([6]byte{' ', ' ', ' ', ' ', ' ', ' '})

	assert.False(t, ok)
}

func TestRDOSDateRoundTrip(t *testing.T) {
	d := Date{2001, 2, 28}
	val := DateToRDOS(d)
	got, ok := RDOSToDate(val)

	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestRDOSDateZero(t *testing.T) {
	got, ok := RDOSToDate(0)

	assert.False(t, ok)
	assert.True(t, got.IsZero())
	assert.Equal(t, uint16(0), DateToRDOS(Date{}))
}

func TestDateIsZero(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	assert.False(t, Date{1970, 1, 1}.IsZero())
}
