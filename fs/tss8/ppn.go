package tss8

import (
	"github.com/pkg/errors"

	"pdpimage/encoding"
)

// ppn is a TSS/8 Project-Programmer Number. It reuses encoding.UIC as a data
// container, but its on-disk word packing (6-bit group/user fields within a
// single 12-bit word) differs from encoding.UIC.ToWord's 8-bit byte-field
// packing (used by DOS-11/XXDP), so it carries its own pack/unpack methods
// rather than UIC.ToWord/UICFromWord.
type ppn encoding.UIC

func (p ppn) uic() encoding.UIC { return encoding.UIC(p) }

// ppnFromWord12 unpacks a 12-bit MFD/UFD user-identification word: group in
// bits <11:6>, user in bits <5:0>.
func ppnFromWord12(w uint16) ppn {
	return ppn{Group: uint8(w >> 6 & 0o77), User: uint8(w & 0o77)}
}

// toWord12 packs p back into a 12-bit word, matching PPN.to_word.
func (p ppn) toWord12() uint16 {
	return uint16(p.Group&0o77)<<6 | uint16(p.User&0o77)
}

// parsePPN parses "[g,u]" (octal group/user, "*" for a wildcard half).
func parsePPN(s string) (ppn, error) {
	u, err := encoding.ParseUIC(s)
	if err != nil {
		return ppn{}, errors.Wrap(err, "invalid PPN")
	}
	return ppn(u), nil
}

// matches reports whether p matches pattern, honoring encoding.WildcardDigit.
func (p ppn) matches(pattern ppn) bool {
	return p.uic().Matches(pattern.uic())
}

func (p ppn) String() string { return p.uic().String() }

// equals is exact Group/User equality, unlike matches which honors
// encoding.WildcardDigit.
func (p ppn) equals(other ppn) bool { return p.Group == other.Group && p.User == other.User }

var (
	anyPPN     = ppn{Group: encoding.WildcardDigit, User: encoding.WildcardDigit}
	defaultPPN = ppn{Group: 0, User: 1}
	mfdPPN     = ppn{Group: 0, User: 1}
)
