package encoding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// UIC is a [group,user] octal-pair User Identification Code /
// Project-Programmer Number, shared between the DOS-11/XXDP and TSS/8
// directory namespaces.
type UIC struct {
	Group, User uint8
}

// ParseUIC parses "[ggg,uuu]" (octal group/user) into a UIC. Accepts "*" for
// either half as a wildcard, returned as the sentinel value 0xFF.
const WildcardDigit = 0xFF

// ParseUIC parses a string of the form "[ggg,uuu]" into a UIC. Octal digits
// are expected for group and user; "*" in either position yields
// WildcardDigit for that half.
func ParseUIC(s string) (UIC, error) {
	start := strings.IndexByte(s, '[')
	end := strings.IndexByte(s, ']')
	if start < 0 || end < 0 || end < start {
		return UIC{}, errors.Errorf("invalid UIC syntax: %q", s)
	}
	body := s[start+1 : end]
	parts := strings.SplitN(body, ",", 2)
	if len(parts) != 2 {
		return UIC{}, errors.Errorf("invalid UIC syntax: %q", s)
	}
	parse := func(p string) (uint8, error) {
		p = strings.TrimSpace(p)
		if p == "*" {
			return WildcardDigit, nil
		}
		v, err := strconv.ParseUint(p, 8, 8)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid UIC digit %q", p)
		}
		return uint8(v), nil
	}
	group, err := parse(parts[0])
	if err != nil {
		return UIC{}, err
	}
	user, err := parse(parts[1])
	if err != nil {
		return UIC{}, err
	}
	return UIC{Group: group, User: user}, nil
}

// UICFromWord unpacks a 16-bit packed UIC word: high byte group, low byte
// user.
func UICFromWord(w uint16) UIC {
	return UIC{Group: uint8(w >> 8), User: uint8(w)}
}

// ToWord packs u into a 16-bit word.
func (u UIC) ToWord() uint16 {
	return uint16(u.Group)<<8 | uint16(u.User)
}

// Matches reports whether u matches pattern, honoring WildcardDigit on
// either half of pattern.
func (u UIC) Matches(pattern UIC) bool {
	if pattern.Group != WildcardDigit && pattern.Group != u.Group {
		return false
	}
	if pattern.User != WildcardDigit && pattern.User != u.User {
		return false
	}
	return true
}

// String renders u as "[g,u]" in octal, or "*" for a wildcard half.
func (u UIC) String() string {
	g := octOrStar(u.Group)
	usr := octOrStar(u.User)
	return fmt.Sprintf("[%s,%s]", g, usr)
}

func octOrStar(v uint8) string {
	if v == WildcardDigit {
		return "*"
	}
	return strconv.FormatUint(uint64(v), 8)
}
