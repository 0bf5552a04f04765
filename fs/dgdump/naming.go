package dgdump

import "strings"

// rdosJoin/rdosSplit are the same forward-slash path idiom
// fs/unixcommon's unixJoin/unixSplit use, reused here under a local name
// since the dump's nested directory/partition namespace is unix-shaped
// too, matching rdos_join/rdos_split.
func rdosJoin(a string, p ...string) string {
	result := a
	for _, b := range p {
		switch {
		case strings.HasPrefix(b, "/"):
			result = b
		case result == "" || strings.HasSuffix(result, "/"):
			result += b
		default:
			result += "/" + b
		}
	}
	return result
}

func rdosSplit(p string) (dir, base string) {
	i := strings.LastIndexByte(p, '/') + 1
	head, tail := p[:i], p[i:]
	if head != "" && strings.Trim(head, "/") != "" {
		head = strings.TrimRight(head, "/")
	}
	return head, tail
}

// rdosCanonicalFilename upper-cases and trims a basename for comparison,
// matching rdos_canonical_filename.
func rdosCanonicalFilename(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
