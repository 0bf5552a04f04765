package tss8

import "strings"

// roundTripName canonicalizes name the same way a stored UFD filename would
// come back out: ASCII -> 12-bit words -> ASCII, truncated to the 3-word (6
// char) filename field, matching the round-trip inside
// tss8_canonical_filename.
func roundTripName(name string) string {
	words := asciiToWords(name)
	if len(words) > ufdFilenameSize {
		words = words[:ufdFilenameSize]
	}
	return strings.TrimSpace(wordsToASCII(words))
}

// canonicalFilename strips an optional "[g,u]" PPN prefix and rounds the
// remaining NAME.EXT through the filename field's word width, matching
// tss8_canonical_filename. wildcard appends a "*" extension when fullname
// has none.
func canonicalFilename(fullname string, wildcard bool) string {
	prefix := ""
	if strings.IndexByte(fullname, '[') >= 0 {
		if p, err := parsePPN(fullname); err == nil {
			prefix = p.String()
			if j := strings.IndexByte(fullname, ']'); j >= 0 {
				fullname = fullname[j+1:]
			}
		}
	}
	if fullname == "" {
		return prefix
	}
	fullname = strings.ToUpper(fullname)
	name, ext, found := strings.Cut(fullname, ".")
	if !found {
		name = fullname
		ext = ""
		if wildcard {
			ext = "*"
		}
	}
	name = roundTripName(name)
	return prefix + name + "." + ext
}

// splitFullname separates a "[g,u]NAME.EXT" PPN prefix from fullname,
// defaulting to current when absent, matching tss8_split_fullname.
func splitFullname(current ppn, fullname string, wildcard bool) (ppn, string) {
	if fullname == "" {
		return current, fullname
	}
	if strings.IndexByte(fullname, '[') >= 0 {
		p, err := parsePPN(fullname)
		if err != nil {
			return current, fullname
		}
		current = p
		if j := strings.IndexByte(fullname, ']'); j >= 0 {
			fullname = fullname[j+1:]
		}
	}
	if fullname != "" {
		fullname = canonicalFilename(fullname, wildcard)
	}
	return current, fullname
}

// prepareFilenameExtension splits a canonicalized NAME.EXT into its filename
// and extension-table index, matching tss8_prepare_filename_extension.
func prepareFilenameExtension(filename string) (name string, ext string, extIdx int) {
	filename = canonicalFilename(filename, false)
	name, ext, found := strings.Cut(filename, ".")
	if !found {
		name = filename
		ext = ""
	}
	if idx := extensionIndex(ext); idx >= 0 {
		extIdx = idx
	} else {
		ext = ""
		extIdx = 0
	}
	return name, ext, extIdx
}
