package encoding

// Pack18WordsToBytes packs 18-bit PDP-7 words into bytes. ASCII mode stores
// 2 bytes per word (bits 9-17 then bits 0-8, each masked to 7 bits). IMAGE
// mode stores 3 bytes per word, one 6-bit field each biased by 0x80.
func Pack18WordsToBytes(words []uint32, mode FileMode) []byte {
	var out []byte
	if mode == ASCII {
		for _, w := range words {
			out = append(out, byte((w>>9)&0o177), byte(w&0o177))
		}
	} else {
		for _, w := range words {
			out = append(out, byte(((w>>12)&0o077)+0x80), byte(((w>>6)&0o077)+0x80), byte((w&0o077)+0x80))
		}
	}
	return out
}

// Unpack18BytesToWords is the inverse of Pack18WordsToBytes.
func Unpack18BytesToWords(data []byte, mode FileMode) []uint32 {
	var words []uint32
	if mode == ASCII {
		for i := 0; i+1 < len(data); i += 2 {
			words = append(words, uint32(data[i])<<9|uint32(data[i+1]))
		}
	} else {
		for i := 0; i+2 < len(data); i += 3 {
			words = append(words, uint32(data[i]-0x80)<<12|uint32(data[i+1]-0x80)<<6|uint32(data[i+2]-0x80))
		}
	}
	return words
}
