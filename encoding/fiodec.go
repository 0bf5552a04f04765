package encoding

import "strings"

// FIODEC control codes (6-bit values).
const (
	fiodecEndOfLine   = 0o14
	fiodecEndOfPage   = 0o15
	fiodecEndOfFile   = 0o16
	fiodecMasterSpace = 0o17
	fiodecShiftOn     = 0o74
	fiodecShiftOff    = 0o72
	fiodecLinesPerPage = 60
)

var fiodecToASCII = map[int]rune{
	0o00: ' ', 0o01: '1', 0o02: '2', 0o03: '3', 0o04: '4', 0o05: '5',
	0o06: '6', 0o07: '7', 0o10: '8', 0o11: '9', 0o13: '\f',
	0o20: '0', 0o21: '/', 0o22: 'S', 0o23: 'T', 0o24: 'U', 0o25: 'V',
	0o26: 'W', 0o27: 'X', 0o30: 'Y', 0o31: 'Z', 0o33: ',', 0o34: ':',
	0o36: '\t', 0o40: '@', 0o41: 'J', 0o42: 'K', 0o43: 'L', 0o44: 'M',
	0o45: 'N', 0o46: 'O', 0o47: 'P', 0o50: 'Q', 0o51: 'R', 0o54: '-',
	0o55: ')', 0o56: '\\', 0o57: '(', 0o61: 'A', 0o62: 'B', 0o63: 'C',
	0o64: 'D', 0o65: 'E', 0o66: 'F', 0o67: 'G', 0o70: 'H', 0o71: 'I',
	0o73: '.',
	0o100: ' ', 0o101: '"', 0o102: '\'', 0o103: '~', 0o104: '#', 0o105: '!',
	0o106: '&', 0o107: '<', 0o110: '>', 0o111: '^', 0o120: '`', 0o121: '?',
	0o133: '=', 0o134: ';', 0o140: '_', 0o154: '+', 0o155: ']', 0o156: '|',
	0o157: '[', 0o173: '*',
}

var asciiToFiodec = buildASCIIToFiodec()

func buildASCIIToFiodec() map[rune]int {
	m := make(map[rune]int, len(fiodecToASCII))
	for code, ch := range fiodecToASCII {
		if code == 0o100 {
			continue
		}
		m[ch] = code
	}
	return m
}

// FiodecToStr converts a list of 18-bit FIODEC words, starting at position,
// to a string, honoring end-of-line/end-of-page/end-of-file/shift/master
// space in-band control codes.
func FiodecToStr(words []uint32, position int) string {
	var out strings.Builder
	shift := 0
	eof := false
	for _, word := range words[position:] {
		chars := [3]int{int(word>>12) & 0o77, int(word>>6) & 0o77, int(word) & 0o77}
		for i, ch := range chars {
			if i == 0 {
				switch ch {
				case fiodecEndOfLine:
					out.WriteByte('\n')
					goto nextWord
				case fiodecEndOfPage:
					out.WriteByte('\f')
					goto nextWord
				case fiodecEndOfFile:
					eof = true
					goto nextWord
				case fiodecMasterSpace:
					goto nextWord
				}
			}
			switch ch {
			case fiodecMasterSpace:
			case fiodecShiftOn:
				shift = 0o100
			case fiodecShiftOff:
				shift = 0
			default:
				if r, ok := fiodecToASCII[ch+shift]; ok {
					out.WriteRune(r)
				}
			}
		}
	nextWord:
		if eof {
			break
		}
	}
	return out.String()
}

// StrToFiodec converts a string to FIODEC words, inserting end-of-line
// markers with a running line number, pagination every 60 lines, and a
// trailing end-of-file marker.
func StrToFiodec(val string) []uint32 {
	var data []uint32
	var current []int
	shift := false
	lineNumber := 1
	pageNumber := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		for len(current) < 3 {
			current = append(current, fiodecMasterSpace)
		}
		data = append(data, uint32(current[0])<<12|uint32(current[1])<<6|uint32(current[2]))
		current = nil
	}
	addCh := func(vs ...int) {
		for _, v := range vs {
			current = append(current, v&0o77)
			if len(current) == 3 {
				data = append(data, uint32(current[0])<<12|uint32(current[1])<<6|uint32(current[2]))
				current = nil
			}
		}
	}
	addEndOfLine := func() {
		flush()
		addCh(fiodecEndOfLine, lineNumber>>6, lineNumber&0o77)
	}
	addEndOfPage := func() {
		flush()
		addCh(fiodecEndOfPage, pageNumber>>6, pageNumber&0o77)
	}
	addEndOfFile := func() {
		flush()
		addCh(fiodecEndOfFile, 0, 0)
	}

	for _, ch := range val {
		switch ch {
		case '\n':
			addEndOfLine()
			lineNumber++
			if lineNumber > fiodecLinesPerPage {
				addEndOfPage()
				lineNumber = 1
				pageNumber++
			}
		case '\f':
			addEndOfPage()
			lineNumber = 1
			pageNumber++
		case '\x1A':
			goto doneScan
		default:
			up := ch
			if up >= 'a' && up <= 'z' {
				up -= 'a' - 'A'
			}
			v, ok := asciiToFiodec[up]
			if !ok {
				continue
			}
			if v&0o100 != 0 {
				if !shift {
					shift = true
					addCh(fiodecShiftOn)
				}
				addCh(v & 0o77)
			} else {
				if shift {
					shift = false
					addCh(fiodecShiftOff)
				}
				addCh(v)
			}
		}
	}
doneScan:
	if lineNumber > 1 {
		addEndOfPage()
	}
	addEndOfFile()
	addCh(0, 0, 0)
	flush()
	return data
}
