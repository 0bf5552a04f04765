package os8

import (
	"fmt"
	"strings"

	"pdpimage/encoding"
)

// asciiExtensions lists the file-type extensions OS/8 treats as 7-bit ASCII
// text by default; everything else defaults to an 8-bit IMAGE view.
var asciiExtensions = map[string]bool{
	"BA": true, // BASIC
	"BI": true, // BATCH
	"FC": true, // FOCAL
	"FT": true, // FORTRAN
	"HL": true, // HELP
	"LS": true, // Listing
	"MA": true, // MACRO
	"PA": true, // PAL
	"PS": true, // Pascal
	"RA": true, // RALF
	"SB": true, // SABR
	"TE": true, // TECO
	"TX": true, // Text
	"WU": true, // Write Up
}

// Entry is one OS/8 directory entry: a permanent file, a tentative
// (zero-length, still-open) file, or an empty run of free blocks.
type Entry struct {
	segment *segment

	Filename        string // up to 6 chars
	Extension       string // up to 2 chars
	Len             int    // length in blocks; 0 on a tentative entry
	RawCreationDate uint16
	ExtraWords      []uint16
	FilePosition    int // block number within the partition
	Empty           bool
}

// fullname is "NAME.EXT".
func (e *Entry) fullname() string { return fmt.Sprintf("%s.%s", e.Filename, e.Extension) }

func (e *Entry) basename() string { return e.fullname() }

// IsTentative reports whether the entry is an open, still-zero-length file.
func (e *Entry) IsTentative() bool { return e.Len == 0 && !e.Empty }

// IsPermanent reports whether the entry names a closed, non-empty file.
func (e *Entry) IsPermanent() bool { return !e.Empty && !e.IsTentative() }

// fileMode is the ASCII/IMAGE view this entry's extension defaults to.
func (e *Entry) fileMode() encoding.FileMode {
	if asciiExtensions[strings.ToUpper(e.Extension)] {
		return encoding.ASCII
	}
	return encoding.IMAGE
}

// fs.Entry implementation.

// Name implements fs.Entry.
func (e *Entry) Name() string { return e.fullname() }

// Length implements fs.Entry.
func (e *Entry) Length() int64 { return int64(e.Len) * fileBlockBytes }

// Blocks implements fs.Entry.
func (e *Entry) Blocks() int { return e.Len }

// CreationDate implements fs.Entry.
func (e *Entry) CreationDate() (encoding.Date, bool) {
	return encoding.OS8ToDate(e.RawCreationDate)
}

// Protected implements fs.Entry. OS/8 directory entries carry no protection
// bit.
func (e *Entry) Protected() bool { return false }

// FileType implements fs.Entry: "ASCII" or "IMAGE", per the extension table.
func (e *Entry) FileType() string {
	if e.fileMode() == encoding.ASCII {
		return "ASCII"
	}
	return "IMAGE"
}

// IsDir implements fs.Entry. OS/8 has no subdirectories, only partitions.
func (e *Entry) IsDir() bool { return false }

// wordLen is the entry's width in directory words.
func (e *Entry) wordLen() int {
	if e.Empty {
		return emptyDirEntrySize
	}
	return dirEntrySize + len(e.ExtraWords)
}

// readEntry decodes one directory entry starting at words[position],
// matching OS8DirectoryEntry.read.
func readEntry(s *segment, words [dirSegmentSize]uint16, position int, filePosition int) *Entry {
	e := &Entry{segment: s, FilePosition: filePosition}
	if words[position] != 0 {
		n1, n2, n3, ext := words[position], words[position+1], words[position+2], words[position+3]
		e.Filename = encoding.Rad50Word12ToAsc(n1) + encoding.Rad50Word12ToAsc(n2) + encoding.Rad50Word12ToAsc(n3)
		e.Extension = encoding.Rad50Word12ToAsc(ext)
		extra := make([]uint16, s.extraWords)
		copy(extra, words[position+4:position+4+s.extraWords])
		e.ExtraWords = extra
		if s.extraWords > 0 {
			e.RawCreationDate = extra[0]
		}
		length := words[position+4+s.extraWords]
		if length != 0 {
			e.Len = dirLenBase - int(length)
		}
	} else {
		e.Empty = true
		e.Len = dirLenBase - int(words[position+1])
	}
	return e
}

// toWords encodes the entry back to its on-disk word form.
func (e *Entry) toWords() []uint16 {
	if e.Empty {
		return []uint16{0, uint16(dirLenBase - e.Len)}
	}
	out := make([]uint16, 0, dirEntrySize+len(e.ExtraWords))
	out = append(out, encoding.AscToRad50Word12(substr(e.Filename, 0, 2)))
	out = append(out, encoding.AscToRad50Word12(substr(e.Filename, 2, 4)))
	out = append(out, encoding.AscToRad50Word12(substr(e.Filename, 4, 6)))
	out = append(out, encoding.AscToRad50Word12(e.Extension))
	extra := append([]uint16(nil), e.ExtraWords...)
	if len(extra) == 0 && e.segment.extraWords > 0 {
		extra = make([]uint16, e.segment.extraWords)
	}
	if len(extra) > 0 {
		extra[0] = e.RawCreationDate
	}
	out = append(out, extra...)
	out = append(out, uint16(dirLenBase-e.Len))
	return out
}

func substr(s string, lo, hi int) string {
	if lo > len(s) {
		lo = len(s)
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}
