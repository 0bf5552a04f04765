package tss8

import (
	"fmt"
	"strings"

	"pdpimage/encoding"
)

// mfdEntry is one Master File Directory entry: a PPN account, the top level
// of TSS/8's two-level directory namespace, matching MasterFileDirectoryEntry.
type mfdEntry struct {
	mfd *masterFileDirectory

	position         int
	ppn              ppn
	password         string
	next             int
	quota            int
	deviceTime       int
	cpuTime          int
	retrievalPointer int
}

func readMFDEntry(mfd *masterFileDirectory, position int) *mfdEntry {
	w := mfd.words
	e := &mfdEntry{mfd: mfd, position: position}
	e.ppn = ppnFromWord12(w[position+mfdUIDPos])
	e.password = wordsToASCII(w[position+mfdPasswordPos : position+mfdPasswordPos+mfdPasswordSize])
	e.next = int(w[position+mfdNextPos])
	e.quota = int(w[position+mfdQuotaPos]) * quotaMultiplier
	e.deviceTime = int(w[position+mfdDeviceTimePos])
	e.cpuTime = int(w[position+mfdCPUTimePos])
	e.retrievalPointer = int(w[position+mfdRetrievalPointerPos])
	return e
}

func (e *mfdEntry) toWords() []uint16 {
	pw := asciiToWords(e.password)
	if len(pw) > mfdPasswordSize {
		pw = pw[:mfdPasswordSize]
	}
	for len(pw) < mfdPasswordSize {
		pw = append(pw, 0)
	}
	out := make([]uint16, 0, entrySize)
	out = append(out, e.ppn.toWord12())
	out = append(out, pw...)
	out = append(out, uint16(e.next), uint16(e.quota/quotaMultiplier), uint16(e.deviceTime), uint16(e.cpuTime), uint16(e.retrievalPointer))
	return out
}

func (e *mfdEntry) updateDir() { copy(e.mfd.words[e.position:e.position+entrySize], e.toWords()) }

// isDummy reports whether e is the MFD's sentinel first entry.
func (e *mfdEntry) isDummy() bool { return e.position == 0 }

// diskUsage sums the block length of every file across this PPN's UFD.
func (e *mfdEntry) diskUsage() (int, error) {
	ufd, err := readUFD(e)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range ufd.entries {
		if !f.isDummy() {
			n += f.length
		}
	}
	return n, nil
}

// fs.Entry implementation: an MFD entry models a PPN account as a directory.

func (e *mfdEntry) Name() string                             { return e.ppn.String() }
func (e *mfdEntry) Length() int64                             { return 0 }
func (e *mfdEntry) Blocks() int                               { return 0 }
func (e *mfdEntry) CreationDate() (encoding.Date, bool)       { return encoding.Date{}, false }
func (e *mfdEntry) Protected() bool                           { return false }
func (e *mfdEntry) FileType() string                          { return "" }
func (e *mfdEntry) IsDir() bool                               { return true }

// ufdEntry is one User File Directory entry: a file owned by a PPN account,
// matching UserFileDirectoryEntry.
type ufdEntry struct {
	ufd *userFileDirectory

	position         int
	filename         string
	extension        string
	extensionIdx     int
	protection       int
	next             int
	length           int // in blocks
	rawCreationDate  uint16
	retrievalPointer int
}

func readUFDEntry(ufd *userFileDirectory, position int) *ufdEntry {
	w := ufd.words
	e := &ufdEntry{ufd: ufd, position: position}
	e.filename = strings.TrimSpace(wordsToASCII(w[position+ufdFilenamePos : position+ufdFilenamePos+ufdFilenameSize]))
	e.next = int(w[position+ufdNextPos])
	extProt := w[position+ufdExtProtectionPos]
	e.protection = int(extProt & 0o77)
	e.extensionIdx = int(extProt >> 7 & 0xF)
	e.extension = extensions[e.extensionIdx]
	e.length = int(w[position+ufdFileSizePos])
	e.rawCreationDate = w[position+ufdCreationDatePos]
	e.retrievalPointer = int(w[position+ufdRetrievalPointerPos])
	return e
}

func (e *ufdEntry) toWords() []uint16 {
	name := asciiToWords(e.filename)
	if len(name) > ufdFilenameSize {
		name = name[:ufdFilenameSize]
	}
	for len(name) < ufdFilenameSize {
		name = append(name, 0)
	}
	out := append([]uint16(nil), name...)
	out = append(out, uint16(e.next), uint16(e.protection)+uint16(e.extensionIdx&0xF)<<7, uint16(e.length), e.rawCreationDate, uint16(e.retrievalPointer))
	return out
}

func (e *ufdEntry) updateDir() { copy(e.ufd.words[e.position:e.position+entrySize], e.toWords()) }

func (e *ufdEntry) isDummy() bool { return e.position == 0 }

func (e *ufdEntry) basename() string { return fmt.Sprintf("%s.%s", e.filename, e.extension) }
func (e *ufdEntry) fullname() string { return e.ufd.ppn.String() + e.basename() }

// fileMode is the ASCII/IMAGE view this entry's extension defaults to,
// matching TSS8File.__init__.
func (e *ufdEntry) fileMode() encoding.FileMode {
	if binaryExtensions[strings.ToUpper(e.extension)] {
		return encoding.IMAGE
	}
	return encoding.ASCII
}

func (e *ufdEntry) blocks() []int {
	return retrievalBlocksOf(e.ufd.fs, e.ufd.words, e.retrievalPointer)
}

// fs.Entry implementation.

func (e *ufdEntry) Name() string { return e.basename() }
func (e *ufdEntry) Length() int64 { return int64(e.length) * tss8BlockSizeBytes }
func (e *ufdEntry) Blocks() int   { return e.length }
func (e *ufdEntry) CreationDate() (encoding.Date, bool) {
	return encoding.TSS8ToDate(e.rawCreationDate)
}

// Protected reports the owner-write-protect bit (0o20); same-project and
// other-project bits are tracked in e.protection but have no analogue in
// fs.Entry's single boolean.
func (e *ufdEntry) Protected() bool { return e.protection&0o20 != 0 }
func (e *ufdEntry) FileType() string { return e.extension }
func (e *ufdEntry) IsDir() bool      { return false }
