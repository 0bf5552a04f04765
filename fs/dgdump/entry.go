package dgdump

import (
	"fmt"
	"math"
	"strings"

	"pdpimage/encoding"
)

// Entry is one file, directory, partition, or link in the dump's nested
// namespace, matching DGDOSDumpEntry.
type Entry struct {
	fs     *Filesystem
	parent *Entry

	filename   string
	extension  string
	attributes int

	size      int64 // bytes
	blockSize int   // bytes per data block (the largest data block seen)
	addresses []int64

	lastAccessDate       uint16
	lastModificationDate uint16
	lastModificationTime uint16

	linkAccessAttributes int
	target               string // link target, "dir:resfilename" or "resfilename"
}

func newEntry(fs *Filesystem, nb *block, parent *Entry) *Entry {
	e := &Entry{fs: fs, parent: parent, attributes: nb.attributes}
	basename := strings.TrimRight(string(nb.data), "\x00")
	if name, ext, found := strings.Cut(basename, "."); found {
		e.filename, e.extension = name, ext
	} else {
		e.filename = basename
	}
	return e
}

func (e *Entry) isRandom() bool     { return e.attributes&atRAN != 0 }
func (e *Entry) isContiguous() bool { return e.attributes&atCON != 0 }
func (e *Entry) isLink() bool       { return e.attributes&atLNK != 0 }
func (e *Entry) isDirectory() bool  { return e.attributes&atDIR != 0 }
func (e *Entry) isPartition() bool  { return e.attributes&atPAR != 0 }
func (e *Entry) isSequential() bool { return !e.isRandom() && !e.isContiguous() && !e.isLink() }
func (e *Entry) isEmpty() bool      { return e.filename == "" && e.extension == "" }

func (e *Entry) basename() string { return fmt.Sprintf("%s.%s", e.filename, e.extension) }

func (e *Entry) fullname() string {
	if e.parent != nil {
		return rdosJoin(e.parent.fullname(), e.basename())
	}
	return e.basename()
}

func (e *Entry) lastAccess() (encoding.Date, bool) {
	return encoding.RDOSToDate(e.lastAccessDate)
}

func (e *Entry) creationDate() (encoding.Date, bool) {
	return encoding.RDOSToDate(e.lastModificationDate)
}

// fs.Entry implementation.

func (e *Entry) Name() string { return e.basename() }
func (e *Entry) Length() int64 { return e.size }
func (e *Entry) Blocks() int {
	if e.blockSize == 0 {
		return 0
	}
	return int(math.Ceil(float64(e.size) / float64(e.blockSize)))
}
func (e *Entry) CreationDate() (encoding.Date, bool) { return e.creationDate() }
func (e *Entry) Protected() bool                     { return e.attributes&atWP != 0 }
func (e *Entry) FileType() string {
	switch {
	case e.isDirectory():
		return "directory"
	case e.isPartition():
		return "partition"
	case e.isLink():
		return "link"
	case e.isRandom():
		return "random"
	case e.isContiguous():
		return "contiguous"
	default:
		return "sequential"
	}
}
func (e *Entry) IsDir() bool { return e.isDirectory() || e.isPartition() }
