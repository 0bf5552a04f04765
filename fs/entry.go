package fs

import "pdpimage/encoding"

// Entry is the common contract for one per-file descriptor: the inode /
// directory entry entity shared across formats. Every driver's own
// *-DirectoryEntry type implements this by delegating to its
// format-specific fields; ownership runs Entry -> containing
// directory/segment -> Filesystem, never back.
type Entry interface {
	// Name is the entry's basename in the filesystem's canonical form
	// (e.g. "A.TXT" for RT-11, "NAME.EXT" upper-cased for DOS-11).
	Name() string
	// Length is the file's size in bytes.
	Length() int64
	// Blocks is the number of data blocks the file occupies.
	Blocks() int
	// CreationDate returns the entry's creation date and whether one is
	// recorded; formats without dates, or files with an absent/null date
	// word, return ok=false.
	CreationDate() (encoding.Date, bool)
	// Protected reports whether the entry carries protection/read-only
	// bits set in its own format.
	Protected() bool
	// FileType is the format-specific type tag, or "" if the format
	// doesn't have one (e.g. "ASCII"/"IMAGE" for DMS/OS8, a CAPS-11
	// record-type name, empty for RT-11/DOS-11 which only have a
	// filename extension).
	FileType() string
	// IsDir reports whether the entry denotes a subdirectory (UIC/PPN
	// entry, DG RDOS directory attribute, UNIX directory inode).
	IsDir() bool
}

// DirOptions controls the format-native directory listing produced by
// Filesystem.Dir: the CLI's /brief, /full, /uic, /bitmap switches.
type DirOptions struct {
	Brief  bool
	Full   bool
	UIC    bool
	Bitmap bool
}

// ExamineOptions controls Filesystem.Examine's diagnostic dump depth.
type ExamineOptions struct {
	Bitmap bool
	Full   bool
}

// InitOptions carries format-agnostic parameters for Filesystem.Initialize;
// drivers interpret Extra for format-specific knobs (e.g. TSS/8 initial
// PPN, OS/8 partition count).
type InitOptions struct {
	// TotalBlocks, when non-zero, overrides the block count a driver
	// would otherwise infer from the image's current size.
	TotalBlocks int
	Extra        map[string]string
}
