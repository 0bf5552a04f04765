// Package dos11 implements the DOS-11/XXDP+ driver: MFD ->
// UFD chain of directory blocks keyed by UIC, contiguous and linked file
// block addressing. The disk driver is read-only; this package does not
// implement the DOS-11 MagTape form.
package dos11

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const (
	blockSize           = 512
	mfdBlock            = 1
	ufdEntries          = 28
	mfdEntrySize        = 8
	ufdEntrySize        = 18
	contiguousFileFlag  = 1 << 15
	linkedFileBlockSize = 510
)

func init() {
	fsapi.Register("dos11", mount)
}

// Entry is one UFD directory entry.
type Entry struct {
	uic             encoding.UIC
	Filename        string
	Filetype        string
	RawCreationDate uint16
	FilePosition    int64
	Len             uint16
	Contiguous      bool
	ProtectionCode  uint16
}

func (e *Entry) Name() string { return fmt.Sprintf("%s.%s", e.Filename, e.Filetype) }
func (e *Entry) Length() int64 {
	if e.Contiguous {
		return int64(e.Len) * blockSize
	}
	return int64(e.Len) * linkedFileBlockSize
}
func (e *Entry) Blocks() int { return int(e.Len) }
func (e *Entry) CreationDate() (encoding.Date, bool) {
	return encoding.DOS11ToDate(e.RawCreationDate)
}
func (e *Entry) Protected() bool { return e.ProtectionCode != 0 }
func (e *Entry) FileType() string { return "" }
func (e *Entry) IsDir() bool      { return false }

func (e *Entry) isEmpty() bool { return e.Filename == "" && e.Filetype == "" }

// Filesystem is the DOS-11/XXDP+ driver.
type Filesystem struct {
	img      *storage.Image
	dev      *block.Device
	uic      encoding.UIC
	readOnly bool
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, true) // disk variant is always read-only
	if err != nil {
		return nil, errors.Wrap(err, "mounting DOS-11 volume")
	}
	f := &Filesystem{img: img, dev: block.New(img), uic: encoding.UIC{Group: 1, User: 1}, readOnly: true}
	return f, nil
}

func be16(b []byte, pos int) uint16 { return uint16(b[pos]) | uint16(b[pos+1])<<8 }

// mfdEntry is one Master File Directory entry: a UIC plus its UFD chain
// head.
type mfdEntry struct {
	uic      encoding.UIC
	ufdBlock int64
}

func (f *Filesystem) readMFDEntries(uicFilter *encoding.UIC) ([]mfdEntry, error) {
	t, err := f.dev.ReadBlock(mfdBlock)
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	mfd2 := be16(t, 0)
	var out []mfdEntry
	if mfd2 != 0 {
		// MFD variety #1 (DOS-11): mfd2 is the block holding the entry
		// table itself.
		t2, err := f.dev.ReadBlock(int64(mfd2))
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		for pos := 0; pos < blockSize-mfdEntrySize; pos += mfdEntrySize {
			uic := encoding.UICFromWord(be16(t2, pos+2))
			ufdBlk := int64(be16(t2, pos+4))
			if ufdBlk == 0 {
				continue
			}
			if uicFilter == nil || uic.Matches(*uicFilter) {
				out = append(out, mfdEntry{uic: uic, ufdBlock: ufdBlk})
			}
		}
	} else {
		// MFD variety #2 (XXDP+): single implicit UIC.
		out = append(out, mfdEntry{uic: f.uic, ufdBlock: int64(be16(t, 2))})
	}
	return out, nil
}

func (f *Filesystem) readUFDChain(uic encoding.UIC, startBlock int64) ([]*Entry, error) {
	var out []*Entry
	next := startBlock
	for next != 0 {
		t, err := f.dev.ReadBlocks(next, 2)
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		nextBlock := int64(be16(t, 0))
		for pos := 2; pos < ufdEntries*ufdEntrySize; pos += ufdEntrySize {
			e := &Entry{uic: uic}
			e.Filename = encoding.WordToRad50(be16(t, pos)) + encoding.WordToRad50(be16(t, pos+2))
			e.Filetype = encoding.WordToRad50(be16(t, pos+4))
			raw := be16(t, pos+6)
			if raw&contiguousFileFlag != 0 {
				e.Contiguous = true
				raw &^= contiguousFileFlag
			}
			e.RawCreationDate = raw
			e.FilePosition = int64(be16(t, pos+10))
			e.Len = be16(t, pos+12)
			e.ProtectionCode = be16(t, pos+16)
			if !e.isEmpty() {
				out = append(out, e)
			}
		}
		next = nextBlock
	}
	return out, nil
}

func (f *Filesystem) allEntries(uicFilter *encoding.UIC) ([]*Entry, error) {
	mfds, err := f.readMFDEntries(uicFilter)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, m := range mfds {
		entries, err := f.readUFDChain(m.uic, m.ufdBlock)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// splitPattern separates a "[g,u]NAME.EXT" pattern into its UIC (nil if
// absent) and basename parts.
func splitPattern(pattern string) (*encoding.UIC, string) {
	if i := strings.IndexByte(pattern, '['); i >= 0 {
		if j := strings.IndexByte(pattern, ']'); j > i {
			if uic, err := encoding.ParseUIC(pattern[i : j+1]); err == nil {
				return &uic, pattern[j+1:]
			}
		}
	}
	return nil, pattern
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	uic := f.uic
	entries, err := f.allEntries(&uic)
	if err != nil {
		return nil, err
	}
	out := make([]fsapi.Entry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	uicFilter, base := splitPattern(pattern)
	if uicFilter == nil {
		u := f.uic
		uicFilter = &u
	}
	entries, err := f.allEntries(uicFilter)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		if base != "" {
			ok, err := path.Match(strings.ToUpper(base), e.Name())
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	uicFilter, base := splitPattern(fullname)
	if uicFilter == nil {
		u := f.uic
		uicFilter = &u
	}
	base = strings.ToUpper(base)
	entries, err := f.allEntries(uicFilter)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name() == base {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

func (f *Filesystem) readFileBytes(e *Entry) ([]byte, error) {
	if e.Contiguous {
		return f.dev.ReadBlocks(e.FilePosition, int64(e.Len))
	}
	var out []byte
	next := e.FilePosition
	for next != 0 {
		t, err := f.dev.ReadBlock(next)
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		next = int64(be16(t, 0))
		out = append(out, t[2:]...)
	}
	return out, nil
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	e, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	return f.readFileBytes(e.(*Entry))
}

// WriteBytes implements fs.Filesystem. The disk variant is read-only.
func (f *Filesystem) WriteBytes(string, []byte, string, string, int) error {
	return errors.Wrap(fsapi.ErrReadOnly, "DOS-11 disk driver is read-only")
}

// CreateFile implements fs.Filesystem. The disk variant is read-only.
func (f *Filesystem) CreateFile(string, int, string, string) (fsapi.Entry, error) {
	return nil, errors.Wrap(fsapi.ErrReadOnly, "DOS-11 disk driver is read-only")
}

// Delete implements fs.Filesystem. The disk variant is read-only.
func (f *Filesystem) Delete(fsapi.Entry) error {
	return errors.Wrap(fsapi.ErrReadOnly, "DOS-11 disk driver is read-only")
}

// Chdir implements fs.Filesystem: sets the current UIC.
func (f *Filesystem) Chdir(p string) error {
	uic, err := encoding.ParseUIC(p)
	if err != nil {
		return errors.Wrap(fsapi.ErrInvalidArg, err.Error())
	}
	f.uic = uic
	return nil
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return f.uic.String() }

// IsDir implements fs.Filesystem. DOS-11 files never nest.
func (f *Filesystem) IsDir(string) bool { return false }

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	_, err := f.GetFileEntry(fullname)
	return err == nil
}

// Dir implements fs.Filesystem.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	var files, blocks int
	for _, fe := range entries {
		e := fe.(*Entry)
		files++
		blocks += int(e.Len)
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.Name())
			continue
		}
		date := ""
		if d, ok := e.CreationDate(); ok {
			date = fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
		}
		uicStr := ""
		if options.UIC {
			uicStr = e.uic.String()
		}
		fmt.Fprintf(w, "%-6s.%-3s  %-9s  %10s %6d %6d %6o\n",
			e.Filename, e.Filetype, uicStr, date, e.Len, e.FilePosition, e.ProtectionCode)
	}
	if !options.Brief {
		fmt.Fprintf(w, " %d Files, %d Blocks\n", files, blocks)
	}
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	fmt.Fprintf(w, "Current UIC: %s\n", f.uic)
	mfds, err := f.readMFDEntries(nil)
	if err != nil {
		return err
	}
	for _, m := range mfds {
		fmt.Fprintf(w, "UIC %s  ufd_block=%d\n", m.uic, m.ufdBlock)
	}
	return nil
}

// Initialize implements fs.Filesystem. The disk variant is read-only.
func (f *Filesystem) Initialize(fsapi.InitOptions) error {
	return errors.Wrap(fsapi.ErrReadOnly, "DOS-11 disk driver is read-only")
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return nil }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
