package rt11

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func init() {
	fsapi.Register("rt11", mount)
}

// Filesystem is the RT-11 driver: home block plus a linked list of
// directory segments.
type Filesystem struct {
	img *storage.Image
	dev *block.Device

	dirSegment int64
	version    string
	volumeID   string
	owner      string
	sysID      string
	checksum   uint16

	readOnly bool
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting RT-11 volume")
	}
	f := &Filesystem{img: img, dev: block.New(img), readOnly: readOnly}
	if err := f.readHome(); err != nil {
		img.Close()
		return nil, err
	}
	if strict && f.sysID != "" && !strings.HasPrefix(f.sysID, "DECRT11") {
		img.Close()
		return nil, errors.Wrapf(fsapi.ErrIO, "not an RT-11 volume (system id %q)", f.sysID)
	}
	return f, nil
}

func (f *Filesystem) readHome() error {
	t, err := f.dev.ReadBlock(homeBlock)
	if err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	f.dirSegment = int64(be16(t, 468))
	if f.dirSegment == 0 {
		f.dirSegment = defaultDirSegment
	}
	f.version = encoding.WordToRad50(be16(t, 470))
	f.volumeID = asciiField(t[472:484])
	f.owner = asciiField(t[484:496])
	f.sysID = asciiField(t[496:508])
	f.checksum = be16(t, 510)
	return nil
}

func asciiField(b []byte) string {
	return strings.TrimRight(strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, string(b)), "\x00")
}

func asciiFieldBytes(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

func (f *Filesystem) writeHome() error {
	home := make([]byte, blockSize)
	home[468], home[469] = byte(f.dirSegment), byte(f.dirSegment>>8)
	verWord, _ := encoding.Rad50ToWord(f.version)
	home[470], home[471] = byte(verWord), byte(verWord>>8)
	copy(home[472:484], asciiFieldBytes(f.volumeID, 12))
	copy(home[484:496], asciiFieldBytes(f.owner, 12))
	copy(home[496:508], asciiFieldBytes(f.sysID, 12))
	return f.dev.WriteBlock(homeBlock, home)
}

// readDirSegments walks the directory segment chain starting at dirSegment.
func (f *Filesystem) readDirSegments() ([]*segment, error) {
	var out []*segment
	next := f.dirSegment
	for next != 0 {
		seg := newSegment(f)
		if err := seg.read(next); err != nil {
			return nil, err
		}
		next = seg.nextBlockNumber()
		out = append(out, seg)
	}
	return out, nil
}

// canonicalName upper-cases and RAD50-normalizes a filename, as RT-11 only
// represents characters the RAD50 alphabet can hold.
func canonicalName(fullname string, wildcard bool) string {
	fullname = strings.ToUpper(fullname)
	name, ext, found := strings.Cut(fullname, ".")
	if !found {
		name = fullname
		if wildcard {
			ext = "*"
		}
	}
	name = rad50Round(name, 6)
	ext = rad50Round(ext, 3)
	return name + "." + ext
}

func rad50Round(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	var out strings.Builder
	for i := 0; i < len(s); i += 3 {
		end := i + 3
		if end > len(s) {
			end = len(s)
		}
		w, err := encoding.Rad50ToWord(s[i:end])
		if err != nil {
			out.WriteString(s[i:end])
			continue
		}
		out.WriteString(encoding.WordToRad50(w))
	}
	return out.String()
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	segs, err := f.readDirSegments()
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, seg := range segs {
		for _, e := range seg.entries {
			out = append(out, e)
		}
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	if pattern != "" {
		pattern = canonicalName(pattern, wildcard || strings.Contains(pattern, "*") || strings.Contains(pattern, "?"))
	}
	segs, err := f.readDirSegments()
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, seg := range segs {
		for _, e := range seg.entries {
			if pattern != "" {
				ok, err := path.Match(pattern, e.Fullname())
				if err != nil || !ok {
					continue
				}
			}
			if !includeAll && (e.IsEmpty() || e.IsTentative() || e.IsEndOfSegment()) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *Filesystem) findEntry(fullname string) (*Entry, error) {
	fullname = canonicalName(fullname, false)
	segs, err := f.readDirSegments()
	if err != nil {
		return nil, err
	}
	for _, seg := range segs {
		for _, e := range seg.entries {
			if e.Fullname() == fullname && e.IsPermanent() {
				return e, nil
			}
		}
	}
	return nil, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	e, err := f.findEntry(fullname)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	return e, nil
}

// ReadBytes implements fs.Filesystem. mode is ignored; RT-11 has no
// ASCII/IMAGE distinction.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	e, err := f.findEntry(fullname)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	return f.dev.ReadBlocks(e.FilePosition, int64(e.Len))
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	length := int(math.Ceil(float64(len(content)) / blockSize))
	e, err := f.CreateFile(fullname, length, creationDate, fileType)
	if err != nil {
		return err
	}
	entry := e.(*Entry)
	padded := make([]byte, int64(entry.Len)*blockSize)
	copy(padded, content)
	return f.dev.WriteBlocks(entry.FilePosition, padded)
}

// CreateFile implements fs.Filesystem. It deletes any existing file of the
// same name, then allocates length blocks via allocateSpace.
func (f *Filesystem) CreateFile(fullname string, length int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrapf(fsapi.ErrReadOnly, "create %s", fullname)
	}
	fullname = path.Base(fullname)
	existing, err := f.findEntry(fullname)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := existing.delete(); err != nil {
			return nil, err
		}
	}
	var date encoding.Date
	if creationDate != "" {
		date, _ = parseDate(creationDate)
	}
	return f.allocateSpace(fullname, uint16(length), date)
}

// splitSegment inserts a brand new segment after entry's segment, moving
// every entry past `entry` into it.
func (f *Filesystem) splitSegment(entry *Entry) (bool, error) {
	oldSegment := entry.segment
	segs, err := f.readDirSegments()
	if err != nil {
		return false, err
	}
	firstSegment := segs[0]
	used := make(map[int64]bool, len(segs))
	for _, s := range segs {
		used[s.blockNumber] = true
	}
	var newBlockNumber int64 = -1
	for i := f.dirSegment; i < f.dirSegment+int64(firstSegment.numOfSegments)*2; i += 2 {
		if !used[i] {
			newBlockNumber = i
			break
		}
	}
	if newBlockNumber == -1 {
		return false, nil
	}

	newSeg := newSegment(f)
	newSeg.blockNumber = newBlockNumber
	newSeg.numOfSegments = firstSegment.numOfSegments
	newSeg.nextLogicalSegment = oldSegment.nextLogicalSegment
	newSeg.highestSegment = 1
	newSeg.extraBytes = segs[0].extraBytes
	newSeg.dataBlockNumber = entry.FilePosition + int64(entry.Len)

	oldSegment.nextLogicalSegment = int((newSeg.blockNumber-f.dirSegment)/2) + 1
	entry.Class |= classEndOfSegment
	firstSegment.numOfSegments = len(segs)
	if err := firstSegment.write(); err != nil {
		return false, err
	}

	entryPosition := -1
	for i, e := range oldSegment.entries {
		if e == entry {
			entryPosition = i
			break
		}
	}
	// Only reject when the entry genuinely is not present in its own
	// segment; a naive `== 1` guard here would misfire on the legitimate
	// first-entry case.
	if entryPosition == -1 {
		return false, nil
	}
	newSeg.entries = oldSegment.entries[entryPosition+1:]
	oldSegment.entries = oldSegment.entries[:entryPosition+1]
	if err := oldSegment.write(); err != nil {
		return false, err
	}
	newSeg.dataBlockNumber = entry.FilePosition + int64(entry.Len)
	entry.Class |= classEndOfSegment
	if err := newSeg.write(); err != nil {
		return false, err
	}
	return true, nil
}

// allocateSpace implements best-fit allocation over the free segments.
func (f *Filesystem) allocateSpace(fullname string, length uint16, creationDate encoding.Date) (*Entry, error) {
	segs, err := f.readDirSegments()
	if err != nil {
		return nil, err
	}
	var best *Entry
	var bestIndex int
	for _, seg := range segs {
		for i, e := range seg.entries {
			if e.IsEmpty() && e.Len >= length {
				if best == nil || best.Len > e.Len {
					best = e
					bestIndex = i
					if best.Len == length {
						break
					}
				}
			}
		}
	}
	if best == nil {
		return nil, errors.Wrapf(fsapi.ErrNoSpace, "no empty entry fits %d blocks for %s", length, fullname)
	}
	if best.Len != length {
		if len(best.segment.entries) >= best.segment.maxEntries {
			ok, err := f.splitSegment(best)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.Wrapf(fsapi.ErrNoSpace, "directory full, cannot split for %s", fullname)
			}
		}
		best.segment.insertEntryAfter(best, bestIndex, length)
	}

	name, ext, _ := strings.Cut(strings.ToUpper(fullname), ".")
	best.Filename = name
	best.Filetype = ext
	best.RawCreationDate = encoding.DateToRT11(creationDate)
	best.Job = 0
	best.Channel = 0
	if best.IsEndOfSegment() {
		best.Class = classPermanent | classEndOfSegment
	} else {
		best.Class = classPermanent
	}
	best.Len = length
	if err := best.segment.write(); err != nil {
		return nil, err
	}
	return best, nil
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(e fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "delete")
	}
	entry, ok := e.(*Entry)
	if !ok {
		return errors.Wrap(fsapi.ErrInvalidArg, "not an RT-11 entry")
	}
	return entry.delete()
}

// Chdir implements fs.Filesystem. RT-11 has no directory hierarchy.
func (f *Filesystem) Chdir(string) error { return errors.Wrap(fsapi.ErrInvalidArg, "RT-11 has no directories") }

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return "" }

// IsDir implements fs.Filesystem. RT-11 never has directories.
func (f *Filesystem) IsDir(string) bool { return false }

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	e, err := f.findEntry(fullname)
	return err == nil && e != nil
}

// GetTypes implements fs.Filesystem. RT-11 files are untyped beyond their
// extension.
func (f *Filesystem) GetTypes() []string { return nil }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }

// parseDate parses a "YYYY-MM-DD" creation-date argument as passed down
// from the shell dispatch layer.
func parseDate(s string) (encoding.Date, bool) {
	var y, m, d int
	if n, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil || n != 3 {
		return encoding.Date{}, false
	}
	return encoding.Date{Year: y, Month: m, Day: d}, true
}
