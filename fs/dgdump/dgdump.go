// Package dgdump implements the DG RDOS Dump driver: a
// streaming archive of typed blocks (Name/Data/Error/End/Time/Link-Data/
// Link-Attrs/End-Of-Segment) where a Name block opens a file, directory,
// or partition and an End block closes it; directories nest through
// attribute bits rather than a fixed on-disk tree, and a partition resets
// the parent stack. Entirely read-only: every mutator returns EROFS.
package dgdump

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

func init() {
	fsapi.Register("dump", mount)
}

// Filesystem is the DG RDOS Dump driver.
type Filesystem struct {
	img *storage.Image
	pwd string
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, true) // dump archives are always mounted read-only
	if err != nil {
		return nil, errors.Wrap(err, "mounting DG RDOS Dump volume")
	}
	f := &Filesystem{img: img, pwd: "/"}
	if strict {
		if _, err := img.Seek(0, storage.SeekStart); err != nil {
			img.Close()
			return nil, err
		}
		id, err := f.readByte()
		if err != nil || id != nameBlockID {
			img.Close()
			return nil, errors.Wrap(fsapi.ErrIO, "not a DG RDOS Dump file")
		}
	}
	return f, nil
}

// readDirEntries streams the entire dump from the start, yielding the
// immediate children of parent (nil for the root), matching
// DGDOSDumpFilesystem.read_dir_entries.
func (f *Filesystem) readDirEntries(parent *Entry) ([]*Entry, error) {
	if _, err := f.img.Seek(0, storage.SeekStart); err != nil {
		return nil, err
	}
	var out []*Entry
	var parents []*Entry
	var entry *Entry
	sameParent := func(e *Entry) bool {
		if e.parent == nil {
			return parent == nil
		}
		return parent != nil && e.parent.fullname() == parent.fullname()
	}
	for {
		b, err := f.readBlock()
		if err != nil {
			if errors.Cause(err) == io.EOF || errors.Cause(err) == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		switch b.id {
		case nameBlockID:
			if entry != nil {
				if entry.isDirectory() {
					parents = append(parents, entry)
				} else if entry.isPartition() {
					parents = []*Entry{entry}
				}
				if sameParent(entry) {
					out = append(out, entry)
				}
			}
			var p *Entry
			if len(parents) > 0 {
				p = parents[len(parents)-1]
			}
			entry = newEntry(f, b, p)
		case dataBlockID:
			entry.size += int64(b.byteCount)
			if entry.blockSize < b.byteCount {
				entry.blockSize = b.byteCount
			}
			entry.addresses = append(entry.addresses, b.dataPosition)
		case timeBlockID:
			entry.lastAccessDate = b.lastAccessDate
			entry.lastModificationDate = b.lastModificationDate
			entry.lastModificationTime = b.lastModificationTime
		case linkDataBlockID:
			if b.dirname != "" {
				entry.target = b.dirname + ":" + b.resfilename
			} else {
				entry.target = b.resfilename
			}
		case linkAccessAttributesID:
			entry.linkAccessAttributes = b.attributes
		case endBlockID:
			if len(parents) > 0 {
				parents = parents[:len(parents)-1]
			} else {
				if entry != nil && sameParent(entry) {
					out = append(out, entry)
				}
				return out, nil
			}
		}
	}
	if entry != nil && sameParent(entry) {
		out = append(out, entry)
	}
	return out, nil
}

// getUFD resolves basename inside parent's children, matching
// DGDOSDumpFilesystem.get_ufd.
func (f *Filesystem) getUFD(parent *Entry, basename string) (*Entry, error) {
	basename = strings.TrimRight(rdosCanonicalFilename(basename), ".")
	entries, err := f.readDirEntries(parent)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if strings.TrimRight(rdosCanonicalFilename(e.basename()), ".") == basename {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", basename)
}

// GetFileEntry implements fs.Filesystem, matching
// DGDOSDumpFilesystem.get_file_entry.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	if !strings.HasPrefix(fullname, "/") {
		fullname = rdosJoin(f.pwd, fullname)
	}
	var parts []string
	for _, part := range strings.Split(fullname, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	var entry *Entry
	for _, part := range parts {
		if entry != nil && !(entry.isDirectory() || entry.isPartition()) {
			return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
		}
		e, err := f.getUFD(entry, part)
		if err != nil {
			return nil, err
		}
		entry = e
	}
	if entry == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	return entry, nil
}

// FilterEntriesList implements fs.Filesystem, matching
// DGDOSDumpFilesystem.filter_entries_list.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	if pattern != "" {
		pattern = strings.ToUpper(pattern)
	}
	if pattern == "" {
		pattern = "*"
	}
	absolute := pattern
	if !strings.HasPrefix(pattern, "/") {
		absolute = rdosJoin(f.pwd, pattern)
	}
	var dirname, namePattern string
	if f.IsDir(absolute) {
		dirname, namePattern = pattern, "*"
	} else {
		dirname, namePattern = rdosSplit(absolute)
	}
	var dirEntry *Entry
	if dirname != "/" && dirname != "" {
		fe, err := f.GetFileEntry(dirname)
		if err != nil {
			return nil, err
		}
		dirEntry = fe.(*Entry)
	}
	entries, err := f.readDirEntries(dirEntry)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		ok, err := path.Match(namePattern, strings.ToUpper(e.basename()))
		if err != nil || !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.readDirEntries(nil)
	if err != nil {
		return nil, err
	}
	out := make([]fsapi.Entry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

// readContent reads every recorded data block of e, matching
// DGDOSDumpFile.read_block over the file's full length.
func (f *Filesystem) readContent(e *Entry, mode int) ([]byte, error) {
	var out []byte
	for i, addr := range e.addresses {
		size := e.blockSize
		if i == len(e.addresses)-1 {
			size = int(e.size) - e.blockSize*(len(e.addresses)-1)
		}
		buf := make([]byte, size)
		if err := f.img.ReadAt(buf, addr); err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, "reading dump data block")
		}
		out = append(out, buf...)
	}
	if mode == int(encoding.ASCII) {
		for i, b := range out {
			if b == 0x0D {
				out[i] = 0x0A
			}
		}
	}
	return out, nil
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	fe, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	return f.readContent(fe.(*Entry), mode)
}

// WriteBytes implements fs.Filesystem: always read-only.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	return errors.Wrap(fsapi.ErrReadOnly, "write")
}

// CreateFile implements fs.Filesystem: always read-only.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	return nil, errors.Wrap(fsapi.ErrReadOnly, "create")
}

// Delete implements fs.Filesystem: always read-only.
func (f *Filesystem) Delete(e fsapi.Entry) error { return errors.Wrap(fsapi.ErrReadOnly, "delete") }

// Chdir implements fs.Filesystem: the dump's traversal is always driven by
// absolute/relative paths passed to each operation, matching
// DGDOSDumpFilesystem.chdir's unconditional False.
func (f *Filesystem) Chdir(fullname string) error {
	return errors.Wrap(fsapi.ErrInvalidArg, "DG RDOS Dump has no current directory")
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return "" }

// IsDir implements fs.Filesystem.
func (f *Filesystem) IsDir(fullname string) bool {
	if fullname == "" || fullname == "/" {
		return true
	}
	e, err := f.GetFileEntry(fullname)
	if err != nil {
		return false
	}
	return e.(*Entry).isDirectory() || e.(*Entry).isPartition()
}

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	_, err := f.GetFileEntry(fullname)
	return err == nil
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return nil }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }

// Dir implements fs.Filesystem, matching DGDOSDumpFilesystem.dir.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	for _, fe := range entries {
		e := fe.(*Entry)
		switch {
		case options.Brief:
			fmt.Fprintf(w, "%s\n", e.basename())
		case e.isLink():
			fmt.Fprintf(w, "%-13s             %s\n", e.basename(), e.target)
		default:
			attr := formatAttr(e.attributes)
			if la := formatAttr(e.linkAccessAttributes); la != "" {
				attr = attr + "/" + la
			}
			dateStr := ""
			if d, ok := e.creationDate(); ok {
				dateStr = fmt.Sprintf("%02d/%02d/%02d", d.Month, d.Day, d.Year%100)
			}
			accessStr := ""
			if d, ok := e.lastAccess(); ok {
				accessStr = fmt.Sprintf("%02d/%02d/%02d", d.Month, d.Day, d.Year%100)
			}
			fmt.Fprintf(w, "%-13s%10d  %-7s %-14s %-8s\n", e.basename(), e.Length(), attr, dateStr, accessStr)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// Examine implements fs.Filesystem, matching DGDOSDumpFilesystem.examine.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg == "" {
		entries, err := f.readDirEntries(nil)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if options.Full || !e.isEmpty() {
				fmt.Fprintf(w, "%s\n", entrySummary(e))
			}
		}
		return nil
	}
	fe, err := f.GetFileEntry(arg)
	if err != nil {
		return err
	}
	fmt.Fprint(w, examineDetail(fe.(*Entry)))
	return nil
}

func entrySummary(e *Entry) string {
	attr := formatAttr(e.attributes)
	if la := formatAttr(e.linkAccessAttributes); la != "" {
		attr = attr + "/" + la
	}
	if e.isLink() {
		return fmt.Sprintf("%10s.%-2s %-12s  -> %s", e.filename, e.extension, attr, e.target)
	}
	dateStr := ""
	if d, ok := e.creationDate(); ok {
		dateStr = fmt.Sprintf("%02d/%02d/%02d", d.Month, d.Day, d.Year%100)
	}
	return fmt.Sprintf("%-30s %-12s %10d  %-8s", e.fullname(), attr, e.Length(), dateStr)
}

func examineDetail(e *Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Filename:      %s\n", e.fullname())
	fmt.Fprintf(&b, "File type:     %s\n", e.FileType())
	if d, ok := e.creationDate(); ok {
		fmt.Fprintf(&b, "Creation date: %04d-%02d-%02d\n", d.Year, d.Month, d.Day)
	}
	if e.isLink() {
		fmt.Fprintf(&b, "Target:        %s\n", e.target)
		return b.String()
	}
	if d, ok := e.lastAccess(); ok {
		fmt.Fprintf(&b, "Last access:   %04d-%02d-%02d\n", d.Year, d.Month, d.Day)
	}
	fmt.Fprintf(&b, "Address:       %v\n", e.addresses)
	fmt.Fprintf(&b, "File size:     %d\n", e.Length())
	fmt.Fprintf(&b, "Write protected:   %v\n", e.attributes&atWP != 0)
	fmt.Fprintf(&b, "Read protected:    %v\n", e.attributes&atRP != 0)
	fmt.Fprintf(&b, "Immutable attribs: %v\n", e.attributes&atCHA != 0)
	fmt.Fprintf(&b, "Permanent:         %v\n", e.attributes&atPER != 0)
	fmt.Fprintf(&b, "Link attributes:   %s\n", formatAttr(e.linkAccessAttributes))
	return b.String()
}

// Initialize implements fs.Filesystem: always read-only, matching
// DGDOSDumpFilesystem.initialize.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	return errors.Wrap(fsapi.ErrReadOnly, "initialize")
}
