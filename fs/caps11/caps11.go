// Package caps11 implements the CAPS-11 tape driver: a
// sequence of tape-mark-delimited files, each a 32-byte header record
// followed by 128-byte data records, terminated by an all-zero sentinel
// file.
package caps11

import (
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/tape"
)

const (
	headerSize   = 32
	recordSize   = 128
	fileTypeBad  = 0o14
)

var standardFileTypes = map[byte]string{
	0o1:  "ascii",
	0o2:  "bin",
	0o3:  "core1",
	0o4:  "core2",
	0o5:  "core3",
	0o6:  "core4",
	0o7:  "core5",
	0o10: "core6",
	0o11: "core7",
	0o12: "core8",
	0o13: "boot",
	0o14: "bad",
}

func init() {
	fsapi.Register("caps11", mount)
}

// Entry is one CAPS-11 file header.
type Entry struct {
	FileNumber      int
	Filename        string
	Filetype        string
	RecordType      byte
	RecordLength    uint16
	Sequence        byte
	Continued       byte
	RawCreationDate [6]byte
	CapsVersion     byte // CAPS-8 extension; 0 when absent
	Size            int64
	tapePos         int64 // byte offset of the header record, for create_file positioning
}

func (e *Entry) Name() string  { return fmt.Sprintf("%s.%s", e.Filename, e.Filetype) }
func (e *Entry) Length() int64 { return e.Size }
func (e *Entry) Blocks() int   { return int(math.Ceil(float64(e.Size) / recordSize)) }
func (e *Entry) CreationDate() (encoding.Date, bool) {
	return encoding.CAPS11ToDate(e.RawCreationDate)
}
func (e *Entry) Protected() bool  { return false }
func (e *Entry) FileType() string { return standardFileTypes[e.RecordType] }
func (e *Entry) IsDir() bool      { return false }
func (e *Entry) isEmpty() bool    { return e.RecordType == fileTypeBad }

// Filesystem is the CAPS-11 driver.
type Filesystem struct {
	img      *storage.Image
	tape     *tape.Stream
	readOnly bool
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting CAPS-11 volume")
	}
	return &Filesystem{img: img, tape: tape.New(img), readOnly: readOnly}, nil
}

// readHeaders walks the tape from the start, yielding one Entry per
// tape-mark-delimited group (header + data), stopping at end of medium or
// the sentinel file.
func (f *Filesystem) readHeaders() ([]*Entry, error) {
	if err := f.tape.Rewind(); err != nil {
		return nil, err
	}
	var out []*Entry
	for i := 1; ; i++ {
		pos, _ := f.tape.Pos()
		buf, err := f.tape.ReadFile()
		if err != nil {
			if err == tape.ErrEndOfMedium {
				break
			}
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		if len(buf) < headerSize {
			break
		}
		e := &Entry{FileNumber: i, tapePos: pos}
		e.Filename = strings.TrimRight(string(buf[0:6]), " ")
		e.Filetype = strings.TrimRight(string(buf[6:9]), " ")
		e.RecordType = buf[9]
		e.RecordLength = uint16(buf[10]) | uint16(buf[11])<<8
		e.Sequence = buf[12]
		e.Continued = buf[13]
		copy(e.RawCreationDate[:], buf[14:20])
		e.Size = int64(len(buf) - headerSize - int(e.Continued))
		out = append(out, e)
	}
	return out, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	headers, err := f.readHeaders()
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range headers {
		if !e.isEmpty() {
			out = append(out, e)
		}
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	headers, err := f.readHeaders()
	if err != nil {
		return nil, err
	}
	pattern = strings.ToUpper(pattern)
	var out []fsapi.Entry
	for _, e := range headers {
		if pattern != "" {
			ok, err := path.Match(pattern, e.Name())
			if err != nil || !ok {
				continue
			}
		}
		if !includeAll && e.isEmpty() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	fullname = strings.ToUpper(fullname)
	headers, err := f.readHeaders()
	if err != nil {
		return nil, err
	}
	for _, e := range headers {
		if !e.isEmpty() && e.Name() == fullname {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	e, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	entry := e.(*Entry)
	if err := f.tape.Seek(entry.tapePos); err != nil {
		return nil, err
	}
	buf, err := f.tape.ReadFile()
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	return buf[headerSize : headerSize+int(entry.Size)], nil
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	blocks := int(math.Ceil(float64(len(content)) / recordSize))
	_, err := f.createFile(fullname, blocks, creationDate, content)
	return err
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	return f.createFile(fullname, blocks, creationDate, nil)
}

// createFile deletes any same-name file, truncates the tape at the position
// of the first bad/sentinel trailer, then writes a fresh header, data
// records, a tape mark, and a new sentinel.
func (f *Filesystem) createFile(fullname string, blocks int, creationDate string, content []byte) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrap(fsapi.ErrReadOnly, "create file")
	}
	fullname = strings.ToUpper(fullname)
	headers, err := f.readHeaders()
	if err != nil {
		return nil, err
	}
	// Position at the first bad/sentinel entry (or end of the last real
	// file other than the one being replaced) and truncate there.
	var truncPos int64
	for _, e := range headers {
		if e.isEmpty() {
			break
		}
		if e.Name() == fullname {
			continue
		}
		truncPos = e.tapePos
		if err := f.tape.Seek(e.tapePos); err != nil {
			return nil, err
		}
		if _, err := f.tape.ReadFile(); err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		pos, _ := f.tape.Pos()
		truncPos = pos
	}
	if err := f.tape.Seek(truncPos); err != nil {
		return nil, err
	}
	if err := f.img.Truncate(truncPos); err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}

	name, ext, _ := strings.Cut(fullname, ".")
	header := make([]byte, headerSize)
	copy(header[0:6], padRight(name, 6))
	copy(header[6:9], padRight(ext, 3))
	header[9] = 0o1 // FILE_TYPE_ASCII default
	header[10], header[11] = byte(recordSize), byte(recordSize>>8)
	header[12] = 0 // sequence
	header[13] = 0 // continued
	if creationDate != "" {
		if d, ok := parseDate(creationDate); ok {
			date := encoding.DateToCAPS11(d)
			copy(header[14:20], date[:])
		}
	}

	if err := f.tape.WriteForward(header); err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	for i := 0; i < blocks; i++ {
		record := make([]byte, recordSize)
		if content != nil {
			lo, hi := i*recordSize, (i+1)*recordSize
			if hi > len(content) {
				hi = len(content)
			}
			if lo < len(content) {
				copy(record, content[lo:hi])
				record = record[:hi-lo]
			}
		}
		if err := f.tape.WriteForward(record); err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	if err := f.tape.WriteMark(); err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	if err := f.writeSentinel(); err != nil {
		return nil, err
	}

	e := &Entry{
		Filename:     name,
		Filetype:     ext,
		RecordType:   0o1,
		RecordLength: recordSize,
		Size:         int64(len(content)),
	}
	if content == nil {
		e.Size = int64(blocks) * recordSize
	}
	return e, nil
}

func (f *Filesystem) writeSentinel() error {
	sentinel := make([]byte, headerSize)
	if err := f.tape.WriteForward(sentinel); err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	pos, _ := f.tape.Pos()
	return f.img.Truncate(pos)
}

func padRight(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = ' '
	}
	return out
}

func parseDate(s string) (encoding.Date, bool) {
	var y, m, d int
	if n, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil || n != 3 {
		return encoding.Date{}, false
	}
	return encoding.Date{Year: y, Month: m, Day: d}, true
}

// Delete implements fs.Filesystem. CAPS-11 has no in-place delete; files
// are only removed by being overwritten at create_file time.
func (f *Filesystem) Delete(fsapi.Entry) error {
	return errors.Wrap(fsapi.ErrReadOnly, "CAPS-11 entries are removed by recreating the tape, not in place")
}

// Chdir implements fs.Filesystem. CAPS-11 has no directories.
func (f *Filesystem) Chdir(string) error {
	return errors.Wrap(fsapi.ErrInvalidArg, "CAPS-11 has no directories")
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return "" }

// IsDir implements fs.Filesystem.
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
	for _, fe := range entries {
		e := fe.(*Entry)
		if e.isEmpty() {
			continue
		}
		if options.Brief {
			fmt.Fprintf(w, "%-6s %-3s\n", e.Filename, e.Filetype)
			continue
		}
		dateStr := "--"
		if d, ok := e.CreationDate(); ok {
			dateStr = fmt.Sprintf("%02d-%02d-%02d", d.Day, d.Month, d.Year%100)
		}
		fmt.Fprintf(w, "%-6s %-3s %-9s\n", e.Filename, e.Filetype, dateStr)
	}
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		data, err := f.ReadBytes(arg, 0)
		if err != nil {
			return err
		}
		dumpHex(w, data)
		return nil
	}
	fmt.Fprintf(w, "Num    Filename    Type     Rec  Seq Cont        Date     Size\n")
	headers, err := f.readHeaders()
	if err != nil {
		return err
	}
	for _, e := range headers {
		rt := standardFileTypes[e.RecordType]
		if rt == "" {
			rt = fmt.Sprintf("%04o", e.RecordType)
		}
		dateStr := "          "
		if d, ok := e.CreationDate(); ok {
			dateStr = fmt.Sprintf("%02d-%02d-%02d", d.Day, d.Month, d.Year%100)
		}
		fmt.Fprintf(w, "%-4d %6s.%-3s  %6s  %6d %4d %4d  %s %8d\n",
			e.FileNumber, e.Filename, e.Filetype, rt, e.RecordLength, e.Sequence, e.Continued, dateStr, e.Size)
	}
	return nil
}

func dumpHex(w io.Writer, data []byte) {
	const perLine = 16
	for i := 0; i < len(data); i += perLine {
		end := i + perLine
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		fmt.Fprintf(w, "%08x   ", i)
		for _, b := range chunk {
			fmt.Fprintf(w, "%02x ", b)
		}
		fmt.Fprint(w, "  ")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}

// Initialize implements fs.Filesystem: rewinds and writes a bare tape mark
// followed by the sentinel file.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	if err := f.tape.Rewind(); err != nil {
		return err
	}
	if err := f.img.Truncate(0); err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	if err := f.tape.WriteMark(); err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	return f.writeSentinel()
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string {
	out := make([]string, 0, len(standardFileTypes))
	for _, v := range standardFileTypes {
		out = append(out, v)
	}
	return out
}

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
