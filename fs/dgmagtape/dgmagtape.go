// Package dgmagtape implements the DG RDOS MagTape driver:
// fixed-length 257-word tape blocks (510 data bytes plus two identical
// trailing file-number words), with file boundaries at tape marks. Entirely
// read-only: every mutator returns EROFS.
package dgmagtape

import (
	"fmt"
	"io"
	"path"

	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/tape"
)

const (
	dataWords       = 255
	dataBlockSize   = dataWords * 2 // 510
	fileNumberWords = 2
	fileNumberSize  = fileNumberWords * 2 // 4
	tapeBlockSize   = dataBlockSize + fileNumberSize // 514

	dumpNameBlockID = 0o377
)

func init() {
	fsapi.Register("dgdosmt", mount)
}

// Entry is one file on the tape, identified by its file number (the low
// byte repeated in every block's trailing file-number word pair).
type Entry struct {
	fs         *Filesystem
	fileNumber int
	length     int // in 510-byte blocks
	tapePos    int64
	isDump     bool
}

func (e *Entry) Name() string                       { return fmt.Sprintf("%d", e.fileNumber) }
func (e *Entry) Length() int64                       { return int64(e.length) * dataBlockSize }
func (e *Entry) Blocks() int                         { return e.length }
func (e *Entry) CreationDate() (encoding.Date, bool) { return encoding.Date{}, false }
func (e *Entry) Protected() bool                     { return false }
func (e *Entry) FileType() string {
	if e.isDump {
		return "dump"
	}
	return "raw"
}
func (e *Entry) IsDir() bool { return false }

// Filesystem is the DG RDOS MagTape driver. Individual files are always
// read-only (WriteBytes/CreateFile/Delete all return EROFS), but Initialize
// may still reformat the tape, so the image itself honors the caller's
// readOnly flag.
type Filesystem struct {
	img      *storage.Image
	tape     *tape.Stream
	readOnly bool
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting DG RDOS MagTape volume")
	}
	f := &Filesystem{img: img, tape: tape.New(img), readOnly: readOnly}
	if strict {
		if err := f.validate(); err != nil {
			img.Close()
			return nil, err
		}
	}
	return f, nil
}

// validate checks every block of every file agrees on its file number,
// matching DGDOSMagTapeFilesystem.mount's strict pre-scan.
func (f *Filesystem) validate() error {
	if err := f.tape.Rewind(); err != nil {
		return err
	}
	for {
		fileNumber, ok, err := readBlockFileNumber(f.tape)
		if err != nil {
			return errors.Wrap(fsapi.ErrIO, "not a DG RDOS MagTape volume")
		}
		if !ok {
			break
		}
		for {
			tmp, ok, err := readBlockFileNumber(f.tape)
			if err != nil {
				return errors.Wrap(fsapi.ErrIO, "not a DG RDOS MagTape volume")
			}
			if !ok {
				break
			}
			if tmp != fileNumber {
				return errors.Wrapf(fsapi.ErrIO, "inconsistent file number: %d != %d", tmp, fileNumber)
			}
		}
	}
	return nil
}

// readBlockFileNumber reads one tape block and returns its file number; ok
// is false at end of medium, matching get_file_number applied to each
// successive tape_read_forward result.
func readBlockFileNumber(s *tape.Stream) (int, bool, error) {
	buf, err := s.ReadForward()
	if err != nil {
		if errors.Cause(err) == tape.ErrEndOfMedium {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(buf) == 0 {
		return 0, false, nil
	}
	return fileNumberOf(buf)
}

func fileNumberOf(buf []byte) (int, bool, error) {
	if len(buf) != tapeBlockSize {
		return 0, false, errors.Wrapf(fsapi.ErrIO, "invalid block size %d", len(buf))
	}
	n1 := int(buf[len(buf)-4])<<8 | int(buf[len(buf)-3])
	n2 := int(buf[len(buf)-2])<<8 | int(buf[len(buf)-1])
	if n1 != n2 {
		return 0, false, errors.Wrapf(fsapi.ErrIO, "invalid file number: %d != %d", n1, n2)
	}
	return n1, true, nil
}

// readDirEntries walks the tape from the start, yielding one Entry per
// tape-mark-delimited file, matching DGDOSMagTapeFilesystem.read_dir_entries.
func (f *Filesystem) readDirEntries() ([]*Entry, error) {
	if err := f.tape.Rewind(); err != nil {
		return nil, err
	}
	var out []*Entry
	for {
		tapePos, err := f.tape.Pos()
		if err != nil {
			return nil, err
		}
		header, skipped, err := f.tape.ReadHeader()
		if err != nil {
			if errors.Cause(err) == tape.ErrEndOfMedium {
				break
			}
			return nil, err
		}
		if len(header) == 0 {
			break
		}
		if len(header) != tapeBlockSize {
			return nil, errors.Wrapf(fsapi.ErrIO, "invalid block size %d", len(header))
		}
		fileNumber := int(header[len(header)-1])
		out = append(out, &Entry{
			fs:         f,
			fileNumber: fileNumber,
			length:     (len(header) + int(skipped)) / tapeBlockSize,
			tapePos:    tapePos,
			isDump:     header[0] == dumpNameBlockID,
		})
	}
	return out, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.readDirEntries()
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
	entries, err := f.readDirEntries()
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		if pattern != "" {
			ok, err := path.Match(pattern, e.Name())
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
	entries, err := f.readDirEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name() == fullname {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

// readContent reads every data portion (the 510 non-file-number bytes of
// each block) of e, matching DGDOSMagTapeFile.content.
func (f *Filesystem) readContent(e *Entry) ([]byte, error) {
	if err := f.tape.Seek(e.tapePos); err != nil {
		return nil, err
	}
	var out []byte
	for {
		buf, err := f.tape.ReadForward()
		if err != nil {
			if errors.Cause(err) == tape.ErrEndOfMedium {
				break
			}
			return nil, err
		}
		if len(buf) == 0 {
			break
		}
		if len(buf) != tapeBlockSize {
			return nil, errors.Wrapf(fsapi.ErrIO, "invalid block size %d", len(buf))
		}
		out = append(out, buf[:len(buf)-fileNumberSize]...)
	}
	return out, nil
}

// ReadBytes implements fs.Filesystem. mode==encoding.ASCII maps CR to LF,
// matching DGDOSMagTapeFile.read_block.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	fe, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	e := fe.(*Entry)
	content, err := f.readContent(e)
	if err != nil {
		return nil, err
	}
	if mode == int(encoding.ASCII) {
		out := make([]byte, len(content))
		for i, b := range content {
			if b == 0x0D {
				b = 0x0A
			}
			out[i] = b
		}
		return out, nil
	}
	return content, nil
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

// Chdir implements fs.Filesystem: the tape has no subdirectories.
func (f *Filesystem) Chdir(fullname string) error {
	return errors.Wrap(fsapi.ErrInvalidArg, "DG RDOS MagTape has no subdirectories")
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

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return []string{"dump", "raw"} }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }

// Dir implements fs.Filesystem, matching DGDOSMagTapeFilesystem.dir.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	if !options.Brief {
		fmt.Fprintf(w, "Num Type         Size\n")
		fmt.Fprintf(w, "--- ----         ----\n")
	}
	for _, fe := range entries {
		e := fe.(*Entry)
		if options.Brief {
			fmt.Fprintf(w, "%3d\n", e.fileNumber)
		} else {
			fmt.Fprintf(w, "%3d %-4s %12d\n", e.fileNumber, e.FileType(), e.Length())
		}
	}
	return nil
}

// Examine implements fs.Filesystem, matching DGDOSMagTapeFilesystem.examine.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		content, err := f.ReadBytes(arg, int(encoding.IMAGE))
		if err != nil {
			return err
		}
		_, err = w.Write(content)
		return err
	}
	entries, err := f.readDirEntries()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Num Type   Tape pos         Size\n")
	fmt.Fprintf(w, "--- ----   --------         ----\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%3d %-4s %10d %12d\n", e.fileNumber, e.FileType(), e.tapePos, e.Length())
	}
	return nil
}

// Initialize implements fs.Filesystem: writes the logical-end-of-tape
// double mark and truncates, matching DGDOSMagTapeFilesystem.initialize.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	if err := f.tape.Rewind(); err != nil {
		return err
	}
	if err := f.tape.WriteMark(); err != nil {
		return err
	}
	if err := f.tape.WriteMark(); err != nil {
		return err
	}
	pos, err := f.tape.Pos()
	if err != nil {
		return err
	}
	return f.img.Truncate(pos)
}
