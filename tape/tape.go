// Package tape implements TapeStream: the SIMH-style variable-record
// magnetic-tape framing shared by the DOS-11 MagTape, CAPS-11, and DG RDOS
// MagTape drivers. A record is framed by a 32-bit
// little-endian length prefix, the zero-padded-to-even payload, and a
// trailing copy of the same length; a length of zero is a tape mark.
package tape

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"pdpimage/storage"
)

// ErrEndOfMedium is returned by ReadForward when the underlying image is
// exhausted instead of yielding a length prefix.
var ErrEndOfMedium = errors.New("end of medium")

// Stream is a TapeStream over a storage.Image.
type Stream struct {
	Image *storage.Image
}

// New wraps img.
func New(img *storage.Image) *Stream {
	return &Stream{Image: img}
}

// Rewind positions the tape at its start.
func (s *Stream) Rewind() error {
	_, err := s.Image.Seek(0, storage.SeekStart)
	return err
}

// Pos returns the current tape position.
func (s *Stream) Pos() (int64, error) {
	return s.Image.Tell()
}

// Seek repositions the tape to an absolute byte offset.
func (s *Stream) Seek(pos int64) error {
	_, err := s.Image.Seek(pos, storage.SeekStart)
	return err
}

// ReadForward reads one record starting at the current position, leaving
// the tape positioned just past the trailing length. A tape mark (length
// zero) returns a nil, empty slice. ErrEndOfMedium is returned when the
// underlying image has no more data to offer.
func (s *Stream) ReadForward() ([]byte, error) {
	prefix, err := s.Image.Read(4)
	if err != nil {
		if errors.Cause(err) == io.EOF || errors.Cause(err) == io.ErrUnexpectedEOF {
			return nil, ErrEndOfMedium
		}
		return nil, errors.Wrap(err, "reading tape record length")
	}
	length := binary.LittleEndian.Uint32(prefix)
	if length == 0 {
		return []byte{}, nil
	}
	padded := (length + 1) &^ 1
	payload, err := s.Image.Read(int(padded))
	if err != nil {
		return nil, errors.Wrap(err, "reading tape record payload")
	}
	trailer, err := s.Image.Read(4)
	if err != nil {
		return nil, errors.Wrap(err, "reading tape record trailer")
	}
	if binary.LittleEndian.Uint32(trailer) != length {
		return nil, errors.Errorf("tape record trailer mismatch: header %d, trailer %d", length, binary.LittleEndian.Uint32(trailer))
	}
	return payload[:length], nil
}

// WriteForward writes one record: length prefix, zero-padded payload,
// trailing length.
func (s *Stream) WriteForward(data []byte) error {
	length := uint32(len(data))
	prefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(prefix, length)
	if err := s.Image.Write(prefix); err != nil {
		return errors.Wrap(err, "writing tape record length")
	}
	padded := make([]byte, (length+1)&^1)
	copy(padded, data)
	if err := s.Image.Write(padded); err != nil {
		return errors.Wrap(err, "writing tape record payload")
	}
	if err := s.Image.Write(prefix); err != nil {
		return errors.Wrap(err, "writing tape record trailer")
	}
	return nil
}

// WriteMark writes a tape mark (a zero-length record).
func (s *Stream) WriteMark() error {
	return s.WriteForward(nil)
}

// ReadFile concatenates records from the current position until a tape
// mark, returning the combined payload.
func (s *Stream) ReadFile() ([]byte, error) {
	var out []byte
	for {
		buf, err := s.ReadForward()
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return out, nil
		}
		out = append(out, buf...)
	}
}

// ReadHeader reads one record (the file's header) then skips to the next
// mark, returning the header and the number of bytes skipped.
func (s *Stream) ReadHeader() ([]byte, int64, error) {
	header, err := s.ReadForward()
	if err != nil {
		return nil, 0, err
	}
	if len(header) == 0 {
		return header, 0, nil
	}
	skipped, err := s.SkipFile()
	if err != nil {
		if err == ErrEndOfMedium {
			return header, 0, nil
		}
		return nil, 0, err
	}
	return header, skipped, nil
}

// SkipFile reads and discards records until the next mark, returning the
// number of bytes skipped.
func (s *Stream) SkipFile() (int64, error) {
	var total int64
	for {
		buf, err := s.ReadForward()
		if err != nil {
			return total, err
		}
		if len(buf) == 0 {
			return total, nil
		}
		total += int64(len(buf))
	}
}

// AtLogicalEndOfTape reports whether two consecutive tape marks (plus
// truncation) are present starting at the current position, the DOS-11
// MagTape / DG MagTape convention for logical end of tape.
func (s *Stream) AtLogicalEndOfTape() (bool, error) {
	pos, err := s.Pos()
	if err != nil {
		return false, err
	}
	defer s.Seek(pos)

	first, err := s.ReadForward()
	if err != nil {
		if err == ErrEndOfMedium {
			return true, nil
		}
		return false, err
	}
	if len(first) != 0 {
		return false, nil
	}
	second, err := s.ReadForward()
	if err != nil {
		if err == ErrEndOfMedium {
			return true, nil
		}
		return false, err
	}
	return len(second) == 0, nil
}
