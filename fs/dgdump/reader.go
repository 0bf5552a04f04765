package dgdump

import (
	"io"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

// readByte/readWord/readToNull are the dump file's primitive cursors,
// matching DGDOSDumpFilesystem.read_byte/read_word/read_to_null.

func (f *Filesystem) readByte() (byte, error) {
	buf, err := f.img.Read(1)
	if err != nil {
		return 0, errors.Wrap(fsapi.ErrIO, "reading dump byte")
	}
	return buf[0], nil
}

func (f *Filesystem) readWord() (uint16, error) {
	buf, err := f.img.Read(2)
	if err != nil {
		return 0, errors.Wrap(fsapi.ErrIO, "reading dump word")
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

func (f *Filesystem) readToNull() ([]byte, error) {
	var out []byte
	for {
		b, err := f.img.Read(1)
		if err != nil {
			if errors.Cause(err) == io.EOF || errors.Cause(err) == io.ErrUnexpectedEOF {
				return out, nil
			}
			return nil, errors.Wrap(fsapi.ErrIO, "reading dump string")
		}
		if b[0] == 0 {
			break
		}
		out = append(out, b[0])
	}
	return out, nil
}

// block is one typed record in the dump stream, matching AbstractBlock and
// its subclasses.
type block struct {
	id       byte
	position int64

	// nameBlock fields
	attributes int
	contiguous int
	data       []byte

	// dataBlock fields
	byteCount    int
	checksum     int
	dataPosition int64

	// timeBlock fields
	lastAccessDate       uint16
	lastModificationDate uint16
	lastModificationTime uint16

	// linkDataBlock fields
	dirname     string
	resfilename string

	// endOfSegmentBlock fields
	segmentNumber byte
	filename      string
}

// readBlock reads one typed block starting at the current position,
// matching AbstractBlock.read's dispatch on the leading block-id byte.
func (f *Filesystem) readBlock() (*block, error) {
	position, err := f.img.Tell()
	if err != nil {
		return nil, err
	}
	id, err := f.readByte()
	if err != nil {
		return nil, err
	}
	b := &block{id: id, position: position}
	switch id {
	case nameBlockID:
		attr, err := f.readWord()
		if err != nil {
			return nil, err
		}
		b.attributes = int(attr)
		if b.attributes&atCON != 0 {
			contig, err := f.readWord()
			if err != nil {
				return nil, err
			}
			b.contiguous = int(contig)
		}
		data, err := f.readToNull()
		if err != nil {
			return nil, err
		}
		b.data = data
	case dataBlockID:
		bc, err := f.readWord()
		if err != nil {
			return nil, err
		}
		cksum, err := f.readWord()
		if err != nil {
			return nil, err
		}
		b.byteCount = int(bc)
		b.checksum = int(cksum)
		dataPos, err := f.img.Tell()
		if err != nil {
			return nil, err
		}
		b.dataPosition = dataPos
		if _, err := f.img.Seek(int64(bc), storage.SeekCurrent); err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, "seeking past dump data block")
		}
	case errorBlockID, endBlockID:
		// No payload.
	case timeBlockID:
		la, err := f.readWord()
		if err != nil {
			return nil, err
		}
		lm, err := f.readWord()
		if err != nil {
			return nil, err
		}
		lt, err := f.readWord()
		if err != nil {
			return nil, err
		}
		b.lastAccessDate, b.lastModificationDate, b.lastModificationTime = la, lm, lt
	case linkDataBlockID:
		dirname, err := f.readToNull()
		if err != nil {
			return nil, err
		}
		resfilename, err := f.readToNull()
		if err != nil {
			return nil, err
		}
		b.dirname = string(dirname)
		b.resfilename = string(resfilename)
	case linkAccessAttributesID:
		attr, err := f.readWord()
		if err != nil {
			return nil, err
		}
		b.attributes = int(attr)
	case endOfSegmentBlockID:
		if _, err := f.readWord(); err != nil { // t, unused by any directory operation
			return nil, err
		}
		segByte, err := f.readByte()
		if err != nil {
			return nil, err
		}
		filename, err := f.readToNull()
		if err != nil {
			return nil, err
		}
		b.segmentNumber = segByte
		b.filename = string(filename)
	default:
		return nil, errors.Wrapf(fsapi.ErrIO, "%#o is not a valid dump block type", id)
	}
	return b, nil
}
