// Package storage implements ByteFile: sequential and random byte access to
// a host image file, the leaf of the dependency chain in front of every
// block device and filesystem driver in this module.
package storage

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// DefaultBlockSize is the byte size assumed by BlockDevice's Linear layout
// and by every driver that does not override it.
const DefaultBlockSize = 512

// Whence mirrors io.Seeker's constants so callers don't need to import "io"
// just to seek an Image.
const (
	SeekStart   = io.SeekStart
	SeekCurrent = io.SeekCurrent
	SeekEnd     = io.SeekEnd
)

// Image is a ByteFile: an opaque, random-access sequence of bytes backed by
// a host file. It is created by Open/Create and destroyed by Close.
type Image struct {
	f        *os.File
	readOnly bool
	size     int64
}

// Open opens path as an Image. If readOnly is false the file is opened for
// read/write; mutating calls on a read-only Image fail with ErrReadOnly.
func Open(path string, readOnly bool) (*Image, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening image %q", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat image %q", path)
	}
	return &Image{f: f, readOnly: readOnly, size: fi.Size()}, nil
}

// Create creates a new image file of the given size, zero-filled, and
// returns it opened read/write.
func Create(path string, size int64) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "creating image %q", path)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "sizing image %q to %d bytes", path, size)
	}
	return &Image{f: f, size: size}, nil
}

// BlockSize returns the nominal byte size of one block for this image. It is
// always DefaultBlockSize; format-specific geometries are the concern of the
// block package, layered on top of Image.
func (img *Image) BlockSize() int { return DefaultBlockSize }

// Size returns the current length of the image in bytes.
func (img *Image) Size() int64 { return img.size }

// ReadOnly reports whether mutating calls will fail.
func (img *Image) ReadOnly() bool { return img.readOnly }

// Seek repositions the next Read/Write. whence must be one of SeekStart,
// SeekCurrent, SeekEnd.
func (img *Image) Seek(offset int64, whence int) (int64, error) {
	if whence != SeekStart && whence != SeekCurrent && whence != SeekEnd {
		return 0, errors.Errorf("invalid whence %d", whence)
	}
	pos, err := img.f.Seek(offset, whence)
	if err != nil {
		return 0, errors.Wrap(err, "seek")
	}
	return pos, nil
}

// Tell returns the current byte offset.
func (img *Image) Tell() (int64, error) {
	return img.Seek(0, SeekCurrent)
}

// Read reads exactly n bytes at the current position.
func (img *Image) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative read count %d", n)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(img.f, buf); err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return buf, nil
}

// ReadAt reads exactly len(p) bytes starting at byte offset off, without
// disturbing the current seek position.
func (img *Image) ReadAt(p []byte, off int64) error {
	if off < 0 {
		return errors.Errorf("negative offset %d", off)
	}
	if _, err := img.f.ReadAt(p, off); err != nil {
		return errors.Wrap(err, "readat")
	}
	return nil
}

// Write writes data at the current position, extending the image if it
// writes past the current end.
func (img *Image) Write(data []byte) error {
	if img.readOnly {
		return errors.New("write to read-only image")
	}
	n, err := img.f.Write(data)
	if err != nil {
		return errors.Wrap(err, "write")
	}
	pos, _ := img.Tell()
	if pos > img.size {
		img.size = pos
	}
	_ = n
	return nil
}

// WriteAt writes data at byte offset off without disturbing the current
// seek position, extending the image if necessary.
func (img *Image) WriteAt(data []byte, off int64) error {
	if img.readOnly {
		return errors.New("write to read-only image")
	}
	if off < 0 {
		return errors.Errorf("negative offset %d", off)
	}
	if _, err := img.f.WriteAt(data, off); err != nil {
		return errors.Wrap(err, "writeat")
	}
	if end := off + int64(len(data)); end > img.size {
		img.size = end
	}
	return nil
}

// ReadBlock reads the k-th DefaultBlockSize-sized block starting at byte
// offset n (n is itself a byte offset, not a block index, matching the
// source's read_block(n, k) signature: n is where block 0 begins).
func (img *Image) ReadBlock(n int64, k int64) ([]byte, error) {
	if n < 0 || k < 0 {
		return nil, errors.Errorf("negative block index (n=%d k=%d)", n, k)
	}
	bs := int64(img.BlockSize())
	buf := make([]byte, bs)
	if err := img.ReadAt(buf, n+k*bs); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteBlock writes one DefaultBlockSize-sized block at byte offset n+k*bs.
func (img *Image) WriteBlock(data []byte, n int64, k int64) error {
	if n < 0 || k < 0 {
		return errors.Errorf("negative block index (n=%d k=%d)", n, k)
	}
	bs := int64(img.BlockSize())
	if len(data) != int(bs) {
		return errors.Errorf("block data must be %d bytes, got %d", bs, len(data))
	}
	return img.WriteAt(data, n+k*bs)
}

// Truncate changes the image's length. Growing zero-fills; shrinking
// discards trailing bytes.
func (img *Image) Truncate(size int64) error {
	if img.readOnly {
		return errors.New("truncate on read-only image")
	}
	if size < 0 {
		return errors.Errorf("negative size %d", size)
	}
	if err := img.f.Truncate(size); err != nil {
		return errors.Wrap(err, "truncate")
	}
	img.size = size
	return nil
}

// Close flushes and closes the underlying host file.
func (img *Image) Close() error {
	if !img.readOnly {
		if err := img.f.Sync(); err != nil {
			return errors.Wrap(err, "flush on close")
		}
	}
	return img.f.Close()
}
