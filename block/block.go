// Package block implements BlockDevice: fixed-size logical block I/O over a
// storage.Image, including the RX01/RX02 interleaved sector geometry used by
// DEC floppy images.
package block

import (
	"github.com/pkg/errors"

	"pdpimage/storage"
)

// Geometry selects how a logical block number maps to byte offsets in the
// underlying image.
type Geometry int

const (
	// Linear maps logical block n to byte offset n*BlockSize.
	Linear Geometry = iota
	// RX01 is DEC's single-density 8" floppy: 128-byte sectors, 4 per
	// logical 512-byte block, 26 sectors/track.
	RX01
	// RX02 is DEC's double-density 8" floppy: 256-byte sectors, 2 per
	// logical 512-byte block, 26 sectors/track.
	RX02
)

const (
	rxSectorsPerTrack = 26
	rxTracksPerDisk   = 77
	rxTrackBytes      = 3328 // 26 sectors * 128 bytes, fixed regardless of density

	// RX01Size and RX02Size are the exact image sizes of an unformatted
	// RX01/RX02 floppy: 77 tracks * 26 sectors/track * sector size.
	RX01Size = rxTracksPerDisk * rxSectorsPerTrack * 128
	RX02Size = rxTracksPerDisk * rxSectorsPerTrack * 256
)

// Device is a BlockDevice: fixed-size block I/O over a storage.Image.
type Device struct {
	Image     *storage.Image
	Geom      Geometry
	blockSize int // logical block size, always 512 for the geometries above
}

// New wraps img, auto-detecting RX01/RX02 floppy geometry from the image's
// exact size (the way every PDP-11/PDP-8 driver's BlockDevice picks its
// sector size from the file size) and falling back to Linear otherwise.
func New(img *storage.Image) *Device {
	switch img.Size() {
	case RX01Size:
		return &Device{Image: img, Geom: RX01, blockSize: 512}
	case RX02Size:
		return &Device{Image: img, Geom: RX02, blockSize: 512}
	default:
		return &Device{Image: img, Geom: Linear, blockSize: img.BlockSize()}
	}
}

// NewRX wraps img with RX01 or RX02 interleaved geometry. The logical block
// size is always 512 regardless of physical sector size.
func NewRX(img *storage.Image, geom Geometry) (*Device, error) {
	if geom != RX01 && geom != RX02 {
		return nil, errors.Errorf("NewRX: not an RX geometry: %v", geom)
	}
	return &Device{Image: img, Geom: geom, blockSize: 512}, nil
}

// BlockSize returns the logical block size in bytes.
func (d *Device) BlockSize() int { return d.blockSize }

func (d *Device) sectorSize() int64 {
	switch d.Geom {
	case RX01:
		return 128
	case RX02:
		return 256
	default:
		return int64(d.blockSize)
	}
}

func (d *Device) sectorsPerLogicalBlock() int {
	switch d.Geom {
	case RX01:
		return 4
	case RX02:
		return 2
	default:
		return 1
	}
}

// rxSectorOffset computes the byte offset of physical sector physSector
// (0-based, a sequential index across the whole disk, not per-track), per
// the canonical DEC RX01/RX02 interleave permutation (rxfactr).
func rxSectorOffset(physSector int64, sectorSize int64) int64 {
	track := physSector/rxSectorsPerTrack + 1
	i := (physSector % rxSectorsPerTrack) << 1
	if i >= rxSectorsPerTrack {
		i++
	}
	sector := ((i + 6*(track-1)) % rxSectorsPerTrack) + 1
	if track >= rxTracksPerDisk {
		track = 0
	}
	return track*rxTrackBytes + (sector-1)*sectorSize
}

// ReadBlock reads logical block n.
func (d *Device) ReadBlock(n int64) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative block index %d", n)
	}
	if d.Geom == Linear {
		buf := make([]byte, d.blockSize)
		if err := d.Image.ReadAt(buf, n*int64(d.blockSize)); err != nil {
			return nil, errors.Wrapf(err, "reading linear block %d", n)
		}
		return buf, nil
	}

	sectorSize := d.sectorSize()
	nsec := d.sectorsPerLogicalBlock()
	startSector := n * int64(nsec)
	buf := make([]byte, 0, int64(nsec)*sectorSize)
	for i := 0; i < nsec; i++ {
		off := rxSectorOffset(startSector+int64(i), sectorSize)
		chunk := make([]byte, sectorSize)
		if err := d.Image.ReadAt(chunk, off); err != nil {
			return nil, errors.Wrapf(err, "reading RX sector %d of block %d", i, n)
		}
		buf = append(buf, chunk...)
	}
	return buf, nil
}

// WriteBlock writes logical block n. data must be exactly BlockSize() bytes.
func (d *Device) WriteBlock(n int64, data []byte) error {
	if n < 0 {
		return errors.Errorf("negative block index %d", n)
	}
	if len(data) != d.blockSize {
		return errors.Errorf("block data must be %d bytes, got %d", d.blockSize, len(data))
	}
	if d.Geom == Linear {
		return errors.Wrapf(d.Image.WriteAt(data, n*int64(d.blockSize)), "writing linear block %d", n)
	}

	sectorSize := d.sectorSize()
	nsec := d.sectorsPerLogicalBlock()
	startSector := n * int64(nsec)
	for i := 0; i < nsec; i++ {
		off := rxSectorOffset(startSector+int64(i), sectorSize)
		chunk := data[int64(i)*sectorSize : int64(i+1)*sectorSize]
		if err := d.Image.WriteAt(chunk, off); err != nil {
			return errors.Wrapf(err, "writing RX sector %d of block %d", i, n)
		}
	}
	return nil
}

// TotalBlocks returns how many logical blocks fit in the underlying image.
func (d *Device) TotalBlocks() int64 {
	return d.Image.Size() / int64(d.blockSize)
}

// ReadBlocks reads count consecutive logical blocks starting at n and
// concatenates them.
func (d *Device) ReadBlocks(n int64, count int64) ([]byte, error) {
	out := make([]byte, 0, count*int64(d.blockSize))
	for i := int64(0); i < count; i++ {
		b, err := d.ReadBlock(n + i)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// WriteBlocks writes data, which must be an exact multiple of BlockSize(),
// as consecutive logical blocks starting at n.
func (d *Device) WriteBlocks(n int64, data []byte) error {
	if len(data)%d.blockSize != 0 {
		return errors.Errorf("data length %d is not a multiple of block size %d", len(data), d.blockSize)
	}
	count := int64(len(data) / d.blockSize)
	for i := int64(0); i < count; i++ {
		chunk := data[i*int64(d.blockSize) : (i+1)*int64(d.blockSize)]
		if err := d.WriteBlock(n+i, chunk); err != nil {
			return err
		}
	}
	return nil
}
