// Package wordblock overlays 12-bit and 18-bit word-per-block addressing on
// top of a block.Device, for the PDP-8 and PDP-7 filesystem drivers. Each
// block is stored on disk as one machine word per slot, little-endian,
// masked to the word width; RAD50/SIXBIT/ASCII/IMAGE byte-level codecs live
// in the encoding package and operate on the []uint16/[]uint32 this package
// produces.
package wordblock

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"pdpimage/block"
)

const wordsPerBlock = 256

// Device reinterprets a block.Device's blocks as 256 packed words.
type Device struct {
	Blocks *block.Device
}

// New wraps dev.
func New(dev *block.Device) *Device {
	return &Device{Blocks: dev}
}

// Read12 reads logical block n as 256 twelve-bit words. On disk each word
// occupies 2 little-endian bytes with the top 4 bits unused/zero.
func (d *Device) Read12(n int64) ([wordsPerBlock]uint16, error) {
	var words [wordsPerBlock]uint16
	raw, err := d.Blocks.ReadBlock(n)
	if err != nil {
		return words, errors.Wrapf(err, "reading 12-bit word block %d", n)
	}
	if len(raw) < wordsPerBlock*2 {
		return words, errors.Errorf("block %d too small for 12-bit words: %d bytes", n, len(raw))
	}
	for i := 0; i < wordsPerBlock; i++ {
		words[i] = binary.LittleEndian.Uint16(raw[i*2:]) & 0o7777
	}
	return words, nil
}

// Write12 writes 256 twelve-bit words back to logical block n.
func (d *Device) Write12(n int64, words [wordsPerBlock]uint16) error {
	raw := make([]byte, d.Blocks.BlockSize())
	for i := 0; i < wordsPerBlock; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], words[i]&0o7777)
	}
	return errors.Wrapf(d.Blocks.WriteBlock(n, raw), "writing 12-bit word block %d", n)
}

// sectorsPer18BitBlock is how many of the underlying block.Device's native
// 512-byte sectors one 256-word (1024-byte) 18-bit word-block spans.
const sectorsPer18BitBlock = (wordsPerBlock * 4) / 512

// Read18 reads logical block n as 256 eighteen-bit words. On disk each word
// occupies 4 little-endian bytes with the top 14 bits unused/zero, matching
// the PDP-7 DECtape 1024-byte block layout — two of the underlying device's
// 512-byte sectors.
func (d *Device) Read18(n int64) ([wordsPerBlock]uint32, error) {
	var words [wordsPerBlock]uint32
	raw, err := d.Blocks.ReadBlocks(n*sectorsPer18BitBlock, sectorsPer18BitBlock)
	if err != nil {
		return words, errors.Wrapf(err, "reading 18-bit word block %d", n)
	}
	if len(raw) < wordsPerBlock*4 {
		return words, errors.Errorf("block %d too small for 18-bit words: %d bytes", n, len(raw))
	}
	for i := 0; i < wordsPerBlock; i++ {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:]) & 0x3FFFF
	}
	return words, nil
}

// Write18 writes 256 eighteen-bit words back to logical block n.
func (d *Device) Write18(n int64, words [wordsPerBlock]uint32) error {
	raw := make([]byte, sectorsPer18BitBlock*d.Blocks.BlockSize())
	for i := 0; i < wordsPerBlock; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:], words[i]&0x3FFFF)
	}
	return errors.Wrapf(d.Blocks.WriteBlocks(n*sectorsPer18BitBlock, raw), "writing 18-bit word block %d", n)
}
