package tss8

import (
	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// storageAllocationTable is the TSS/8 SAT: a bitmap living in the FIP track,
// one bit per file-storage block (0 = free), matching StorageAllocationTable.
type storageAllocationTable struct {
	fs   *Filesystem
	bits []uint16 // satSize words, satStartPos..satEndPos of the FIP track
}

func readSAT(f *Filesystem) (*storageAllocationTable, error) {
	words, err := f.readWordsTrack(fipBlock)
	if err != nil {
		return nil, err
	}
	bits := make([]uint16, satSize)
	copy(bits, words[satStartPos:satEndPos+1])
	return &storageAllocationTable{fs: f, bits: bits}, nil
}

func (b *storageAllocationTable) write() error {
	words, err := b.fs.readWordsTrack(fipBlock)
	if err != nil {
		return err
	}
	words[satCnt] = uint16(b.free())
	copy(words[satStartPos:satEndPos+1], b.bits)
	return b.fs.writeWordsTrack(fipBlock, words)
}

func (b *storageAllocationTable) totalBits() int { return len(b.bits) * 12 }

func (b *storageAllocationTable) isFree(bit int) bool {
	return b.bits[bit/12]&(1<<uint(bit%12)) == 0
}

func (b *storageAllocationTable) setUsed(bit int) { b.bits[bit/12] |= 1 << uint(bit%12) }
func (b *storageAllocationTable) setFree(bit int)  { b.bits[bit/12] &^= 1 << uint(bit%12) }

func (b *storageAllocationTable) allocateOne() (int, error) {
	for i := 0; i < b.totalBits(); i++ {
		if b.isFree(i) {
			b.setUsed(i)
			return i, nil
		}
	}
	return 0, errors.Wrap(fsapi.ErrNoSpace, "storage allocation table exhausted")
}

// allocate picks size free blocks (sparse, not necessarily contiguous),
// matching StorageAllocationTable.allocate(contiguous=False).
func (b *storageAllocationTable) allocate(size int) ([]int, error) {
	var out []int
	for i := 0; i < b.totalBits() && len(out) < size; i++ {
		if b.isFree(i) {
			b.setUsed(i)
			out = append(out, i)
		}
	}
	if len(out) < size {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "storage allocation table exhausted")
	}
	return out, nil
}

func (b *storageAllocationTable) used() int {
	n := 0
	for _, w := range b.bits {
		for i := 0; i < 12; i++ {
			if w&(1<<uint(i)) != 0 {
				n++
			}
		}
	}
	return n
}

func (b *storageAllocationTable) free() int { return b.totalBits() - b.used() }
