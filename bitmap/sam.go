package bitmap

import "github.com/pkg/errors"

// FileNumberMap is DMS's SAM (Storage Allocation Map): one byte slot per
// disk block, holding the owning file number (0 means free), chained across
// multiple SAM blocks on disk.
type FileNumberMap struct {
	slots []uint8
}

// NewFileNumberMap creates a map of the given size, all slots free.
func NewFileNumberMap(total int) *FileNumberMap {
	return &FileNumberMap{slots: make([]uint8, total)}
}

// FromSlots wraps already-decoded SAM slot bytes.
func FromSlots(slots []uint8) *FileNumberMap {
	return &FileNumberMap{slots: slots}
}

// Slots returns the raw slot bytes, ready to be re-encoded into SAM blocks.
func (m *FileNumberMap) Slots() []uint8 { return m.slots }

// Total is the number of tracked blocks.
func (m *FileNumberMap) Total() int { return len(m.slots) }

// Owner returns the file number owning block n, or 0 if free.
func (m *FileNumberMap) Owner(n int) (uint8, error) {
	if n < 0 || n >= len(m.slots) {
		return 0, errors.Errorf("block %d out of range [0,%d)", n, len(m.slots))
	}
	return m.slots[n], nil
}

// IsFree reports whether block n is unowned.
func (m *FileNumberMap) IsFree(n int) bool {
	if n < 0 || n >= len(m.slots) {
		return false
	}
	return m.slots[n] == 0
}

// Assign marks block n as owned by fileNumber.
func (m *FileNumberMap) Assign(n int, fileNumber uint8) error {
	if n < 0 || n >= len(m.slots) {
		return errors.Errorf("block %d out of range [0,%d)", n, len(m.slots))
	}
	m.slots[n] = fileNumber
	return nil
}

// Release frees every block owned by fileNumber, returning the count freed.
func (m *FileNumberMap) Release(fileNumber uint8) int {
	n := 0
	for i, v := range m.slots {
		if v == fileNumber {
			m.slots[i] = 0
			n++
		}
	}
	return n
}

// FreeCount is the number of unowned slots.
func (m *FileNumberMap) FreeCount() int {
	n := 0
	for _, v := range m.slots {
		if v == 0 {
			n++
		}
	}
	return n
}

// AllocateBlocks finds `count` free (not necessarily contiguous) blocks and
// assigns them to fileNumber, returning the assigned block numbers in
// ascending order. Returns an error if insufficient space exists; no slots
// are mutated on failure.
func (m *FileNumberMap) AllocateBlocks(fileNumber uint8, count int) ([]int, error) {
	var out []int
	for i := 0; i < len(m.slots) && len(out) < count; i++ {
		if m.slots[i] == 0 {
			out = append(out, i)
		}
	}
	if len(out) < count {
		return nil, errors.Errorf("no space: need %d blocks, found %d free", count, len(out))
	}
	for _, blk := range out {
		m.slots[blk] = fileNumber
	}
	return out, nil
}

// NextFreeFileNumber finds the lowest unused file number in [low, high],
// given the set of file numbers currently referenced by any slot.
func (m *FileNumberMap) NextFreeFileNumber(low, high uint8) (uint8, error) {
	used := make(map[uint8]bool)
	for _, v := range m.slots {
		if v != 0 {
			used[v] = true
		}
	}
	for n := low; n <= high; n++ {
		if !used[n] {
			return n, nil
		}
		if n == high {
			break
		}
	}
	return 0, errors.New("no free file numbers available")
}
