// Package bitmap implements free-block allocation structures: a plain
// bit-per-block free map (the SOLO driver's in-memory free bitmap) and a
// file-number-per-block map in the shape of DMS's SAM. The bit-per-block
// form is built on github.com/boljen/go-bitmap.
package bitmap

import (
	"github.com/boljen/go-bitmap"
	"github.com/pkg/errors"
)

// FreeMap is a bit-per-block free/used map: bit set means free. Every block
// belonging to a file or to metadata is marked used, and every other block
// is free.
type FreeMap struct {
	bits  bitmap.Bitmap
	total int
}

// NewFreeMap creates a FreeMap of the given number of blocks, all initially
// marked used; callers mark individual blocks free as they are discovered.
func NewFreeMap(total int) *FreeMap {
	return &FreeMap{bits: bitmap.NewSlice(total), total: total}
}

// FromBytes wraps raw on-disk bitmap bytes (as read from a home block or
// bitmap block) as a FreeMap of the given bit count.
func FromBytes(raw []byte, total int) *FreeMap {
	return &FreeMap{bits: bitmap.Bitmap(raw), total: total}
}

// Bytes returns the raw on-disk representation.
func (m *FreeMap) Bytes() []byte { return []byte(m.bits) }

// Total returns the number of blocks tracked.
func (m *FreeMap) Total() int { return m.total }

// IsFree reports whether block n is marked free.
func (m *FreeMap) IsFree(n int) bool {
	if n < 0 || n >= m.total {
		return false
	}
	return m.bits.Get(n)
}

// MarkFree marks block n free.
func (m *FreeMap) MarkFree(n int) error {
	if n < 0 || n >= m.total {
		return errors.Errorf("block %d out of range [0,%d)", n, m.total)
	}
	m.bits.Set(n, true)
	return nil
}

// MarkUsed marks block n used.
func (m *FreeMap) MarkUsed(n int) error {
	if n < 0 || n >= m.total {
		return errors.Errorf("block %d out of range [0,%d)", n, m.total)
	}
	m.bits.Set(n, false)
	return nil
}

// MarkRangeUsed marks [start, start+count) used.
func (m *FreeMap) MarkRangeUsed(start, count int) error {
	for i := start; i < start+count; i++ {
		if err := m.MarkUsed(i); err != nil {
			return err
		}
	}
	return nil
}

// MarkRangeFree marks [start, start+count) free.
func (m *FreeMap) MarkRangeFree(start, count int) error {
	for i := start; i < start+count; i++ {
		if err := m.MarkFree(i); err != nil {
			return err
		}
	}
	return nil
}

// FreeCount is the population count of free bits.
func (m *FreeMap) FreeCount() int {
	n := 0
	for i := 0; i < m.total; i++ {
		if m.bits.Get(i) {
			n++
		}
	}
	return n
}

// FindFreeRun finds the first run of `count` consecutive free blocks at or
// after `start`, returning its starting block. Returns false if no such run
// exists.
func (m *FreeMap) FindFreeRun(start, count int) (int, bool) {
	run := 0
	for i := start; i < m.total; i++ {
		if m.IsFree(i) {
			run++
			if run == count {
				return i - count + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

// FindFreeBlocks returns the first `count` free blocks, not necessarily
// contiguous, in ascending order (DMS's SAM allocation strategy does not
// require contiguity). Returns false if fewer than count free blocks exist.
func (m *FreeMap) FindFreeBlocks(count int) ([]int, bool) {
	var out []int
	for i := 0; i < m.total && len(out) < count; i++ {
		if m.IsFree(i) {
			out = append(out, i)
		}
	}
	return out, len(out) == count
}
