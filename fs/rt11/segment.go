package rt11

// segment is one RT-11 volume directory segment: a 10-byte header followed
// by fixed-size entries, the last of which carries classEndOfSegment.
type segment struct {
	fs *Filesystem

	blockNumber         int64
	numOfSegments       int
	nextLogicalSegment  int
	highestSegment      int
	extraBytes          int
	dataBlockNumber     int64
	maxEntries          int
	entries             []*Entry
}

func newSegment(f *Filesystem) *segment {
	return &segment{fs: f}
}

// read loads the segment starting at the given directory block number.
func (s *segment) read(blockNumber int64) error {
	s.blockNumber = blockNumber
	t, err := s.fs.dev.ReadBlocks(blockNumber, 2)
	if err != nil {
		return err
	}
	s.numOfSegments = int(be16(t, 0))
	s.nextLogicalSegment = int(be16(t, 2))
	s.highestSegment = int(be16(t, 4))
	s.extraBytes = int(be16(t, 6))
	s.dataBlockNumber = int64(be16(t, 8))
	s.entries = nil

	filePosition := s.dataBlockNumber
	entrySize := dirEntrySize + s.extraBytes
	s.maxEntries = (dirSegmentSize - dirSegmentHeaderSize) / entrySize
	for pos := dirSegmentHeaderSize; pos < dirSegmentSize-entrySize; pos += entrySize {
		e := readEntry(s, t, pos, filePosition, s.extraBytes)
		filePosition += int64(e.Len)
		s.entries = append(s.entries, e)
		if e.IsEndOfSegment() {
			break
		}
	}
	return nil
}

// toBytes serializes the segment back to its on-disk two-block form.
func (s *segment) toBytes() []byte {
	out := make([]byte, 0, dirSegmentSize)
	out = putWord(out, uint16(s.numOfSegments))
	out = putWord(out, uint16(s.nextLogicalSegment))
	out = putWord(out, uint16(s.highestSegment))
	out = putWord(out, uint16(s.extraBytes))
	out = putWord(out, uint16(s.dataBlockNumber))
	for _, e := range s.entries {
		out = append(out, e.toBytes()...)
	}
	if len(out) < dirSegmentSize {
		out = append(out, make([]byte, dirSegmentSize-len(out))...)
	}
	return out
}

// write persists the segment to disk.
func (s *segment) write() error {
	return s.fs.dev.WriteBlocks(s.blockNumber, s.toBytes())
}

// nextBlockNumber is the directory block number of the next logical
// segment, or 0 if this is the last one.
func (s *segment) nextBlockNumber() int64 {
	if s.nextLogicalSegment == 0 {
		return 0
	}
	return int64(s.nextLogicalSegment-1)*2 + s.fs.dirSegment
}

// compact merges consecutive empty entries, summing their lengths and
// inheriting classEndOfSegment from the absorbed trailing entry.
func (s *segment) compact() error {
	var out []*Entry
	var prevEmpty *Entry
	for _, e := range s.entries {
		switch {
		case !e.IsEmpty():
			prevEmpty = nil
			out = append(out, e)
		case prevEmpty == nil:
			prevEmpty = e
			out = append(out, e)
		default:
			prevEmpty.Len += e.Len
			if e.IsEndOfSegment() {
				prevEmpty.Class |= classEndOfSegment
			}
		}
	}
	s.entries = out
	return s.write()
}

// insertEntryAfter shrinks entry to length and inserts a new empty entry
// covering the remainder right after it in the entries list.
func (s *segment) insertEntryAfter(entry *Entry, entryNumber int, length uint16) {
	if entry.Len == length {
		return
	}
	newEntry := &Entry{
		segment:         entry.segment,
		Type:            entry.Type,
		Class:           classEmpty,
		RawCreationDate: 0,
		ExtraBytes:      append([]byte(nil), entry.ExtraBytes...),
	}
	if entry.IsEndOfSegment() {
		newEntry.Class |= classEndOfSegment
		entry.Class &^= classEndOfSegment
	}
	newEntry.Len = entry.Len - length
	newEntry.FilePosition = entry.FilePosition + int64(length)
	entry.Len = length

	out := make([]*Entry, 0, len(s.entries)+1)
	out = append(out, s.entries[:entryNumber+1]...)
	out = append(out, newEntry)
	out = append(out, s.entries[entryNumber+1:]...)
	s.entries = out
}
