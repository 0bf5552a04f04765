package os8

// segment is one OS/8 volume directory segment: a 5-word header followed by
// entries, chained via nextBlockNumber to the next segment (0 ends the
// chain).
type segment struct {
	fs        *Filesystem
	partition int

	blockNumber       int
	dataBlockNumber   int
	nextBlockNumber   int
	tentativeLastWord int
	extraWords        int
	entries           []*Entry
}

// readSegment loads the segment at blockNumber (partition-relative) from
// disk, matching OS8Segment.read.
func readSegment(f *Filesystem, partition int, blockNumber int) (*segment, error) {
	words, err := f.readPartitionWords(partition, blockNumber)
	if err != nil {
		return nil, err
	}
	s := &segment{fs: f, partition: partition, blockNumber: blockNumber}
	// A segment with no entries stores its negated count as 12-bit 0.
	numEntries := (dirLenBase - int(words[0])) % dirLenBase
	s.dataBlockNumber = int(words[1])
	s.nextBlockNumber = int(words[2])
	s.tentativeLastWord = int(words[3])
	s.extraWords = dirLenBase - int(words[4])

	filePosition := s.dataBlockNumber
	position := dirSegmentHeaderSize
	for i := 0; i < numEntries; i++ {
		e := readEntry(s, words, position, filePosition)
		filePosition += e.Len
		position += e.wordLen()
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// toWords serializes the segment to its on-disk 256-word form.
func (s *segment) toWords() [dirSegmentSize]uint16 {
	words := make([]uint16, 0, dirSegmentSize)
	words = append(words,
		uint16(dirLenBase-len(s.entries)),
		uint16(s.dataBlockNumber),
		uint16(s.nextBlockNumber),
		uint16(s.tentativeLastWord),
		uint16(dirLenBase-s.extraWords),
	)
	for _, e := range s.entries {
		words = append(words, e.toWords()...)
	}
	var out [dirSegmentSize]uint16
	copy(out[:], words)
	return out
}

// write persists the segment to disk.
func (s *segment) write() error {
	return s.fs.writePartitionWords(s.partition, s.blockNumber, s.toWords())
}

// maxEntries is the largest number of entries this segment's extraWords
// width permits, per OS8Segment.max_entries.
func (s *segment) maxEntries() int {
	return (dirSegmentSize-dirSegmentHeaderSize)/(dirEntrySize+s.extraWords) - 1
}

// free counts the free blocks held by this segment's empty entries.
func (s *segment) free() int {
	n := 0
	for _, e := range s.entries {
		if e.Empty {
			n += e.Len
		}
	}
	return n
}

// compact merges consecutive empty entries, matching OS8Segment.compact.
func (s *segment) compact() {
	var out []*Entry
	var prevEmpty *Entry
	for _, e := range s.entries {
		switch {
		case !e.Empty:
			prevEmpty = nil
			out = append(out, e)
		case prevEmpty == nil:
			prevEmpty = e
			out = append(out, e)
		default:
			prevEmpty.Len += e.Len
		}
	}
	s.entries = out
}

// insertEmptyEntryAfter shrinks entry to length and inserts a new empty
// entry covering the remainder right after it, matching
// OS8Segment.insert_empty_entry_after. No-op if entry is already exactly
// length blocks.
func (s *segment) insertEmptyEntryAfter(entry *Entry, entryNumber int, length int) {
	if entry.Len == length {
		return
	}
	newEntry := &Entry{
		segment:      s,
		Empty:        true,
		Len:          entry.Len - length,
		FilePosition: entry.FilePosition + length,
	}
	entry.Len = length
	out := make([]*Entry, 0, len(s.entries)+1)
	out = append(out, s.entries[:entryNumber+1]...)
	out = append(out, newEntry)
	out = append(out, s.entries[entryNumber+1:]...)
	s.entries = out
}
