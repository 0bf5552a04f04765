package os8

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// Dir implements fs.Filesystem: a three-column format-native directory
// listing matching OS8Filesystem.dir's layout.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	var col, files, blocks int
	var unused *int
	for _, fe := range entries {
		e := fe.(*Entry)
		if unused == nil {
			segs, err := f.readDirSegments(e.segment.partition)
			if err != nil {
				return err
			}
			n := 0
			for _, seg := range segs {
				n += seg.free()
			}
			unused = &n
		}
		var name, dateStr string
		if e.Empty || e.IsTentative() {
			if !options.Full {
				continue
			}
			col++
			name = "<EMPTY>  "
		} else {
			col++
			name = fmt.Sprintf("%-6s.%-2s", e.Filename, e.Extension)
			if options.Brief {
				fmt.Fprintf(w, "%s\n", name)
				continue
			}
			if d, ok := e.CreationDate(); ok {
				dateStr = fmt.Sprintf("%02d-%s-%02d", d.Day, monthAbbrev[d.Month], d.Year%100)
			}
			files++
			blocks += e.Len
		}
		fmt.Fprintf(w, "%s %04o %3d %-9s", name, e.FilePosition, e.Len, dateStr)
		if col%3 == 0 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "  ")
		}
	}
	if options.Brief {
		return nil
	}
	if col%3 != 0 {
		fmt.Fprintln(w)
	}
	u := 0
	if unused != nil {
		u = *unused
	}
	fmt.Fprintf(w, "\n%4d FILES IN %4d BLOCKS - %4d FREE BLOCKS\n", files, blocks, u)
	return nil
}

var monthAbbrev = map[int]string{
	1: "JAN", 2: "FEB", 3: "MAR", 4: "APR", 5: "MAY", 6: "JUN",
	7: "JUL", 8: "AUG", 9: "SEP", 10: "OCT", 11: "NOV", 12: "DEC",
}

// Examine implements fs.Filesystem: with arg, lists matching directory
// entries in detail; with no arg, dumps every partition's segment chain.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		fmt.Fprintf(w, "Filename    Type  Date       Length  Block\n")
		fmt.Fprintf(w, "--------    ----  ----       ------  -----\n")
		entries, err := f.FilterEntriesList(arg, true, true)
		if err != nil {
			return err
		}
		for _, fe := range entries {
			e := fe.(*Entry)
			attr := "PERM"
			switch {
			case e.Empty:
				attr = "EMPTY"
			case e.IsTentative():
				attr = "TEMP"
			}
			dateStr := "          "
			if d, ok := e.CreationDate(); ok {
				dateStr = fmt.Sprintf("%02d-%s-%02d", d.Day, monthAbbrev[d.Month], d.Year%100)
			}
			fmt.Fprintf(w, "%-11s %-5s %s %6d %6d\n", e.fullname(), attr, dateStr, e.Len, e.FilePosition)
		}
		return nil
	}
	fmt.Fprintf(w, "Number of partitions:     %d\n", f.numPartitions())
	fmt.Fprintf(w, "Size of each partition:   %d\n", f.partitionSize())
	for p := 0; p < f.numPartitions(); p++ {
		fmt.Fprintf(w, "\n*Partition\n")
		fmt.Fprintf(w, "Partition number:         %5d\n", p)
		fmt.Fprintf(w, "Partition size:           %5d\n", f.partitionSize())
		fmt.Fprintf(w, "Partition starting block: %5d\n", f.partitionBase(p))
		segs, err := f.readDirSegments(p)
		if err != nil {
			return err
		}
		for _, seg := range segs {
			fmt.Fprintf(w, "\n*Segment\n")
			fmt.Fprintf(w, "Block number:          %5d\n", seg.blockNumber)
			fmt.Fprintf(w, "Number of entries:     %5d\n", len(seg.entries))
			fmt.Fprintf(w, "Data block:            %5d\n", seg.dataBlockNumber)
			fmt.Fprintf(w, "Next dir segment:      %5d\n", seg.nextBlockNumber)
			fmt.Fprintf(w, "Tentative last word:   %5d\n", seg.tentativeLastWord)
			fmt.Fprintf(w, "Extra words:           %5d\n", seg.extraWords)
			fmt.Fprintf(w, "Max entries:           %5d\n\n", seg.maxEntries())
			fmt.Fprintf(w, "Num  Filename    Type  Date       Length  Block\n")
			fmt.Fprintf(w, "---  --------    ----  ----       ------  -----\n")
			for i, e := range seg.entries {
				attr := "PERM"
				switch {
				case e.Empty:
					attr = "EMPTY"
				case e.IsTentative():
					attr = "TEMP"
				}
				dateStr := "          "
				if d, ok := e.CreationDate(); ok {
					dateStr = fmt.Sprintf("%02d-%s-%02d", d.Day, monthAbbrev[d.Month], d.Year%100)
				}
				fmt.Fprintf(w, "%02d#  %-11s %-5s %s %6d %6d\n", i, e.fullname(), attr, dateStr, e.Len, e.FilePosition)
			}
		}
	}
	return nil
}

// initializePartition writes a single empty directory segment spanning
// the whole partition, matching OS8Partition.initialize.
func (f *Filesystem) initializePartition(partition int) error {
	seg := &segment{fs: f, partition: partition}
	seg.blockNumber = dirSegmentStart
	seg.dataBlockNumber = seg.blockNumber + numOfSegments
	seg.nextBlockNumber = 0
	seg.tentativeLastWord = 0
	seg.extraWords = 1

	length := int(f.partitionSize()) - seg.dataBlockNumber
	empty := &Entry{segment: seg, Empty: true, Len: length}
	seg.entries = []*Entry{empty}
	return seg.write()
}

// Initialize implements fs.Filesystem: writes an empty directory segment to
// every partition the image's block count implies.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	if options.TotalBlocks != 0 {
		f.numberOfBlocks = int64(options.TotalBlocks)
	} else {
		f.numberOfBlocks = f.img.Size() / blockSize
	}
	f.currentPartition = 0
	for p := 0; p < f.numPartitions(); p++ {
		if err := f.initializePartition(p); err != nil {
			return err
		}
	}
	return nil
}
