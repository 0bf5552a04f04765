package rt11

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// Dir implements fs.Filesystem: a format-native directory listing matching
// RT-11's DIR command output, two columns wide.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, false)
	if err != nil {
		return err
	}
	var files, blocks, unused, col int
	for _, fe := range entries {
		e := fe.(*Entry)
		if !e.IsEmpty() && !e.IsTentative() && !e.IsPermanent() && !e.IsProtectedPermanent() && !e.IsProtectedByMonitor() {
			continue
		}
		var name, dateStr string
		if e.IsEmpty() || e.IsTentative() {
			if options.Brief {
				continue
			}
			name = "< UNUSED >"
			unused += int(e.Len)
		} else {
			name = e.Fullname()
			if options.Brief {
				fmt.Fprintf(w, "%s\n", name)
				continue
			}
			if d, ok := e.CreationDate(); ok {
				dateStr = fmt.Sprintf("%02d-%02d-%02d", d.Day, d.Month, d.Year%100)
			}
		}
		if e.IsPermanent() {
			files++
			blocks += int(e.Len)
		}
		attr := " "
		switch {
		case e.IsProtectedPermanent():
			attr = "P"
		case e.IsProtectedByMonitor():
			attr = "A"
		}
		fmt.Fprintf(w, "%10s %5d%1s %9s", name, e.Len, attr, dateStr)
		col++
		if col%2 == 1 {
			fmt.Fprint(w, "    ")
		} else {
			fmt.Fprintln(w)
		}
	}
	if options.Brief {
		return nil
	}
	if col%2 == 1 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, " %d Files, %d Blocks\n", files, blocks)
	fmt.Fprintf(w, " %d Free blocks\n", unused)
	return nil
}

// Examine implements fs.Filesystem: with no argument, dumps home-block and
// segment metadata; with a block number or filename, hex-dumps the bytes.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		return f.dump(w, arg)
	}
	fmt.Fprintf(w, "Directory segment:     %d\n", f.dirSegment)
	fmt.Fprintf(w, "System version:        %s\n", f.version)
	fmt.Fprintf(w, "Volume identification: %s\n", f.volumeID)
	fmt.Fprintf(w, "Owner name:            %s\n", f.owner)
	fmt.Fprintf(w, "System identification: %s\n", f.sysID)
	segs, err := f.readDirSegments()
	if err != nil {
		return err
	}
	for _, seg := range segs {
		fmt.Fprintf(w, "\n*Segment\n")
		fmt.Fprintf(w, "Block number:          %d\n", seg.blockNumber)
		fmt.Fprintf(w, "Next dir segment:      %d\n", seg.nextBlockNumber())
		fmt.Fprintf(w, "Number of segments:    %d\n", seg.numOfSegments)
		fmt.Fprintf(w, "Highest segment:       %d\n", seg.highestSegment)
		fmt.Fprintf(w, "Max entries:           %d\n", seg.maxEntries)
		fmt.Fprintf(w, "Data block:            %d\n", seg.dataBlockNumber)
		fmt.Fprintf(w, "\nNum  File        Date       Length  Type Class Job Chn  Block\n\n")
		for i, e := range seg.entries {
			fmt.Fprintf(w, "%02d#  %-11s %6d %5o %5o %3d %3d %6d\n",
				i, e.Fullname(), e.Len, e.Type, e.Class, e.Job, e.Channel, e.FilePosition)
		}
	}
	return nil
}

func (f *Filesystem) dump(w io.Writer, nameOrBlock string) error {
	var data []byte
	var blockNum int64
	if n, err := fmt.Sscanf(nameOrBlock, "%d", &blockNum); err == nil && n == 1 {
		b, err := f.dev.ReadBlock(blockNum)
		if err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
		data = b
	} else {
		b, err := f.ReadBytes(nameOrBlock, 0)
		if err != nil {
			return err
		}
		data = b
	}
	const perLine = 16
	for i := 0; i < len(data); i += perLine {
		end := i + perLine
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		fmt.Fprintf(w, "%08x   ", i)
		for j := 0; j < perLine; j++ {
			if j < len(chunk) {
				fmt.Fprintf(w, "%02x ", chunk[j])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, "  ")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

// directory segment counts keyed to image size, matching the standard
// RT-11 initialize formatting table.
func segmentCountFor(totalBlocks int64) int {
	switch {
	case totalBlocks >= 18000:
		return 31
	case totalBlocks >= 4000:
		return 16
	case totalBlocks >= 800:
		return 4
	default:
		return 1
	}
}

// Initialize implements fs.Filesystem: writes an empty home block and a
// single directory segment spanning the whole device.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	length := int64(options.TotalBlocks)
	if length == 0 {
		length = f.dev.TotalBlocks()
	}
	numSegments := segmentCountFor(length)

	f.dirSegment = defaultDirSegment
	f.version = "V05"
	f.volumeID = ""
	f.owner = ""
	f.sysID = "DECRT11A"
	if err := f.writeHome(); err != nil {
		return err
	}

	seg := newSegment(f)
	seg.blockNumber = f.dirSegment
	seg.numOfSegments = numSegments
	seg.nextLogicalSegment = 0
	seg.highestSegment = 1
	seg.extraBytes = 0
	seg.dataBlockNumber = f.dirSegment + int64(numSegments)*2

	empty := newEntry(seg)
	empty.Class = classEmpty
	empty.FilePosition = seg.dataBlockNumber
	empty.Len = uint16(length - seg.dataBlockNumber)

	eos := newEntry(seg)
	eos.Class = classEndOfSegment
	eos.FilePosition = length

	seg.entries = []*Entry{empty, eos}
	return seg.write()
}
