package tss8

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// Dir implements fs.Filesystem. At the master-directory level (current PPN
// is [0,1], or options.UIC is set) it lists every PPN account with its
// password/time/quota columns; otherwise it lists the current PPN's files,
// matching TSS8Filesystem.dir.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	if options.UIC || f.ppn.equals(mfdPPN) {
		return f.dirUIC(w)
	}
	return f.dirFiles(w, pattern, options)
}

func (f *Filesystem) dirUIC(w io.Writer) error {
	mfd, err := readMFD(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "PPN        PASSWORD  QUOTA  CPU-TIME  DEVICE-TIME  BLOCKS\n")
	fmt.Fprintf(w, "---        --------  -----  --------  -----------  ------\n")
	for _, e := range mfd.entries {
		if e.isDummy() {
			continue
		}
		usage, err := e.diskUsage()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-10s %-8s  %5d  %8d  %11d  %6d\n",
			e.ppn.String(), e.password, e.quota, e.cpuTime, e.deviceTime, usage)
	}
	return nil
}

func (f *Filesystem) dirFiles(w io.Writer, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, options.Full, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "DIRECTORY %s\n\n", f.ppn.String())
	var files, blocks int
	for _, fe := range entries {
		e := fe.(*ufdEntry)
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.basename())
			continue
		}
		prot := "   "
		if e.Protected() {
			prot = "PRO"
		}
		dateStr := "          "
		if d, ok := e.CreationDate(); ok {
			dateStr = fmt.Sprintf("%02d-%02d-%02d", d.Year%100, d.Month, d.Day)
		}
		fmt.Fprintf(w, "%-10s %5d  %s  %s\n", e.basename(), e.length, prot, dateStr)
		files++
		blocks += e.length
	}
	if options.Brief {
		return nil
	}
	fmt.Fprintf(w, "\n%4d FILES IN %4d BLOCKS\n", files, blocks)
	return nil
}

// Examine implements fs.Filesystem: a bitmap dump with options.Bitmap, a
// single-file detail table for a non-wildcard arg, a filtered listing for a
// wildcard, or the full MFD dump with no arg, matching
// TSS8Filesystem.examine.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if options.Bitmap {
		bitmap, err := readSAT(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Total blocks: %d, used: %d, free: %d\n", bitmap.totalBits(), bitmap.used(), bitmap.free())
		for i := 0; i < bitmap.totalBits(); i++ {
			if i%64 == 0 {
				fmt.Fprintf(w, "\n%5d: ", i)
			}
			if bitmap.isFree(i) {
				fmt.Fprint(w, ".")
			} else {
				fmt.Fprint(w, "#")
			}
		}
		fmt.Fprintln(w)
		return nil
	}
	if arg == "" {
		return f.dumpMFD(w)
	}
	entries, err := f.FilterEntriesList(arg, true, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Filename    Blocks  Prot  Date        Retrieval\n")
	fmt.Fprintf(w, "--------    ------  ----  ----        ---------\n")
	for _, fe := range entries {
		e := fe.(*ufdEntry)
		dateStr := "          "
		if d, ok := e.CreationDate(); ok {
			dateStr = fmt.Sprintf("%02d-%02d-%02d", d.Year%100, d.Month, d.Day)
		}
		fmt.Fprintf(w, "%-11s %6d  %04o  %s  %v\n", e.basename(), e.length, e.protection, dateStr, e.blocks())
	}
	return nil
}

func (f *Filesystem) dumpMFD(w io.Writer) error {
	mfd, err := readMFD(f)
	if err != nil {
		return err
	}
	for _, e := range mfd.entries {
		fmt.Fprintf(w, "*Entry\n")
		fmt.Fprintf(w, "PPN:               %s\n", e.ppn.String())
		fmt.Fprintf(w, "Password:          %s\n", e.password)
		fmt.Fprintf(w, "Quota:             %d\n", e.quota)
		fmt.Fprintf(w, "Device time:       %d\n", e.deviceTime)
		fmt.Fprintf(w, "CPU time:          %d\n", e.cpuTime)
		fmt.Fprintf(w, "Retrieval pointer: %04o\n\n", e.retrievalPointer)
	}
	return nil
}

// Initialize implements fs.Filesystem: formats a fresh 20-user volume with
// an empty SAT and the three default PPN accounts SYSTEM/LIBRARY/OPERATOR,
// matching TSS8Filesystem.initialize.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	f.users = 20
	f.mfdBlock = monitorSize + blocksPerTrack*f.users
	totalBlocks := f.mfdBlock + blocksPerTrack
	if options.TotalBlocks != 0 {
		totalBlocks = options.TotalBlocks
	}

	bitmap := &storageAllocationTable{fs: f, bits: make([]uint16, satSize)}
	for b := 0; b < f.mfdBlock+blocksPerTrack; b++ {
		bitmap.setUsed(b)
	}
	for b := totalBlocks; b < bitmap.totalBits(); b++ {
		bitmap.setUsed(b)
	}
	if err := bitmap.write(); err != nil {
		return err
	}

	mfdWords := make([]uint16, wordsPerTrack)
	mfd := &masterFileDirectory{fs: f, words: mfdWords}
	dummy := &mfdEntry{mfd: mfd, position: 0, next: 0, retrievalPointer: 0}
	dummy.updateDir()
	mfd.entries = []*mfdEntry{dummy}
	if err := mfd.write(); err != nil {
		return err
	}

	defaults := []struct {
		p    ppn
		name string
	}{
		{ppn{Group: 0, User: 1}, "SYSTEM"},
		{ppn{Group: 0, User: 2}, "LIBRARY"},
		{ppn{Group: 0, User: 3}, "OPERATOR"},
	}
	for _, d := range defaults {
		if _, err := mfd.createUFD(d.p, d.name); err != nil {
			return err
		}
	}
	f.ppn = defaultPPN
	return nil
}
