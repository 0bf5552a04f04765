// Package decsys implements the DECSys driver: PDP-7
// DECSys-7, a 384-block DECtape image with a program directory of System
// (contiguous) and Working (linked, three-fork) programs, plus a separate
// variable-length library directory.
package decsys

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/wordblock"
)

const (
	totalBlocks        = 384
	wordsPerBlock      = 256
	linkedWordsPerBlock = 254

	labelBlock       = 1
	programDirBlock  = 2
	libraryDirBlock  = 3
	monitorBlock     = 4
	monitorSize      = 3
	firstFileBlock   = monitorBlock + monitorSize // 7
	lastFileBlock    = totalBlocks - 2             // 382

	systemEntryWords  = 5
	workingEntryWords = 6

	typeSystem  = 1
	typeWorking = 2
	typeLibrary = 3

	firstFreeSlot = 255 // word 255 of the program directory block
)

// FileType tags a DECSys file's organization/fork.
type FileType int

const (
	// System is a contiguous System program.
	System FileType = iota + 1
	// Working is the umbrella type for a Working program entry; reads pick
	// the first populated fork unless a fork prefix selects one.
	Working
	// Library is an entry in the separate library directory.
	Library
	// Fortran is the FORTRAN-source fork of a Working program.
	Fortran
	// Assembler is the assembler-source fork of a Working program.
	Assembler
	// Binary is the relocatable-binary fork of a Working program.
	Binary
)

func (t FileType) String() string {
	switch t {
	case System:
		return "SYSTEM"
	case Working:
		return "WORKING"
	case Library:
		return "LIBRARY"
	case Fortran:
		return "FORTRAN"
	case Assembler:
		return "ASSEMBLER"
	case Binary:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

func (t FileType) short() string {
	s := t.String()
	if s == "" {
		return "?"
	}
	return s[:1]
}

func forkFromPrefix(prefix string) (FileType, bool) {
	switch strings.ToUpper(prefix) {
	case "F":
		return Fortran, true
	case "A":
		return Assembler, true
	case "B":
		return Binary, true
	}
	return 0, false
}

// canonicalFilename upcases and strips characters Baudot cannot represent.
// Non-wildcard names are cut to the 6 characters an entry's two Baudot
// name words hold.
func canonicalFilename(name string, wildcard bool) string {
	var out strings.Builder
	for _, ch := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case ch == '*' && wildcard:
			out.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == ' ', ch == '-', ch == '.':
			out.WriteRune(ch)
		}
	}
	s := out.String()
	if !wildcard && len(s) > 6 {
		s = s[:6]
	}
	return s
}

// splitFullname splits an optional "F,NAME" / "A,NAME" / "B,NAME" type
// prefix from a filename, matching the create_file naming convention.
func splitFullname(fullname string) (FileType, bool, string) {
	if i := strings.IndexByte(fullname, ','); i >= 0 {
		if ft, ok := forkFromPrefix(fullname[:i]); ok {
			return ft, true, canonicalFilename(fullname[i+1:], false)
		}
	}
	return 0, false, canonicalFilename(fullname, false)
}

// Entry is one program-directory entry (System or Working).
type Entry struct {
	fs                   *Filesystem
	Filename             string
	Kind                 FileType // System or Working
	BlockNumber          int      // System: program block; Working/Binary fallback
	FortranBlockNumber   int
	AssemblerBlockNumber int
	StartingAddress      int
	slot                 int // word offset of this entry within block 2
}

func (e *Entry) Name() string { return e.Filename }

func (e *Entry) forkBlock(ft FileType) int {
	switch ft {
	case Fortran:
		return e.FortranBlockNumber
	case Assembler:
		return e.AssemblerBlockNumber
	default:
		return e.BlockNumber
	}
}

// primaryFork returns the first populated fork of a Working entry, or
// System for a System entry.
func (e *Entry) primaryFork() FileType {
	if e.Kind == System {
		return System
	}
	switch {
	case e.FortranBlockNumber != 0:
		return Fortran
	case e.AssemblerBlockNumber != 0:
		return Assembler
	default:
		return Binary
	}
}

func (e *Entry) Length() int64 { return int64(e.Blocks()) }
func (e *Entry) Blocks() int {
	blocks, _ := e.fsBlocks(e.primaryFork())
	return len(blocks)
}
func (e *Entry) CreationDate() (encoding.Date, bool) { return encoding.Date{}, false }
func (e *Entry) Protected() bool                     { return false }
func (e *Entry) FileType() string                    { return e.Kind.String() }
func (e *Entry) IsDir() bool                         { return false }

// fsBlocks walks the block chain for fork ft of this entry. For System
// entries this is the contiguous run discovered by reading block prologues;
// for Working forks it is the linked chain starting at forkBlock(ft).
func (e *Entry) fsBlocks(ft FileType) ([]int, error) {
	if e.fs == nil {
		return nil, nil
	}
	start := e.forkBlock(ft)
	if start == 0 {
		return nil, nil
	}
	if e.Kind == System {
		return e.fs.systemChain(start)
	}
	return e.fs.linkedChain(start)
}

// LibraryEntry is one variable-length library-directory record.
type LibraryEntry struct {
	Filename    string
	BlockNumber int
	EntryPoints int
}

func (e *LibraryEntry) Name() string                          { return e.Filename }
func (e *LibraryEntry) Length() int64                          { return 0 }
func (e *LibraryEntry) Blocks() int                            { return 0 }
func (e *LibraryEntry) CreationDate() (encoding.Date, bool)    { return encoding.Date{}, false }
func (e *LibraryEntry) Protected() bool                        { return false }
func (e *LibraryEntry) FileType() string                       { return Library.String() }
func (e *LibraryEntry) IsDir() bool                             { return false }

// Filesystem is the DECSys driver.
type Filesystem struct {
	img      *storage.Image
	dev      *block.Device
	words    *wordblock.Device
	readOnly bool
}

func init() {
	fsapi.Register("decsys", mount)
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting DECSys volume")
	}
	dev := block.New(img)
	return &Filesystem{img: img, dev: dev, words: wordblock.New(dev), readOnly: readOnly}, nil
}

func (f *Filesystem) readProgramDirWords() ([wordsPerBlock]uint32, error) {
	words, err := f.words.Read18(programDirBlock)
	if err != nil {
		return words, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	return words, nil
}

func (f *Filesystem) entries() ([]*Entry, error) {
	words, err := f.readProgramDirWords()
	if err != nil {
		return nil, err
	}
	length := int(words[0])
	var out []*Entry
	pos := 1
	for len(out) < length && pos < firstFreeSlot {
		if words[pos] == typeSystem {
			if pos+systemEntryWords > firstFreeSlot {
				break
			}
			name, _ := encoding.ReadBaudotString(words[pos+1:pos+3], 0)
			out = append(out, &Entry{
				fs:              f,
				Filename:        name,
				Kind:            System,
				BlockNumber:     int(words[pos+3]),
				StartingAddress: int(words[pos+4]),
				slot:            pos,
			})
			pos += systemEntryWords
		} else {
			if pos+workingEntryWords > firstFreeSlot {
				break
			}
			name, _ := encoding.ReadBaudotString(words[pos+1:pos+3], 0)
			out = append(out, &Entry{
				fs:                   f,
				Filename:             name,
				Kind:                 Working,
				FortranBlockNumber:   int(words[pos+3]),
				AssemblerBlockNumber: int(words[pos+4]),
				BlockNumber:          int(words[pos+5]),
				slot:                 pos,
			})
			pos += workingEntryWords
		}
	}
	return out, nil
}

func u16slice(words []uint32) []uint16 {
	out := make([]uint16, len(words))
	for i, w := range words {
		out[i] = uint16(w)
	}
	return out
}

func (f *Filesystem) libraryEntries() ([]*LibraryEntry, error) {
	words, err := f.words.Read18(libraryDirBlock)
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	var out []*LibraryEntry
	pos := 0
	for pos < wordsPerBlock && words[pos] != 0 {
		name, next := encoding.ReadBaudotString(words[pos:], 0)
		pos += next
		if pos >= wordsPerBlock || words[pos] != encoding.LabelEndWord {
			break
		}
		pos++ // skip sentinel
		if pos+1 >= wordsPerBlock {
			break
		}
		entryPoints := int(words[pos])
		blockNumber := int(words[pos+1])
		pos += 2
		if pos < wordsPerBlock && words[pos] == encoding.LabelEndWord {
			pos++
		}
		if name == "" {
			break
		}
		out = append(out, &LibraryEntry{Filename: name, BlockNumber: blockNumber, EntryPoints: entryPoints})
	}
	return out, nil
}

// systemChain reads a contiguous System program's block run, bounded by
// the first block's word-0 two's-complement word count (plus its 2-word
// prologue) and stopping at the volume end if the count runs past it.
func (f *Filesystem) systemChain(start int) ([]int, error) {
	first, err := f.words.Read18(int64(start))
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	remaining := int(0o400000-int(first[0])) + 2
	var blocks []int
	for b := start; b != 0 && b <= lastFileBlock && remaining > 0; b++ {
		blocks = append(blocks, b)
		remaining -= wordsPerBlock
	}
	return blocks, nil
}

// linkedChain follows a Working-program fork's linked block list: each
// block's word 0 is the next block number, 0 terminates.
func (f *Filesystem) linkedChain(start int) ([]int, error) {
	var blocks []int
	b := start
	seen := map[int]bool{}
	for b != 0 && !seen[b] && len(blocks) < totalBlocks {
		seen[b] = true
		blocks = append(blocks, b)
		words, err := f.words.Read18(int64(b))
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		b = int(words[0])
	}
	return blocks, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	libs, err := f.libraryEntries()
	if err != nil {
		return nil, err
	}
	out := make([]fsapi.Entry, 0, len(entries)+len(libs))
	for _, e := range entries {
		out = append(out, e)
	}
	for _, e := range libs {
		out = append(out, e)
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	all, err := f.EntriesList()
	if err != nil {
		return nil, err
	}
	if pattern == "" || pattern == "*" {
		return all, nil
	}
	_, _, name := splitFullname(pattern)
	var out []fsapi.Entry
	for _, e := range all {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	_, _, name := splitFullname(fullname)
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Filename == name {
			return e, nil
		}
	}
	libs, err := f.libraryEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range libs {
		if e.Filename == name {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	forkType, hasFork, name := splitFullname(fullname)
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Filename != name {
			continue
		}
		ft := e.primaryFork()
		if hasFork {
			ft = forkType
		}
		return f.readFork(e, ft, mode)
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

func (f *Filesystem) readFork(e *Entry, ft FileType, mode int) ([]byte, error) {
	start := e.forkBlock(ft)
	if start == 0 {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "fork %s not present", ft)
	}
	var out []uint32
	if e.Kind == System {
		// Contiguous: the first block's word 0 is the two's-complement
		// word count for the whole file; consume that many words across
		// as many subsequent blocks as needed.
		blocks, err := f.systemChain(start)
		if err != nil {
			return nil, err
		}
		numWords := -1
		for i, b := range blocks {
			words, err := f.words.Read18(int64(b))
			if err != nil {
				return nil, errors.Wrap(fsapi.ErrIO, err.Error())
			}
			var chunk []uint32
			if i == 0 {
				numWords = int(0o400000 - int(words[0]))
				chunk = words[2:]
			} else {
				chunk = words[:]
			}
			if numWords < len(chunk) {
				chunk = chunk[:numWords]
			}
			out = append(out, chunk...)
			numWords -= len(chunk)
			if numWords <= 0 {
				break
			}
		}
	} else {
		blocks, err := f.linkedChain(start)
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			words, err := f.words.Read18(int64(b))
			if err != nil {
				return nil, errors.Wrap(fsapi.ErrIO, err.Error())
			}
			numWordsComp := words[1]
			numWords := int(0o400000 - int(numWordsComp))
			data := words[2:]
			if numWords >= 0 && numWords < len(data) {
				data = data[:numWords]
			}
			out = append(out, data...)
		}
	}
	fileMode := encoding.IMAGE
	if mode == int(encoding.ASCII) {
		fileMode = encoding.ASCII
	}
	return encoding.Pack18WordsToBytes(out, fileMode), nil
}

// allocate finds numBlocks unused blocks in [firstFileBlock, lastFileBlock]
// by computing, per call, the set of blocks already referenced by every
// file's block chain.
func (f *Filesystem) allocate(numBlocks int) ([]int, error) {
	used := map[int]bool{}
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		forks := []FileType{System}
		if e.Kind == Working {
			forks = []FileType{Fortran, Assembler, Binary}
		}
		for _, ft := range forks {
			start := e.forkBlock(ft)
			if start == 0 {
				continue
			}
			var blocks []int
			if e.Kind == System {
				blocks, _ = f.systemChain(start)
			} else {
				blocks, _ = f.linkedChain(start)
			}
			for _, b := range blocks {
				used[b] = true
			}
		}
	}
	var free []int
	for b := firstFileBlock; b <= lastFileBlock && len(free) < numBlocks; b++ {
		if !used[b] {
			free = append(free, b)
		}
	}
	if len(free) < numBlocks {
		return nil, errors.Wrapf(fsapi.ErrNoSpace, "need %d blocks, found %d", numBlocks, len(free))
	}
	return free, nil
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, data []byte, creationDate string, fileType string, mode int) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	forkType, hasFork, name := splitFullname(fullname)
	if !hasFork {
		forkType = Binary
	}
	fileMode := encoding.IMAGE
	if mode == int(encoding.ASCII) {
		fileMode = encoding.ASCII
	}
	words := encoding.Unpack18BytesToWords(data, fileMode)
	numBlocks := (len(words) + linkedWordsPerBlock - 1) / linkedWordsPerBlock
	if numBlocks == 0 {
		numBlocks = 1
	}
	blocks, err := f.allocate(numBlocks)
	if err != nil {
		return err
	}
	for i, b := range blocks {
		chunk := words[i*linkedWordsPerBlock : min(len(words), (i+1)*linkedWordsPerBlock)]
		var next uint32
		if i+1 < len(blocks) {
			next = uint32(blocks[i+1])
		}
		numWordsComp := uint32(0o400000 - len(chunk))
		var block [wordsPerBlock]uint32
		block[0] = next
		block[1] = numWordsComp
		copy(block[2:], chunk)
		if err := f.words.Write18(int64(b), block); err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	return f.updateFork(name, forkType, blocks[0])
}

// updateFork rewrites (or inserts) the program-directory entry for name,
// setting the given fork's block pointer.
func (f *Filesystem) updateFork(name string, ft FileType, block int) error {
	entries, err := f.entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Filename != name {
			continue
		}
		switch ft {
		case Fortran:
			e.FortranBlockNumber = block
		case Assembler:
			e.AssemblerBlockNumber = block
		default:
			e.BlockNumber = block
		}
		return f.writeEntry(e)
	}
	return f.insertEntry(&Entry{
		fs:                   f,
		Filename:             name,
		Kind:                 Working,
		FortranBlockNumber:   boolBlock(ft == Fortran, block),
		AssemblerBlockNumber: boolBlock(ft == Assembler, block),
		BlockNumber:          boolBlock(ft != Fortran && ft != Assembler, block),
	})
}

func boolBlock(cond bool, block int) int {
	if cond {
		return block
	}
	return 0
}

func (f *Filesystem) writeEntry(e *Entry) error {
	words, err := f.readProgramDirWords()
	if err != nil {
		return err
	}
	nameWords := encoding.StrToBaudot(e.Filename, 2)
	switch e.Kind {
	case System:
		words[e.slot] = typeSystem
		words[e.slot+1] = uint32(nameWords[0])
		words[e.slot+2] = uint32(nameWords[1])
		words[e.slot+3] = uint32(e.BlockNumber)
		words[e.slot+4] = uint32(e.StartingAddress)
	default:
		words[e.slot] = typeWorking
		words[e.slot+1] = uint32(nameWords[0])
		words[e.slot+2] = uint32(nameWords[1])
		words[e.slot+3] = uint32(e.FortranBlockNumber)
		words[e.slot+4] = uint32(e.AssemblerBlockNumber)
		words[e.slot+5] = uint32(e.BlockNumber)
	}
	return errors.Wrap(f.words.Write18(programDirBlock, words), "writing DECSys program directory")
}

func (f *Filesystem) insertEntry(e *Entry) error {
	words, err := f.readProgramDirWords()
	if err != nil {
		return err
	}
	length := int(words[0])
	pos := 1
	for i := 0; i < length; i++ {
		if words[pos] == typeSystem {
			pos += systemEntryWords
		} else {
			pos += workingEntryWords
		}
	}
	if pos+workingEntryWords > firstFreeSlot {
		return errors.Wrap(fsapi.ErrNoSpace, "program directory full")
	}
	e.slot = pos
	words[0] = uint32(length + 1)
	if err := f.words.Write18(programDirBlock, words); err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	return f.writeEntry(e)
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	forkType, hasFork, name := splitFullname(fullname)
	if !hasFork {
		forkType = Binary
	}
	if blocks < 1 {
		blocks = 1
	}
	free, err := f.allocate(blocks)
	if err != nil {
		return nil, err
	}
	for i, b := range free {
		var next uint32
		if i+1 < len(free) {
			next = uint32(free[i+1])
		}
		var block [wordsPerBlock]uint32
		block[0] = next
		block[1] = uint32(0o400000)
		if err := f.words.Write18(int64(b), block); err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	if err := f.updateFork(name, forkType, free[0]); err != nil {
		return nil, err
	}
	return f.GetFileEntry(fullname)
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(entry fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	e, ok := entry.(*Entry)
	if !ok {
		return errors.Wrap(fsapi.ErrInvalidArg, "not a DECSys program entry")
	}
	words, err := f.readProgramDirWords()
	if err != nil {
		return err
	}
	length := int(words[0])
	var out [wordsPerBlock]uint32
	out[0] = uint32(length - 1)
	pos := 1
	outPos := 1
	for i := 0; i < length; i++ {
		width := workingEntryWords
		if words[pos] == typeSystem {
			width = systemEntryWords
		}
		if pos != e.slot {
			copy(out[outPos:outPos+width], words[pos:pos+width])
			outPos += width
		}
		pos += width
	}
	out[firstFreeSlot] = words[firstFreeSlot]
	return errors.Wrap(f.words.Write18(programDirBlock, out), "writing DECSys program directory")
}

// Chdir implements fs.Filesystem. DECSys has a flat namespace.
func (f *Filesystem) Chdir(string) error {
	return errors.Wrap(fsapi.ErrInvalidArg, "DECSys has no subdirectories")
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return "" }

// IsDir implements fs.Filesystem.
func (f *Filesystem) IsDir(string) bool { return false }

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	_, err := f.GetFileEntry(fullname)
	return err == nil
}

// Dir implements fs.Filesystem.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	for _, fe := range entries {
		switch e := fe.(type) {
		case *Entry:
			if options.Brief {
				fmt.Fprintf(w, "%s,%s\n", e.primaryFork().short(), e.Name())
				continue
			}
			fmt.Fprintf(w, "%-6s %-6s %3d blocks\n", e.Kind, e.Name(), e.Blocks())
		case *LibraryEntry:
			fmt.Fprintf(w, "L      %-6s entry points=%d block=%d\n", e.Name(), e.EntryPoints, e.BlockNumber)
		}
	}
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		data, err := f.ReadBytes(arg, int(encoding.IMAGE))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d bytes\n", arg, len(data))
		return nil
	}
	words, err := f.words.Read18(labelBlock)
	if err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	label1, next := encoding.ReadBaudotString(words[:], 0)
	label2, _ := encoding.ReadBaudotString(words[:], next)
	fmt.Fprintf(w, "label 1: %s\nlabel 2: %s\n", label1, label2)
	return nil
}

// Initialize implements fs.Filesystem.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	var empty [wordsPerBlock]uint32
	for b := 0; b < totalBlocks; b++ {
		if err := f.words.Write18(int64(b), empty); err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	label1 := encoding.StrToBaudot("DECSYS7", -1)
	label1 = append(label1, encoding.LabelEndWord)
	var labelWords [wordsPerBlock]uint32
	for i, w := range label1 {
		if i >= wordsPerBlock {
			break
		}
		labelWords[i] = uint32(w)
	}
	if err := f.words.Write18(labelBlock, labelWords); err != nil {
		return errors.Wrap(fsapi.ErrIO, err.Error())
	}
	var dir [wordsPerBlock]uint32
	dir[0] = 0
	dir[firstFreeSlot] = firstFileBlock
	return errors.Wrap(f.words.Write18(programDirBlock, dir), "initializing DECSys program directory")
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string {
	return []string{System.String(), Working.String(), Library.String(), Fortran.String(), Assembler.String(), Binary.String()}
}

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
