// Package dms implements the PDP-8 4k Disk Monitor System driver: a flat, 63-entry directory spread across three Directory Name
// (DN) blocks, with space tracked by a chained Storage Allocation Map (SAM)
// that records, per block, which file number owns it. Blocks are 129
// 12-bit words (258 bytes); word 0 of the image is a pad skipped by every
// block read/write.
package dms

import (
	"encoding/binary"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const (
	blockSizeWords = 129 // block size, in 12-bit words
	bytesPerWord   = 2
	dataBlockWords = blockSizeWords - 1 // last word is the link to the next block

	dnEntrySize = 5  // DN entry size, in words
	dnEntries   = 25 // directory entries per DN block
	dnStart     = 0o177

	emptyFileNumber    = 0  // block is free
	reservedFileNumber = 1  // monitor, DN, SAM and scratch blocks
	maxFileNumber      = 0o77

	monitorFilename = "EX C"

	fileTypeASCII   = 0 // 6-bit ASCII, escape-coded
	fileTypeBin     = 1
	fileTypeFTCBin  = 2
	fileTypeSysUser = 3

	extSYS    = "SYS"
	extUSER   = "USER"
	extASCII  = "ASCII"
	extBINARY = "BINARY"
	extFTCBIN = "FTC BIN"
)

var invalidFilenames = map[string]bool{"CALL": true, "SAVE": true}

func init() {
	fsapi.Register("dms", mount)
}

// sixbitToAsc/ascToSixbit delegate to the shared encoding package's 12-bit
// sixbit codec (two 6-bit characters per word).
func sixbitToAsc(w uint16) string {
	b := encoding.SixbitWord12ToAsc(w)
	return string(b[:])
}

func ascToSixbit(s string) uint16 {
	var b [2]byte
	for i := 0; i < 2; i++ {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return encoding.AscToSixbitWord12(b)
}

// filename holds the parsed form of a canonical DMS "NAME.EXT" reference:
// four characters, sixbit-roundtripped through SixbitWord12ToAsc/
// AscToSixbitWord12 for canonicalization, plus the program type/bank
// implied by the extension.
type filename struct {
	Name          string
	ProgramType   int
	SystemProgram bool
}

func parseFilename(fullname string) (filename, error) {
	fullname = strings.ToUpper(strings.TrimSpace(fullname))
	// Strip an optional ":core_addr" / ";entry_point" octal suffix; DMS
	// drivers don't expose those through the common fs.Filesystem API.
	if i := strings.IndexAny(fullname, ":;"); i >= 0 {
		fullname = fullname[:i]
	}
	name, ext, hasExt := strings.Cut(fullname, ".")
	if !hasExt {
		ext = ""
	}
	if len(name) > 4 {
		name = name[:4]
	}
	name = sixbitToAsc(ascToSixbit(name[:min(2, len(name))])) + sixbitToAsc(ascToSixbit(substr(name, 2, 4)))
	if invalidFilenames[strings.TrimSpace(name)] {
		return filename{}, errors.Wrap(fsapi.ErrInvalidArg, "reserved filename")
	}
	fn := filename{Name: name}
	switch {
	case ext == extASCII:
		fn.ProgramType = fileTypeASCII
	case ext == extBINARY:
		fn.ProgramType = fileTypeBin
	case ext == extFTCBIN:
		fn.ProgramType = fileTypeFTCBin
	case ext == extSYS:
		fn.ProgramType = fileTypeSysUser
		fn.SystemProgram = true
	case ext == extUSER:
		fn.ProgramType = fileTypeSysUser
	default:
		return filename{}, errors.Wrap(fsapi.ErrInvalidArg, "invalid file extension")
	}
	return fn, nil
}

func substr(s string, lo, hi int) string {
	if lo >= len(s) {
		return ""
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}

// decodeASCII un-escapes the 6-bit ASCII DMS text encoding: each word packs
// two 6-bit characters (high then low), 0o77 escapes the next character
// (?, tab, LF, CR, or form-feed which ends the file), and any other
// character below 32 is biased up by 64.
func decodeASCII(words []uint16) []byte {
	var out []byte
	esc := false
	for _, word := range words {
		if word == 0 {
			continue
		}
		l := byte((word >> 6) & 0o77)
		h := byte(word & 0o77)
		done := false
		for _, ch := range [2]byte{l, h} {
			if esc {
				switch ch {
				case 0o77:
					out = append(out, 0o77)
				case 0x09:
					out = append(out, 0x09)
				case 0x0A:
					out = append(out, 0x0A)
				case 0x0C:
					done = true
				case 0x0D:
				}
				esc = false
			} else if ch == 0o77 {
				esc = true
			} else {
				if ch < 32 {
					ch += 64
				}
				out = append(out, ch)
			}
			if done {
				break
			}
		}
		if done {
			break
		}
	}
	return out
}

// encodeASCII is the inverse of decodeASCII.
func encodeASCII(data []byte) []uint16 {
	var buf []byte
	for _, b := range data {
		b &= 0o177
		switch {
		case b == 0x0A:
			buf = append(buf, 0o77, 0x0D, 0o77, 0x0A)
		case b == 0x0D:
		case b == 0o77, b == 0x09, b == 0x0C:
			buf = append(buf, 0o77, b)
		default:
			if b > 64 {
				b -= 64
			}
			buf = append(buf, b)
		}
	}
	words := make([]uint16, 0, (len(buf)+1)/2)
	for i := 0; i < len(buf); i += 2 {
		l := buf[i]
		var h byte
		if i+1 < len(buf) {
			h = buf[i+1]
		}
		words = append(words, uint16(h&0o77)|uint16(l&0o77)<<6)
	}
	return words
}

// Entry is one Directory Name entry.
type Entry struct {
	fs            *Filesystem
	Filename      string
	FileNumber    int
	LowCoreAddr   int
	HighCoreAddr  int
	EntryPoint    int
	ProgramType   int
	SystemProgram bool
	blocks        []int // this entry's data blocks, in file order (from the SAM)
}

func (e *Entry) extension() string {
	switch e.ProgramType {
	case fileTypeASCII:
		return extASCII
	case fileTypeBin:
		return extBINARY
	case fileTypeFTCBin:
		return extFTCBIN
	default:
		if e.SystemProgram {
			return extSYS
		}
		return extUSER
	}
}

func (e *Entry) Name() string { return fmt.Sprintf("%s.%s", strings.TrimSpace(e.Filename), e.extension()) }
func (e *Entry) Length() int64 {
	return int64(len(e.blocks)) * int64(dataBlockWords) * bytesPerWord
}
func (e *Entry) Blocks() int                         { return len(e.blocks) }
func (e *Entry) CreationDate() (encoding.Date, bool) { return encoding.Date{}, false }
func (e *Entry) Protected() bool                     { return false }
func (e *Entry) FileType() string {
	if e.ProgramType == fileTypeASCII {
		return "ASCII"
	}
	return "IMAGE"
}
func (e *Entry) IsDir() bool { return false }

// sam is an in-memory view of the chained Storage Allocation Map: which
// file number (if any) owns each block, plus the raw per-SAM-block word
// arrays needed to write changes back.
type sam struct {
	blockNumbers []int      // SAM block numbers, in chain order
	owners       [][256]int // owners[i][k] = file number owning block (i*256+k)
	nextLinks    []int      // next_sam_block_number read from each block
	filesBlocks  map[int][]int
}

func (f *Filesystem) readSAM() (*sam, error) {
	s := &sam{filesBlocks: map[int][]int{}}
	next := f.firstSAMBlock
	for next != 0 {
		words, err := f.readWordBlock(next)
		if err != nil {
			return nil, err
		}
		var owners [256]int
		for i := 0; i < 128; i++ {
			owners[i] = int(words[i]) & 0o77
			owners[i+128] = int(words[i]>>6) & 0o77
		}
		s.blockNumbers = append(s.blockNumbers, next)
		s.owners = append(s.owners, owners)
		s.nextLinks = append(s.nextLinks, int(words[128]))
		base := len(s.blockNumbers) - 1
		for k, fn := range owners {
			if fn != emptyFileNumber {
				blockNumber := base*256 + k
				s.filesBlocks[fn] = append(s.filesBlocks[fn], blockNumber)
			}
		}
		next = int(words[128])
	}
	return s, nil
}

func (s *sam) free() int {
	n := 0
	for _, owners := range s.owners {
		for _, fn := range owners {
			if fn == emptyFileNumber {
				n++
			}
		}
	}
	return n
}

func (s *sam) setBlock(blockNumber, fileNumber int) {
	idx, off := blockNumber/256, blockNumber%256
	if idx >= len(s.owners) {
		return
	}
	s.owners[idx][off] = fileNumber
	s.filesBlocks[fileNumber] = append(s.filesBlocks[fileNumber], blockNumber)
}

func (s *sam) freeSpace(fileNumber int) {
	for i := range s.owners {
		for k, fn := range s.owners[i] {
			if fn == fileNumber {
				s.owners[i][k] = emptyFileNumber
			}
		}
	}
	delete(s.filesBlocks, fileNumber)
}

func (f *Filesystem) writeSAM(s *sam) error {
	for i, blockNumber := range s.blockNumbers {
		var words [blockSizeWords]uint16
		for k := 0; k < 128; k++ {
			words[k] = uint16(s.owners[i][k]&0o77) | uint16(s.owners[i][k+128]&0o77)<<6
		}
		words[128] = uint16(s.nextLinks[i])
		if err := f.writeWordBlock(blockNumber, words); err != nil {
			return err
		}
	}
	return nil
}

// allocateSpace picks the lowest unused file number in [2, maxFileNumber]
// and marks length free slots for it, scanning SAM slots in block order;
// the allocation need not be contiguous.
func (s *sam) allocateSpace(length int) (int, error) {
	if length > s.free() {
		return 0, errors.Wrap(fsapi.ErrNoSpace, "storage allocation map exhausted")
	}
	used := map[int]bool{}
	for fn := range s.filesBlocks {
		used[fn] = true
	}
	fileNumber := 0
	for i := 2; i <= maxFileNumber; i++ {
		if !used[i] {
			fileNumber = i
			break
		}
	}
	if fileNumber == 0 {
		return 0, errors.Wrap(fsapi.ErrNoSpace, "no free file numbers")
	}
	remaining := length
	for i := range s.owners {
		for k := range s.owners[i] {
			if s.owners[i][k] != emptyFileNumber {
				continue
			}
			blockNumber := i*256 + k
			s.owners[i][k] = fileNumber
			s.filesBlocks[fileNumber] = append(s.filesBlocks[fileNumber], blockNumber)
			remaining--
			if remaining == 0 {
				break
			}
		}
		if remaining == 0 {
			break
		}
	}
	return fileNumber, nil
}

// directoryName is one Directory Name (DN) block: up to dnEntries entries
// plus a link to the next DN block.
type directoryName struct {
	blockNumber   int
	seq           int
	firstScratch  int
	version       int
	firstSAMBlock int
	nextDN        int
	entries       map[int]*Entry // file number -> entry
}

func (f *Filesystem) readDN(blockNumber, seq int, s *sam) (*directoryName, error) {
	words, err := f.readWordBlock(blockNumber)
	if err != nil {
		return nil, err
	}
	dn := &directoryName{
		blockNumber:   blockNumber,
		seq:           seq,
		firstScratch:  int(words[0]),
		version:       int(words[1]),
		firstSAMBlock: int(words[2]),
		nextDN:        int(words[3+dnEntries*dnEntrySize]),
		entries:       map[int]*Entry{},
	}
	if s != nil {
		for pos := 3; pos < 3+dnEntries*dnEntrySize; pos += dnEntrySize {
			n1, n2 := words[pos], words[pos+1]
			lowCore := int(words[pos+2])
			entryPoint := int(words[pos+3])
			flags := int(words[pos+4])
			fileNumber := flags & 0o77
			if fileNumber == emptyFileNumber {
				continue
			}
			e := &Entry{
				fs:            f,
				Filename:      sixbitToAsc(n1) + sixbitToAsc(n2),
				FileNumber:    fileNumber,
				LowCoreAddr:   lowCore,
				EntryPoint:    entryPoint,
				ProgramType:   flags >> 10,
				HighCoreAddr:  (flags >> 7) & 0o7,
				SystemProgram: (flags>>6)&1 != 0,
				blocks:        s.filesBlocks[fileNumber],
			}
			dn.entries[fileNumber] = e
		}
	}
	return dn, nil
}

func (f *Filesystem) writeDN(dn *directoryName) error {
	var words [blockSizeWords]uint16
	words[0] = uint16(dn.firstScratch)
	words[1] = uint16(dn.version)
	words[2] = uint16(dn.firstSAMBlock)
	for i := 0; i < dnEntries; i++ {
		fileNumber := dn.seq*dnEntries + 1 + i
		pos := 3 + i*dnEntrySize
		e := dn.entries[fileNumber]
		if e == nil {
			continue
		}
		flags := e.ProgramType<<10 | e.HighCoreAddr<<7 | b2i(e.SystemProgram)<<6 | e.FileNumber
		words[pos] = ascToSixbit(e.Filename[:min(2, len(e.Filename))])
		words[pos+1] = ascToSixbit(substr(e.Filename, 2, 4))
		words[pos+2] = uint16(e.LowCoreAddr & 0o7777)
		words[pos+3] = uint16(e.EntryPoint & 0o7777)
		words[pos+4] = uint16(flags & 0o7777)
	}
	words[3+dnEntries*dnEntrySize] = uint16(dn.nextDN)
	return f.writeWordBlock(dn.blockNumber, words)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (dn *directoryName) firstFileNumber() int { return dn.seq*dnEntries + 1 }
func (dn *directoryName) lastFileNumber() int {
	last := (dn.seq + 1) * dnEntries
	if last > maxFileNumber {
		last = maxFileNumber
	}
	return last
}

// Filesystem implements fs.Filesystem for the PDP-8 4k Disk Monitor System.
type Filesystem struct {
	img           *storage.Image
	readOnly      bool
	firstScratch  int
	firstSAMBlock int
	versionString string
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	f := &Filesystem{img: img, readOnly: readOnly}
	dn, err := f.readDN(dnStart, 0, nil)
	if err != nil {
		img.Close()
		return nil, err
	}
	f.firstScratch = dn.firstScratch
	f.firstSAMBlock = dn.firstSAMBlock
	f.versionString = sixbitToAsc(uint16(dn.version))
	if strict {
		s, err := f.readSAM()
		if err != nil {
			img.Close()
			return nil, err
		}
		blocks := s.filesBlocks[reservedFileNumber]
		found := false
		for _, b := range blocks {
			if b == f.firstScratch {
				found = true
				break
			}
		}
		if !found {
			img.Close()
			return nil, errors.Wrap(fsapi.ErrIO, "scratch block not reserved in storage allocation map")
		}
	}
	return f, nil
}

// readWordBlock reads block n as 129 12-bit words; the whole image is
// offset by one leading word (skip the first 2 bytes of the file).
func (f *Filesystem) readWordBlock(n int) ([blockSizeWords]uint16, error) {
	var words [blockSizeWords]uint16
	raw := make([]byte, blockSizeWords*bytesPerWord)
	off := int64(n)*int64(blockSizeWords)*int64(bytesPerWord) + bytesPerWord
	if err := f.img.ReadAt(raw, off); err != nil {
		return words, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(raw[i*2:]) & 0o7777
	}
	return words, nil
}

func (f *Filesystem) writeWordBlock(n int, words [blockSizeWords]uint16) error {
	raw := make([]byte, blockSizeWords*bytesPerWord)
	for i, w := range words {
		binary.LittleEndian.PutUint16(raw[i*2:], w&0o7777)
	}
	off := int64(n)*int64(blockSizeWords)*int64(bytesPerWord) + bytesPerWord
	return errors.Wrap(f.img.WriteAt(raw, off), "writing DMS block")
}

// readDirectoryNames walks the DN chain starting at dnStart.
func (f *Filesystem) readDirectoryNames(s *sam) ([]*directoryName, error) {
	var out []*directoryName
	next, seq := dnStart, 0
	for next != 0 {
		dn, err := f.readDN(next, seq, s)
		if err != nil {
			return nil, err
		}
		out = append(out, dn)
		next = dn.nextDN
		seq++
	}
	return out, nil
}

func (f *Filesystem) allEntries() ([]*Entry, error) {
	s, err := f.readSAM()
	if err != nil {
		return nil, err
	}
	dns, err := f.readDirectoryNames(s)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, dn := range dns {
		for _, e := range dn.entries {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.allEntries()
	if err != nil {
		return nil, err
	}
	out := make([]fsapi.Entry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	entries, err := f.allEntries()
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		if !includeAll && e.FileNumber == reservedFileNumber {
			continue
		}
		if pattern != "" {
			ok, err := path.Match(strings.ToUpper(pattern), e.Name())
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	fn, err := parseFilename(fullname)
	if err != nil {
		return nil, err
	}
	entries, err := f.allEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Filename) == strings.TrimSpace(fn.Name) && e.ProgramType == fn.ProgramType {
			return e, nil
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	fe, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	e := fe.(*Entry)
	var data []byte
	for _, b := range e.blocks {
		words, err := f.readWordBlock(b)
		if err != nil {
			return nil, err
		}
		// The last word of the block is the link to the next block.
		data = append(data, encoding.Pack12WordsToBytes(words[:blockSizeWords-1], encoding.IMAGE)...)
	}
	if mode == int(encoding.ASCII) {
		words := encoding.Unpack12BytesToWords(data, encoding.IMAGE)
		return decodeASCII(words), nil
	}
	return data, nil
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, data []byte, creationDate string, fileType string, mode int) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	fn, err := parseFilename(fullname)
	if err != nil {
		return err
	}
	var words []uint16
	if fn.ProgramType == fileTypeASCII {
		if !strings.HasSuffix(string(data), "\x0c\x0c") {
			data = append(data, 0x0c, 0x0c)
		}
		words = encodeASCII(data)
	} else {
		words = encoding.Unpack12BytesToWords(data, encoding.IMAGE)
	}
	numBlocks := (len(words) + dataBlockWords - 1) / dataBlockWords
	if numBlocks == 0 {
		numBlocks = 1
	}
	entry, err := f.createFileEntry(fn, numBlocks)
	if err != nil {
		return err
	}
	for i, b := range entry.blocks {
		var block [blockSizeWords]uint16
		lo, hi := i*dataBlockWords, min((i+1)*dataBlockWords, len(words))
		if lo < hi {
			copy(block[:], words[lo:hi])
		}
		if i+1 < len(entry.blocks) {
			block[blockSizeWords-1] = uint16(entry.blocks[i+1])
		}
		if err := f.writeWordBlock(b, block); err != nil {
			return err
		}
	}
	return nil
}

// createFileEntry deletes any existing file of the same name, allocates
// numBlocks fresh blocks via the SAM, and writes a new directory entry.
func (f *Filesystem) createFileEntry(fn filename, numBlocks int) (*Entry, error) {
	if existing, err := f.GetFileEntry(fn.Name + "." + extensionFor(fn)); err == nil {
		if e, ok := existing.(*Entry); ok {
			if err := f.deleteEntry(e); err != nil {
				return nil, err
			}
		}
	}
	s, err := f.readSAM()
	if err != nil {
		return nil, err
	}
	fileNumber, err := s.allocateSpace(numBlocks)
	if err != nil {
		return nil, err
	}
	dns, err := f.readDirectoryNames(s)
	if err != nil {
		return nil, err
	}
	var target *directoryName
	for _, dn := range dns {
		if dn.firstFileNumber() <= fileNumber && fileNumber <= dn.lastFileNumber() {
			target = dn
			break
		}
	}
	if target == nil {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "no directory segment for allocated file number")
	}
	e := &Entry{
		fs:            f,
		Filename:      fn.Name,
		FileNumber:    fileNumber,
		ProgramType:   fn.ProgramType,
		SystemProgram: fn.SystemProgram,
		blocks:        s.filesBlocks[fileNumber],
	}
	target.entries[fileNumber] = e
	if err := f.writeDN(target); err != nil {
		return nil, err
	}
	if err := f.writeSAM(s); err != nil {
		return nil, err
	}
	return e, nil
}

func extensionFor(fn filename) string {
	switch fn.ProgramType {
	case fileTypeASCII:
		return extASCII
	case fileTypeBin:
		return extBINARY
	case fileTypeFTCBin:
		return extFTCBIN
	default:
		if fn.SystemProgram {
			return extSYS
		}
		return extUSER
	}
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	fn, err := parseFilename(fullname)
	if err != nil {
		return nil, err
	}
	if blocks < 1 {
		blocks = 1
	}
	entry, err := f.createFileEntry(fn, blocks)
	if err != nil {
		return nil, err
	}
	var empty [blockSizeWords]uint16
	for i, b := range entry.blocks {
		block := empty
		if i+1 < len(entry.blocks) {
			block[blockSizeWords-1] = uint16(entry.blocks[i+1])
		}
		if err := f.writeWordBlock(b, block); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// deleteEntry frees e's blocks in the SAM and clears its directory slot.
func (f *Filesystem) deleteEntry(e *Entry) error {
	if e.FileNumber == emptyFileNumber || e.FileNumber == reservedFileNumber {
		return errors.Wrap(fsapi.ErrInvalidArg, "cannot delete reserved file")
	}
	s, err := f.readSAM()
	if err != nil {
		return err
	}
	s.freeSpace(e.FileNumber)
	if err := f.writeSAM(s); err != nil {
		return err
	}
	dns, err := f.readDirectoryNames(nil)
	if err != nil {
		return err
	}
	for _, dn := range dns {
		if dn.firstFileNumber() <= e.FileNumber && e.FileNumber <= dn.lastFileNumber() {
			full, err := f.readDN(dn.blockNumber, dn.seq, s)
			if err != nil {
				return err
			}
			delete(full.entries, e.FileNumber)
			return f.writeDN(full)
		}
	}
	return nil
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(entry fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	e, ok := entry.(*Entry)
	if !ok {
		return errors.Wrap(fsapi.ErrInvalidArg, "not a DMS directory entry")
	}
	return f.deleteEntry(e)
}

// Chdir implements fs.Filesystem. DMS has a flat namespace.
func (f *Filesystem) Chdir(string) error {
	return errors.Wrap(fsapi.ErrInvalidArg, "DMS has no subdirectories")
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
	if !options.Brief {
		s, err := f.readSAM()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nFB=%04o\n\nNAME  TYPE    BLK\n\n%s\n", s.free(), f.versionString)
	}
	for _, fe := range entries {
		e := fe.(*Entry)
		if e.FileNumber == reservedFileNumber && !options.Full {
			continue
		}
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.Name())
			continue
		}
		if e.ProgramType == fileTypeSysUser {
			fmt.Fprintf(w, "%-4s.%s(%o) %04o\n", strings.TrimSpace(e.Filename), e.extension(), e.HighCoreAddr, e.Blocks())
		} else {
			fmt.Fprintf(w, "%-4s.%-7s %04o\n", strings.TrimSpace(e.Filename), e.extension(), e.Blocks())
		}
	}
	fmt.Fprintln(w)
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		entries, err := f.FilterEntriesList(arg, true, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Filename       Num  Low   Entry Core\n                    Core  Point Bank\n--------       ---  ----  ----- ----\n")
		for _, fe := range entries {
			e := fe.(*Entry)
			fmt.Fprintf(w, "%-14s #%02d  %04o  %04o  %o\n", e.Name(), e.FileNumber, e.LowCoreAddr, e.EntryPoint, e.HighCoreAddr)
		}
		return nil
	}
	dns, err := f.readDirectoryNames(nil)
	if err != nil {
		return err
	}
	for _, dn := range dns {
		fmt.Fprintf(w, "\n*Directory Name Block\nBlock number:          %5d\nFirst scratch block:   %5d\nVersion number:        %5d\nFirst SAM block:       %5d\nNext dir name:         %5d\n",
			dn.blockNumber, dn.firstScratch, dn.version, dn.firstSAMBlock, dn.nextDN)
	}
	return nil
}

// Initialize implements fs.Filesystem.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "volume mounted read-only")
	}
	scratchBlocks := []int{0o373, 0o374, 0o375, 0o376, 0o377}
	dnBlocks := []int{dnStart, dnStart + 2, dnStart + 3}
	samBlocks := []int{dnStart + 1}

	f.firstScratch = scratchBlocks[0]
	f.firstSAMBlock = samBlocks[0]
	f.versionString = "AF"

	// A freshly formatted image needs only the one SAM block the scratch,
	// DN and SAM blocks themselves fit in.
	s := &sam{filesBlocks: map[int][]int{}}
	s.blockNumbers = append(s.blockNumbers, samBlocks[0])
	s.owners = append(s.owners, [256]int{})
	s.nextLinks = append(s.nextLinks, 0)
	reserve := append(append(append([]int{}, scratchBlocks...), dnBlocks...), samBlocks...)
	for _, b := range reserve {
		s.setBlock(b, reservedFileNumber)
	}
	if err := f.writeSAM(s); err != nil {
		return err
	}

	for i, b := range dnBlocks {
		dn := &directoryName{blockNumber: b, seq: i, entries: map[int]*Entry{}}
		if i == 0 {
			dn.firstScratch = scratchBlocks[0]
			dn.firstSAMBlock = samBlocks[0]
			dn.version = int(ascToSixbit(f.versionString))
			dn.entries[reservedFileNumber] = &Entry{
				fs:            f,
				Filename:      monitorFilename,
				FileNumber:    reservedFileNumber,
				ProgramType:   fileTypeSysUser,
				SystemProgram: true,
				LowCoreAddr:   0o7000,
				EntryPoint:    0o7000,
			}
		}
		if i < len(dnBlocks)-1 {
			dn.nextDN = dnBlocks[i+1]
		}
		if err := f.writeDN(dn); err != nil {
			return err
		}
	}
	return f.writeSAM(s)
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string {
	return []string{extSYS, extUSER, extASCII, extBINARY, extFTCBIN}
}

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
