// Package solo implements the SOLO driver: P. Brinch Hansen's
// 1976 single-job operating system. Fixed 4800-block layout (kernel, SoloOS
// segment, OtherOS segment, free bitmap, catalog index) with a hash-bucket
// catalog: a file's 12-char name hashes to a catalog-page slot, each page
// holding 16 32-byte directory entries, and each entry pointing at its own
// sparse page-map block (a length-prefixed list of disk block numbers, at
// most 255 of them per file).
package solo

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/bitmap"
	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const (
	blockSize     = 512
	diskSize      = 4800
	idLength      = 12
	entrySize     = 32
	catPageLength = blockSize / entrySize // 16 entries per catalog page
	groupLength   = 120                   // blocks per bitmap group (24 * 5)

	kernelLength  = 24
	segmentLength = 64
	freeListLen   = 2

	kernelAddr   = 0
	soloOSAddr   = kernelAddr + kernelLength   // 24
	otherOSAddr  = soloOSAddr + segmentLength  // 88
	freeListAddr = otherOSAddr + segmentLength // 152
	catAddr      = freeListAddr + freeListLen  // 154

	maxFileSize = 255 // blocks, per page map

	fileTypeEmpty   = 0
	fileTypeScratch = 1
	fileTypeASCII   = 2
	fileTypeSeqCode = 3
	fileTypeConCode = 4
	fileTypeSegment = -1
)

var fileTypeNames = map[int]string{
	fileTypeEmpty:   "EMPTY",
	fileTypeScratch: "SCRATCH",
	fileTypeASCII:   "ASCII",
	fileTypeSeqCode: "SEQCODE",
	fileTypeConCode: "CONCODE",
	fileTypeSegment: "SEGMENT",
}

// segments are the three fixed, contiguous pseudo-files of a SOLO volume's
// on-disk layout.
var segments = []struct {
	name string
	addr int64
	size int64
}{
	{"@KERNEL", kernelAddr, kernelLength},
	{"@SOLO", soloOSAddr, segmentLength},
	{"@OTHEROS", otherOSAddr, segmentLength},
}

func init() {
	fsapi.Register("solo", mount)
}

func fileTypeID(name string) int {
	if name == "" {
		return fileTypeASCII
	}
	name = strings.ToUpper(name)
	for id, n := range fileTypeNames {
		if n == name {
			return id
		}
	}
	return fileTypeASCII
}

// filenameHash computes the catalog hash of a 12-char SOLO filename: a
// running multiplicative hash over each non-space character's uppercase
// ordinal, mod catalogLength*16.
func filenameHash(filename string, catalogLength int) int {
	key := 1
	for i, c := range strings.ToUpper(filename) {
		if i >= idLength {
			break
		}
		if c != ' ' {
			key = key*int(c)%(catalogLength*catPageLength) + 1
		}
	}
	return key
}

func canonicalFilename(fullname string) string {
	fullname = strings.ToUpper(strings.TrimSpace(fullname))
	if len(fullname) > idLength {
		fullname = fullname[:idLength]
	}
	return fullname
}

// Entry is one SOLO catalog directory entry, or one of the three fixed
// segment pseudo-entries.
type Entry struct {
	Filename           string
	FileTypeID         int
	PageMapBlockNumber int
	IsProtected        bool
	HashKey            int
	SearchLength       int
	PageMap            []int

	isSegment   bool
	segmentAddr int64
	segmentSize int64

	catPageBlock int
	posInPage    int
}

// Name implements fs.Entry.
func (e *Entry) Name() string { return e.Filename }

// Length implements fs.Entry.
func (e *Entry) Length() int64 {
	if e.isSegment {
		return e.segmentSize * blockSize
	}
	return int64(len(e.PageMap)) * blockSize
}

// Blocks implements fs.Entry.
func (e *Entry) Blocks() int {
	if e.isSegment {
		return int(e.segmentSize)
	}
	return len(e.PageMap)
}

// CreationDate implements fs.Entry. SOLO entries carry no creation date.
func (e *Entry) CreationDate() (encoding.Date, bool) { return encoding.Date{}, false }

// Protected implements fs.Entry.
func (e *Entry) Protected() bool { return e.IsProtected || e.isSegment }

// FileType implements fs.Entry.
func (e *Entry) FileType() string {
	if e.isSegment {
		return "SEGMENT"
	}
	return fileTypeNames[e.FileTypeID]
}

// IsDir implements fs.Entry. SOLO has no subdirectories.
func (e *Entry) IsDir() bool { return false }

func (e *Entry) isEmpty() bool { return !e.isSegment && e.Filename == "" }

func readEntry(buf []byte, pos int) *Entry {
	e := &Entry{}
	e.Filename = strings.TrimRight(string(buf[pos:pos+idLength]), " \x00")
	e.FileTypeID = int(int16(be16(buf, pos+12)))
	e.PageMapBlockNumber = int(be16(buf, pos+14))
	e.IsProtected = be16(buf, pos+16) != 0
	e.HashKey = int(be16(buf, pos+28))
	e.SearchLength = int(be16(buf, pos+30))
	return e
}

func (e *Entry) writeTo(buf []byte, pos int) {
	name := e.Filename
	if len(name) > idLength {
		name = name[:idLength]
	}
	copy(buf[pos:pos+idLength], []byte(name))
	for i := len(name); i < idLength; i++ {
		buf[pos+i] = ' '
	}
	putWord(buf, pos+12, uint16(int16(e.FileTypeID)))
	putWord(buf, pos+14, uint16(e.PageMapBlockNumber))
	prot := uint16(0)
	if e.IsProtected {
		prot = 1
	}
	putWord(buf, pos+16, prot)
	// bytes 18..28 spare, left zero
	putWord(buf, pos+28, uint16(e.HashKey))
	putWord(buf, pos+30, uint16(e.SearchLength))
}

func be16(b []byte, pos int) uint16 { return uint16(b[pos]) | uint16(b[pos+1])<<8 }
func putWord(b []byte, pos int, v uint16) {
	b[pos] = byte(v)
	b[pos+1] = byte(v >> 8)
}

// catalogPage is one 512-byte block of 16 directory entries.
type catalogPage struct {
	blockNumber int
	entries     []*Entry
}

func (f *Filesystem) readCatalogPage(blockNumber int) (*catalogPage, error) {
	buf, err := f.dev.ReadBlock(int64(blockNumber))
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	page := &catalogPage{blockNumber: blockNumber}
	for i := 0; i < catPageLength; i++ {
		e := readEntry(buf, i*entrySize)
		e.catPageBlock = blockNumber
		e.posInPage = i
		page.entries = append(page.entries, e)
	}
	return page, nil
}

func (f *Filesystem) writeCatalogPage(page *catalogPage) error {
	buf := make([]byte, blockSize)
	for i, e := range page.entries {
		e.writeTo(buf, i*entrySize)
	}
	return f.dev.WriteBlock(int64(page.blockNumber), buf)
}

// Filesystem is the SOLO driver.
type Filesystem struct {
	img           *storage.Image
	dev           *block.Device
	catalogLength int
	readOnly      bool
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting SOLO volume")
	}
	f := &Filesystem{img: img, dev: block.New(img), readOnly: readOnly}
	buf, err := f.dev.ReadBlock(catAddr)
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	f.catalogLength = int(be16(buf, 0))
	if strict && f.catalogLength != 15 {
		return nil, errors.Wrap(fsapi.ErrIO, "invalid SOLO catalog length")
	}
	return f, nil
}

// readPageMap reads a 256-word page map: a length-prefixed sparse list of
// block numbers (at most 255 entries).
func (f *Filesystem) readPageMap(blockNumber int) ([]int, error) {
	buf, err := f.dev.ReadBlock(int64(blockNumber))
	if err != nil {
		return nil, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	length := int(be16(buf, 0))
	out := make([]int, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, int(be16(buf, 2+i*2)))
	}
	return out, nil
}

func (f *Filesystem) writePageMap(blockNumber int, pageMap []int) error {
	if len(pageMap) > maxFileSize {
		return errors.Wrap(fsapi.ErrNoSpace, "page map exceeds max file size")
	}
	buf := make([]byte, blockSize)
	putWord(buf, 0, uint16(len(pageMap)))
	for i, b := range pageMap {
		putWord(buf, 2+i*2, uint16(b))
	}
	return f.dev.WriteBlock(int64(blockNumber), buf)
}

func (f *Filesystem) catalogPages() ([]int, error) {
	return f.readPageMap(catAddr)
}

// entriesList walks the full catalog, yielding only occupied entries.
func (f *Filesystem) entriesList() ([]*Entry, error) {
	pages, err := f.catalogPages()
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, blk := range pages {
		page, err := f.readCatalogPage(blk)
		if err != nil {
			return nil, err
		}
		for _, e := range page.entries {
			if !e.isEmpty() {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func segmentEntry(i int) *Entry {
	s := segments[i]
	return &Entry{Filename: s.name, isSegment: true, segmentAddr: s.addr, segmentSize: s.size}
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.entriesList()
	if err != nil {
		return nil, err
	}
	out := make([]fsapi.Entry, 0, len(entries)+len(segments))
	for i := range segments {
		out = append(out, segmentEntry(i))
	}
	for _, e := range entries {
		out = append(out, e)
	}
	return out, nil
}

func nameMatches(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	pattern = strings.ToUpper(pattern)
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == name
	}
	ok, err := matchGlob(pattern, name)
	return err == nil && ok
}

// matchGlob is a small SOLO-flavoured glob matcher: '*' matches any run,
// '?' matches one character. path.Match rejects patterns with no
// extension separator oddities SOLO names don't have, so a bespoke
// matcher avoids surprises on bare 12-char identifiers.
func matchGlob(pattern, name string) (bool, error) {
	return globMatch([]rune(pattern), []rune(name)), nil
}

func globMatch(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatch(pattern[1:], name) {
			return true
		}
		if len(name) > 0 {
			return globMatch(pattern, name[1:])
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return globMatch(pattern[1:], name[1:])
	default:
		if len(name) == 0 || pattern[0] != name[0] {
			return false
		}
		return globMatch(pattern[1:], name[1:])
	}
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	fileType := ""
	if i := strings.IndexByte(pattern, ';'); i >= 0 {
		fileType = pattern[i+1:]
		pattern = pattern[:i]
	}
	pattern = canonicalFilename(pattern)
	var typeFilter = -2 // no filter sentinel distinct from fileTypeSegment(-1)
	if fileType != "" {
		typeFilter = fileTypeID(fileType)
	}

	var out []fsapi.Entry
	if includeAll || typeFilter == fileTypeSegment {
		for i := range segments {
			se := segmentEntry(i)
			if nameMatches(pattern, se.Filename) && (typeFilter == -2 || typeFilter == fileTypeSegment) {
				out = append(out, se)
			}
		}
	}
	entries, err := f.entriesList()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !nameMatches(pattern, e.Filename) {
			continue
		}
		if typeFilter != -2 && typeFilter != e.FileTypeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *Filesystem) segmentByName(fullname string) (*Entry, bool) {
	fullname = strings.ToUpper(fullname)
	for i, s := range segments {
		if s.name == fullname {
			return segmentEntry(i), true
		}
	}
	return nil, false
}

func (f *Filesystem) getFirstEntryForHash(hashKey int) (*Entry, *catalogPage, error) {
	pageNum := (hashKey-1)/catPageLength + 1
	pages, err := f.catalogPages()
	if err != nil {
		return nil, nil, err
	}
	if pageNum < 1 || pageNum > len(pages) {
		return nil, nil, nil
	}
	page, err := f.readCatalogPage(pages[pageNum-1])
	if err != nil {
		return nil, nil, err
	}
	for _, e := range page.entries {
		if e.HashKey == hashKey {
			return e, page, nil
		}
	}
	return nil, page, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	name := canonicalFilename(fullname)
	if se, ok := f.segmentByName(name); ok {
		return se, nil
	}
	hashKey := filenameHash(name, f.catalogLength)
	entry, page, err := f.getFirstEntryForHash(hashKey)
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.Filename == name {
		return f.loadPageMap(entry)
	}
	if page != nil {
		for _, e := range page.entries {
			if e.Filename == name {
				return f.loadPageMap(e)
			}
		}
	}
	entries, err := f.entriesList()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Filename == name {
			return f.loadPageMap(e)
		}
	}
	return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
}

func (f *Filesystem) loadPageMap(e *Entry) (*Entry, error) {
	pm, err := f.readPageMap(e.PageMapBlockNumber)
	if err != nil {
		return nil, err
	}
	e.PageMap = pm
	return e, nil
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	fe, err := f.GetFileEntry(fullname)
	if err != nil {
		return nil, err
	}
	e := fe.(*Entry)
	if e.isSegment {
		return f.dev.ReadBlocks(e.segmentAddr, e.segmentSize)
	}
	var out []byte
	for _, blk := range e.PageMap {
		b, err := f.dev.ReadBlock(int64(blk))
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		out = append(out, b...)
	}
	return out, nil
}

func (f *Filesystem) bitmap() (*bitmap.FreeMap, error) {
	raw := make([]byte, 0, freeListLen*blockSize)
	for blk := freeListAddr; blk < freeListAddr+freeListLen; blk++ {
		b, err := f.dev.ReadBlock(int64(blk))
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		raw = append(raw, b...)
	}
	// Each 15-byte(+1 pad) group covers 120 blocks in MSB-first order, the
	// opposite bit sense of bitmap.FreeMap (set==free here too, but
	// byte/bit order is big-endian-within-group); unpack into a plain
	// []bool-backed FreeMap for straightforward indexing.
	fm := bitmap.NewFreeMap(diskSize)
	const groupBytes = groupLength / 8 // 15
	const groupStride = groupBytes + 1 // 16, with 1 pad byte
	for g := 0; g*groupLength < diskSize; g++ {
		base := g * groupStride
		for bit := 0; bit < groupLength; bit++ {
			blockNum := g*groupLength + bit
			if blockNum >= diskSize {
				break
			}
			byteIdx := base + bit/8
			if byteIdx >= len(raw) {
				continue
			}
			bitIdx := 7 - (bit % 8)
			if raw[byteIdx]&(1<<bitIdx) != 0 {
				fm.MarkFree(blockNum)
			} else {
				fm.MarkUsed(blockNum)
			}
		}
	}
	return fm, nil
}

func (f *Filesystem) writeBitmap(fm *bitmap.FreeMap) error {
	const groupBytes = groupLength / 8
	const groupStride = groupBytes + 1
	raw := make([]byte, freeListLen*blockSize)
	for g := 0; g*groupLength < diskSize; g++ {
		base := g * groupStride
		for bit := 0; bit < groupLength; bit++ {
			blockNum := g*groupLength + bit
			if blockNum >= diskSize {
				break
			}
			if fm.IsFree(blockNum) {
				byteIdx := base + bit/8
				bitIdx := 7 - (bit % 8)
				raw[byteIdx] |= 1 << bitIdx
			}
		}
	}
	for i := 0; i < freeListLen; i++ {
		if err := f.dev.WriteBlock(int64(freeListAddr+i), raw[i*blockSize:(i+1)*blockSize]); err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	return nil
}

// WriteBytes implements fs.Filesystem: replaces the named file's content,
// allocating a fresh page map and catalog slot.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "write_bytes")
	}
	numBlocks := (len(content) + blockSize - 1) / blockSize
	entry, err := f.createFile(fullname, numBlocks, fileType)
	if err != nil {
		return err
	}
	if entry.isSegment {
		return f.dev.WriteBlocks(entry.segmentAddr, padTo(content, int(entry.segmentSize)*blockSize))
	}
	for i, blk := range entry.PageMap {
		start := i * blockSize
		end := start + blockSize
		var chunk []byte
		if start < len(content) {
			if end > len(content) {
				end = len(content)
			}
			chunk = make([]byte, blockSize)
			copy(chunk, content[start:end])
		} else {
			chunk = make([]byte, blockSize)
		}
		if err := f.dev.WriteBlock(int64(blk), chunk); err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	return nil
}

func padTo(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(fullname string, length int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrap(fsapi.ErrReadOnly, "create_file")
	}
	return f.createFile(fullname, length, fileType)
}

func (f *Filesystem) createFile(fullname string, numBlocks int, fileType string) (*Entry, error) {
	if numBlocks > maxFileSize {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "file too large for a SOLO page map")
	}
	name := canonicalFilename(fullname)
	if se, ok := f.segmentByName(name); ok {
		return se, nil
	}
	if existing, err := f.GetFileEntry(name); err == nil {
		if e, ok := existing.(*Entry); ok {
			if derr := f.deleteEntry(e); derr != nil {
				return nil, derr
			}
		}
	}

	fm, err := f.bitmap()
	if err != nil {
		return nil, err
	}
	blocks, ok := fm.FindFreeBlocks(numBlocks + 1)
	if !ok {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "no free blocks")
	}
	for _, b := range blocks {
		fm.MarkUsed(b)
	}
	pageMapBlock := blocks[0]
	fileBlocks := blocks[1:]
	if err := f.writePageMap(pageMapBlock, fileBlocks); err != nil {
		return nil, err
	}

	hashKey := filenameHash(name, f.catalogLength)
	pages, err := f.catalogPages()
	if err != nil {
		return nil, err
	}
	pageNum := (hashKey-1)/catPageLength + 1
	if pageNum < 1 || pageNum > len(pages) {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "hash key out of catalog range")
	}
	page, err := f.readCatalogPage(pages[pageNum-1])
	if err != nil {
		return nil, err
	}
	newEntry := insertCatalogEntry(page, name, fileTypeID(fileType), pageMapBlock, fileBlocks, hashKey, true)
	if newEntry == nil {
		// Fall back to scanning every page for a free slot.
		for _, blk := range pages {
			p, err := f.readCatalogPage(blk)
			if err != nil {
				return nil, err
			}
			newEntry = insertCatalogEntry(p, name, fileTypeID(fileType), pageMapBlock, fileBlocks, hashKey, false)
			if newEntry != nil {
				page = p
				break
			}
		}
	}
	if newEntry == nil {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "catalog full")
	}
	if err := f.writeCatalogPage(page); err != nil {
		return nil, err
	}
	if err := f.writeBitmap(fm); err != nil {
		return nil, err
	}
	return newEntry, nil
}

// insertCatalogEntry places a new entry into the first empty slot at or
// after the hash bucket position (useHashStart), falling back to a plain
// linear scan from the start of the page otherwise. hashKey is always
// stored as the entry's catalog key regardless of where it lands.
func insertCatalogEntry(page *catalogPage, filename string, typeID int, pageMapBlock int, pageMap []int, hashKey int, useHashStart bool) *Entry {
	start := 0
	if useHashStart {
		start = (hashKey - 1) % catPageLength
	}
	for i := start; i < len(page.entries); i++ {
		if page.entries[i].isEmpty() {
			searchLength := page.entries[i].SearchLength
			page.entries[i] = &Entry{
				Filename:           filename,
				FileTypeID:         typeID,
				PageMapBlockNumber: pageMapBlock,
				HashKey:            hashKey,
				SearchLength:       searchLength,
				PageMap:            pageMap,
				catPageBlock:       page.blockNumber,
				posInPage:          i,
			}
			return page.entries[i]
		}
	}
	return nil
}

func (f *Filesystem) deleteEntry(e *Entry) error {
	fm, err := f.bitmap()
	if err != nil {
		return err
	}
	pm, err := f.readPageMap(e.PageMapBlockNumber)
	if err != nil {
		return err
	}
	for _, b := range pm {
		fm.MarkFree(b)
	}
	fm.MarkFree(e.PageMapBlockNumber)
	if err := f.writeBitmap(fm); err != nil {
		return err
	}
	page, err := f.readCatalogPage(e.catPageBlock)
	if err != nil {
		return err
	}
	for _, pe := range page.entries {
		if pe.posInPage == e.posInPage {
			pe.Filename = ""
			pe.FileTypeID = fileTypeEmpty
			pe.IsProtected = false
			pe.HashKey = 0
			pe.PageMapBlockNumber = 0
			pe.PageMap = nil
		}
	}
	return f.writeCatalogPage(page)
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(entry fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "delete")
	}
	e, ok := entry.(*Entry)
	if !ok || e.isSegment {
		return errors.Wrap(fsapi.ErrInvalidArg, "cannot delete a SOLO segment")
	}
	return f.deleteEntry(e)
}

// Chdir implements fs.Filesystem. SOLO has a flat namespace.
func (f *Filesystem) Chdir(string) error { return errors.Wrap(fsapi.ErrInvalidArg, "chdir") }

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
	entries, err := f.FilterEntriesList(pattern, options.Full, true)
	if err != nil {
		return err
	}
	if !options.Brief {
		fmt.Fprintf(w, "SOLO SYSTEM FILES\n\n")
	}
	var files, blocks int
	for _, fe := range entries {
		e := fe.(*Entry)
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.Filename)
		} else {
			prot := "UNPROTECTED"
			if e.Protected() {
				prot = "PROTECTED"
			}
			fmt.Fprintf(w, "%-12s %-12s %-12s %6d PAGES\n", e.Filename, e.FileType(), prot, e.Blocks())
		}
		blocks += e.Blocks()
		files++
	}
	if options.Brief {
		return nil
	}
	fmt.Fprintf(w, "%5d ENTRIES\n%5d PAGES\n", files, blocks)
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if options.Bitmap {
		fm, err := f.bitmap()
		if err != nil {
			return err
		}
		for i := 0; i < diskSize; i++ {
			mark := "[X]"
			if fm.IsFree(i) {
				mark = "[ ]"
			}
			fmt.Fprintf(w, "%4d %s  ", i, mark)
			if i%16 == 15 {
				fmt.Fprintln(w)
			}
		}
		return nil
	}
	if arg != "" {
		return f.dump(w, arg)
	}
	for i := range segments {
		se := segmentEntry(i)
		fmt.Fprintf(w, " -  %s  blocks=%d..%d\n", se.Filename, se.segmentAddr, se.segmentAddr+se.segmentSize-1)
	}
	pages, err := f.catalogPages()
	if err != nil {
		return err
	}
	t := 1
	for pageNum, blk := range pages {
		page, err := f.readCatalogPage(blk)
		if err != nil {
			return err
		}
		for _, e := range page.entries {
			fmt.Fprintf(w, "%3d %2d# %-12s type=%-8s key=%-4d search=%-4d\n",
				t, pageNum+1, e.Filename, fileTypeNames[e.FileTypeID], e.HashKey, e.SearchLength)
			t++
		}
	}
	return nil
}

func (f *Filesystem) dump(w io.Writer, fullname string) error {
	data, err := f.ReadBytes(fullname, 0)
	if err != nil {
		return err
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

// Initialize implements fs.Filesystem: zeroes the disk, marks the
// kernel/OS/bitmap/catalog-index region used, and writes an empty catalog.
func (f *Filesystem) Initialize(options fsapi.InitOptions) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "initialize")
	}
	empty := make([]byte, blockSize)
	for blk := 0; blk < diskSize; blk++ {
		if err := f.dev.WriteBlock(int64(blk), empty); err != nil {
			return errors.Wrap(fsapi.ErrIO, err.Error())
		}
	}
	fm := bitmap.NewFreeMap(diskSize)
	for i := 0; i <= catAddr; i++ {
		fm.MarkUsed(i)
	}
	f.catalogLength = 15
	catalogPages := make([]int, f.catalogLength)
	nextBlock := catAddr + 1
	for i := range catalogPages {
		catalogPages[i] = nextBlock
		fm.MarkUsed(nextBlock)
		nextBlock++
	}
	for i := nextBlock; i < diskSize; i++ {
		fm.MarkFree(i)
	}
	if err := f.writePageMap(catAddr, catalogPages); err != nil {
		return err
	}
	for _, blk := range catalogPages {
		page := &catalogPage{blockNumber: blk}
		page.entries = make([]*Entry, catPageLength)
		for i := range page.entries {
			page.entries[i] = &Entry{}
		}
		if err := f.writeCatalogPage(page); err != nil {
			return err
		}
	}
	return f.writeBitmap(fm)
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string {
	return []string{"SCRATCH", "ASCII", "SEQCODE", "CONCODE"}
}

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
