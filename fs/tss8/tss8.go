// Package tss8 implements the PDP-8 TSS/8 time-sharing filesystem driver
//: a two-level Master/User File Directory namespace keyed
// by [group,user] Project-Programmer Numbers, sparse block allocation via a
// bit-per-block Storage Allocation Table in the FIP track, and linked
// 8-word retrieval-block descriptors in place of RT-11/OS-8's contiguous
// directory segments.
package tss8

import (
	"fmt"
	"math"
	"path"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/wordblock"
)

func init() {
	fsapi.Register("tss8", mount)
}

// Filesystem is the TSS/8 driver.
type Filesystem struct {
	img      *storage.Image
	wb       *wordblock.Device
	readOnly bool

	users    int
	mfdBlock int
	ppn      ppn
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting TSS/8 volume")
	}
	f := &Filesystem{img: img, wb: wordblock.New(block.New(img)), readOnly: readOnly, ppn: defaultPPN}
	users, mfdBlock, err := f.guessUsers()
	if err != nil {
		if strict {
			img.Close()
			return nil, errors.Wrap(fsapi.ErrIO, "not a TSS/8 volume")
		}
		// Fall back to the conventional 20-user layout tss8fs.py's mount
		// leaves commented out as its non-guessing alternative.
		users, mfdBlock = 20, monitorSize+blocksPerTrack*20
	}
	f.users = users
	f.mfdBlock = mfdBlock
	return f, nil
}

// guessUsers probes candidate MFD locations (one per plausible user count)
// for the dummy first UFD block's known-zero fingerprint, matching
// TSS8Filesystem.guess_users.
func (f *Filesystem) guessUsers() (int, int, error) {
	for users := 8; users < 32; users++ {
		blockNumber := monitorSize + blocksPerTrack*users
		words, err := f.readWordsBlock(blockNumber)
		if err != nil {
			return 0, 0, err
		}
		if words[ufdNextPos] != 0o10 {
			continue
		}
		if words[entrySize+ufdExtProtectionPos]&0o7700 != 0 {
			continue
		}
		if words[entrySize+ufdRetrievalPointerPos] != 0o20 {
			continue
		}
		if words[entrySize+entrySize] != 0 {
			continue
		}
		return users, blockNumber, nil
	}
	return 0, 0, errors.Wrap(fsapi.ErrIO, "no valid master file directory found")
}

func (f *Filesystem) readWordsBlock(blockNumber int) ([]uint16, error) {
	w, err := f.wb.Read12(int64(blockNumber))
	if err != nil {
		return nil, err
	}
	out := make([]uint16, wordsPerBlock)
	copy(out, w[:])
	return out, nil
}

func (f *Filesystem) writeWordsBlock(blockNumber int, words []uint16) error {
	var arr [wordsPerBlock]uint16
	copy(arr[:], words)
	return f.wb.Write12(int64(blockNumber), arr)
}

func (f *Filesystem) readWordsTrack(firstBlock int) ([]uint16, error) {
	out := make([]uint16, 0, blocksPerTrack*wordsPerBlock)
	for i := 0; i < blocksPerTrack; i++ {
		w, err := f.readWordsBlock(firstBlock + i)
		if err != nil {
			return nil, err
		}
		out = append(out, w...)
	}
	return out, nil
}

func (f *Filesystem) writeWordsTrack(firstBlock int, words []uint16) error {
	for i := 0; i < blocksPerTrack; i++ {
		lo := i * wordsPerBlock
		chunk := make([]uint16, wordsPerBlock)
		if lo < len(words) {
			hi := lo + wordsPerBlock
			if hi > len(words) {
				hi = len(words)
			}
			copy(chunk, words[lo:hi])
		}
		if err := f.writeWordsBlock(firstBlock+i, chunk); err != nil {
			return err
		}
	}
	return nil
}

// readMFDEntries lists every non-dummy MFD entry whose PPN matches pattern,
// matching TSS8Filesystem.read_mfd_entries.
func (f *Filesystem) readMFDEntries(pattern ppn) ([]*mfdEntry, error) {
	mfd, err := readMFD(f)
	if err != nil {
		return nil, err
	}
	var out []*mfdEntry
	for _, e := range mfd.entries {
		if !e.isDummy() && e.ppn.matches(pattern) {
			out = append(out, e)
		}
	}
	return out, nil
}

// findInPPN resolves basename inside the PPN account p, matching
// TSS8Filesystem.get_file_entry's non-wildcard lookup.
func (f *Filesystem) findInPPN(p ppn, basename string) (*ufdEntry, error) {
	mfdEntries, err := f.readMFDEntries(p)
	if err != nil {
		return nil, err
	}
	for _, me := range mfdEntries {
		ufd, err := readUFD(me)
		if err != nil {
			return nil, err
		}
		for _, e := range ufd.entries {
			if !e.isDummy() && e.basename() == basename {
				return e, nil
			}
		}
	}
	return nil, fsapi.ErrNotFound
}

func (f *Filesystem) getUFDEntry(fullname string) (*ufdEntry, error) {
	name := canonicalFilename(fullname, false)
	if name == "" {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	p, basename := splitFullname(f.ppn, name, false)
	e, err := f.findInPPN(p, basename)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", fullname)
	}
	return e, nil
}

// EntriesList implements fs.Filesystem: every file in the current PPN.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	mfdEntries, err := f.readMFDEntries(f.ppn)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, me := range mfdEntries {
		ufd, err := readUFD(me)
		if err != nil {
			return nil, err
		}
		for _, e := range ufd.entries {
			if !e.isDummy() {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem. A "[g,u]" prefix in pattern
// selects a different PPN account than the current one; the system account
// ([0,1])'s files are hidden from a bare listing unless includeAll is set,
// matching TSS8Filesystem.filter_entries_list.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	p, namePattern := splitFullname(f.ppn, pattern, wildcard)
	mfdEntries, err := f.readMFDEntries(p)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, me := range mfdEntries {
		if p.equals(mfdPPN) && !includeAll {
			continue
		}
		ufd, err := readUFD(me)
		if err != nil {
			return nil, err
		}
		for _, e := range ufd.entries {
			if e.isDummy() {
				continue
			}
			if namePattern != "" {
				ok, err := path.Match(namePattern, e.basename())
				if err != nil || !ok {
					continue
				}
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	return f.getUFDEntry(fullname)
}

// ReadBytes implements fs.Filesystem. mode, when non-zero (encoding.IMAGE),
// forces an IMAGE-mode byte view; otherwise the entry's extension selects
// ASCII or IMAGE, matching TSS8File.read_block.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	e, err := f.getUFDEntry(fullname)
	if err != nil {
		return nil, err
	}
	fm := e.fileMode()
	if mode == int(encoding.IMAGE) {
		fm = encoding.IMAGE
	}
	var out []byte
	for _, block := range e.blocks() {
		words, err := f.readWordsBlock(block)
		if err != nil {
			return nil, err
		}
		out = append(out, wordsToBytes(words, fm)...)
	}
	return out, nil
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	numBlocks := int(math.Ceil(float64(len(content)) / tss8BlockSizeBytes))
	e, err := f.CreateFile(fullname, numBlocks, creationDate, fileType)
	if err != nil {
		return err
	}
	entry := e.(*ufdEntry)
	fm := entry.fileMode()
	if mode == int(encoding.IMAGE) {
		fm = encoding.IMAGE
	}
	padded := make([]byte, entry.length*tss8BlockSizeBytes)
	copy(padded, content)
	words := bytesToWords(padded, fm)
	for i, block := range entry.blocks() {
		chunk := make([]uint16, wordsPerBlock)
		lo := i * wordsPerBlock
		if lo < len(words) {
			hi := lo + wordsPerBlock
			if hi > len(words) {
				hi = len(words)
			}
			copy(chunk, words[lo:hi])
		}
		if err := f.writeWordsBlock(block, chunk); err != nil {
			return err
		}
	}
	return nil
}

// CreateFile implements fs.Filesystem: resizes an existing file in place,
// or allocates a new one in the target PPN's UFD, matching
// TSS8Filesystem.create_file.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrapf(fsapi.ErrReadOnly, "create %s", fullname)
	}
	name := canonicalFilename(fullname, false)
	p, basename := splitFullname(f.ppn, name, false)
	if existing, err := f.findInPPN(p, basename); err == nil {
		if err := existing.ufd.resize(existing, blocks); err != nil {
			return nil, err
		}
		return existing, nil
	}

	mfdEntries, err := f.readMFDEntries(p)
	if err != nil {
		return nil, err
	}
	if len(mfdEntries) == 0 {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "no such PPN %s", p)
	}
	ufd, err := readUFD(mfdEntries[0])
	if err != nil {
		return nil, err
	}
	var date encoding.Date
	if creationDate != "" {
		if d, ok := parseDate(creationDate); ok {
			date = d
		}
	}
	return ufd.createFile(basename, blocks, defaultProtectionCode, date)
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(e fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "delete")
	}
	entry, ok := e.(*ufdEntry)
	if !ok {
		return errors.Wrap(fsapi.ErrInvalidArg, "not a TSS/8 entry")
	}
	_, err := entry.ufd.delete(entry)
	return err
}

// Chdir implements fs.Filesystem: switches the current PPN, e.g.
// Chdir("[1,2]").
func (f *Filesystem) Chdir(fullname string) error {
	p, err := parsePPN(fullname)
	if err != nil {
		return errors.Wrap(fsapi.ErrInvalidArg, "not a PPN")
	}
	f.ppn = p
	return nil
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return f.ppn.String() }

// IsDir implements fs.Filesystem. TSS/8 has no subdirectories below a PPN.
func (f *Filesystem) IsDir(string) bool { return false }

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	_, err := f.getUFDEntry(fullname)
	return err == nil
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string {
	var out []string
	for _, e := range extensions {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }

func parseDate(s string) (encoding.Date, bool) {
	var y, m, d int
	if n, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil || n != 3 {
		return encoding.Date{}, false
	}
	return encoding.Date{Year: y, Month: m, Day: d}, true
}
