package tss8

import (
	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
)

// masterFileDirectory is TSS/8's top-level directory: one full track (16
// blocks, 4096 words) of linked 8-word PPN-account entries, matching
// MasterFileDirectory.
type masterFileDirectory struct {
	fs      *Filesystem
	words   []uint16
	entries []*mfdEntry
}

func readMFD(f *Filesystem) (*masterFileDirectory, error) {
	words, err := f.readWordsTrack(f.mfdBlock)
	if err != nil {
		return nil, err
	}
	m := &masterFileDirectory{fs: f, words: words}
	position := 0
	for {
		e := readMFDEntry(m, position)
		m.entries = append(m.entries, e)
		position = e.next
		if position == 0 {
			break
		}
	}
	return m, nil
}

func (m *masterFileDirectory) write() error { return m.fs.writeWordsTrack(m.fs.mfdBlock, m.words) }

// usedSlots are the 8-word positions occupied by an entry or a retrieval
// descriptor, matching AbstractFileDirectory.get_used_file_directory_blocks.
func (m *masterFileDirectory) usedSlots() map[int]bool {
	used := map[int]bool{}
	for _, e := range m.entries {
		used[e.position] = true
		if e.retrievalPointer != 0 {
			rp := e.retrievalPointer
			used[rp] = true
			for m.words[rp] != 0 {
				rp = int(m.words[rp])
				used[rp] = true
			}
		}
	}
	return used
}

func (m *masterFileDirectory) freeSlots() []int {
	used := m.usedSlots()
	var out []int
	for i := 0; i < len(m.words); i += entrySize {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}

func (m *masterFileDirectory) readFile(retrievalPointer int) ([]uint16, error) {
	return readFileOf(m.fs, m.words, retrievalPointer)
}

func (m *masterFileDirectory) writeFile(retrievalPointer int, words []uint16) error {
	return writeFileOf(m.fs, m.words, retrievalPointer, words)
}

func (m *masterFileDirectory) freeRetrieval(retrievalPointer int, bitmap *storageAllocationTable) {
	freeRetrievalOf(m.words, retrievalPointer, bitmap)
}

// createUFD allocates a new PPN account: one MFD entry plus one empty
// UFD block, matching MasterFileDirectory.create_ufd.
func (m *masterFileDirectory) createUFD(p ppn, password string) (*mfdEntry, error) {
	bitmap, err := readSAT(m.fs)
	if err != nil {
		return nil, err
	}
	free := m.freeSlots()
	if len(free) < 2 {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "master file directory full")
	}
	entry := &mfdEntry{mfd: m, position: free[0], ppn: p, password: password, retrievalPointer: free[1]}
	entry.updateDir()

	prev := m.entries[len(m.entries)-1]
	prev.next = entry.position
	prev.updateDir()

	block, err := bitmap.allocateOne()
	if err != nil {
		return nil, err
	}
	copy(m.words[entry.retrievalPointer:entry.retrievalPointer+entrySize], []uint16{0, uint16(block), 0, 0, 0, 0, 0, 0})
	if err := m.fs.writeWordsBlock(block-1+m.fs.mfdBlock, make([]uint16, wordsPerBlock)); err != nil {
		return nil, err
	}
	if err := m.write(); err != nil {
		return nil, err
	}
	if err := bitmap.write(); err != nil {
		return nil, err
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

// deleteUFD removes a PPN account's MFD entry and frees its UFD's
// retrieval chain, matching MasterFileDirectory.delete_ufd.
func (m *masterFileDirectory) deleteUFD(entry *mfdEntry) (bool, error) {
	words, err := m.fs.readWordsTrack(m.fs.mfdBlock)
	if err != nil {
		return false, err
	}
	m.words = words
	index := -1
	for i, e := range m.entries {
		if e == entry {
			index = i
			break
		}
	}
	if index <= 0 {
		return false, nil
	}
	prev := m.entries[index-1]
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	for i := 0; i < entrySize; i++ {
		m.words[entry.position+i] = 0
	}
	prev.next = entry.next
	copy(m.words[prev.position:prev.position+entrySize], prev.toWords())

	bitmap, err := readSAT(m.fs)
	if err != nil {
		return false, err
	}
	m.freeRetrieval(entry.retrievalPointer, bitmap)
	if err := bitmap.write(); err != nil {
		return false, err
	}
	if err := m.write(); err != nil {
		return false, err
	}
	return true, nil
}

// userFileDirectory is one PPN's file table: a pseudo-file addressed
// through its owning mfdEntry's retrieval chain, matching UserFileDirectory.
type userFileDirectory struct {
	fs       *Filesystem
	mfdEntry *mfdEntry
	ppn      ppn
	words    []uint16
	entries  []*ufdEntry
}

func readUFD(mfdEntry *mfdEntry) (*userFileDirectory, error) {
	words, err := mfdEntry.mfd.readFile(mfdEntry.retrievalPointer)
	if err != nil {
		return nil, err
	}
	u := &userFileDirectory{fs: mfdEntry.mfd.fs, mfdEntry: mfdEntry, ppn: mfdEntry.ppn, words: words}
	position := 0
	for {
		e := readUFDEntry(u, position)
		u.entries = append(u.entries, e)
		position = e.next
		if position == 0 {
			break
		}
	}
	return u, nil
}

func (u *userFileDirectory) write() error {
	return u.mfdEntry.mfd.writeFile(u.mfdEntry.retrievalPointer, u.words)
}

func (u *userFileDirectory) usedSlots() map[int]bool {
	used := map[int]bool{}
	for _, e := range u.entries {
		used[e.position] = true
		if e.retrievalPointer != 0 {
			rp := e.retrievalPointer
			used[rp] = true
			for u.words[rp] != 0 {
				rp = int(u.words[rp])
				used[rp] = true
			}
		}
	}
	return used
}

func (u *userFileDirectory) freeSlots() []int {
	used := u.usedSlots()
	var out []int
	for i := 0; i < len(u.words); i += entrySize {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}

// createFile allocates a new UFD entry plus its retrieval chain, matching
// UserFileDirectory.create_file.
func (u *userFileDirectory) createFile(basename string, numberOfBlocks int, protectionCode int, creationDate encoding.Date) (*ufdEntry, error) {
	free := u.freeSlots()
	if len(free) < 2 {
		return nil, errors.Wrap(fsapi.ErrNoSpace, "user file directory full")
	}
	name, ext, extIdx := prepareFilenameExtension(basename)
	entry := &ufdEntry{
		ufd: u, position: free[0], filename: name, extension: ext, extensionIdx: extIdx,
		protection: protectionCode, length: numberOfBlocks,
		rawCreationDate: encoding.DateToTSS8(creationDate), retrievalPointer: free[1],
	}
	entry.updateDir()

	prev := u.entries[len(u.entries)-1]
	prev.next = entry.position
	prev.updateDir()

	for i := 0; i < retrievalSize; i++ {
		u.words[entry.retrievalPointer+i] = 0
	}

	bitmap, err := readSAT(u.fs)
	if err != nil {
		return nil, err
	}
	if _, err := extendRetrievalOf(u.fs, u.words, entry.retrievalPointer, numberOfBlocks, bitmap, free[2:]); err != nil {
		return nil, err
	}
	if err := bitmap.write(); err != nil {
		return nil, err
	}
	u.entries = append(u.entries, entry)
	if err := u.write(); err != nil {
		return nil, err
	}
	return entry, nil
}

// delete removes entry from the directory and frees its blocks, matching
// UserFileDirectory.delete.
func (u *userFileDirectory) delete(entry *ufdEntry) (bool, error) {
	words, err := u.mfdEntry.mfd.readFile(u.mfdEntry.retrievalPointer)
	if err != nil {
		return false, err
	}
	u.words = words
	index := -1
	for i, e := range u.entries {
		if e == entry {
			index = i
			break
		}
	}
	if index <= 0 {
		return false, nil
	}
	prev := u.entries[index-1]
	u.entries = append(u.entries[:index], u.entries[index+1:]...)
	for i := 0; i < entrySize; i++ {
		u.words[entry.position+i] = 0
	}
	prev.next = entry.next
	copy(u.words[prev.position:prev.position+entrySize], prev.toWords())

	bitmap, err := readSAT(u.fs)
	if err != nil {
		return false, err
	}
	freeRetrievalOf(u.words, entry.retrievalPointer, bitmap)
	if err := bitmap.write(); err != nil {
		return false, err
	}
	if err := u.write(); err != nil {
		return false, err
	}
	return true, nil
}

// resize grows or shrinks entry's retrieval chain to numberOfBlocks,
// matching UserFileDirectory.resize.
func (u *userFileDirectory) resize(entry *ufdEntry, numberOfBlocks int) error {
	if numberOfBlocks < 0 {
		return errors.Wrap(fsapi.ErrInvalidArg, "negative size")
	}
	if numberOfBlocks == 0 {
		_, err := u.delete(entry)
		return err
	}
	entry.length = numberOfBlocks
	entry.updateDir()

	current := retrievalBlocksOf(u.fs, u.words, entry.retrievalPointer)
	bitmap, err := readSAT(u.fs)
	if err != nil {
		return err
	}
	switch {
	case numberOfBlocks < len(current):
		reduceRetrievalOf(u.words, entry.retrievalPointer, numberOfBlocks, bitmap)
	case numberOfBlocks > len(current):
		free := u.freeSlots()
		if _, err := extendRetrievalOf(u.fs, u.words, entry.retrievalPointer, numberOfBlocks-len(current), bitmap, free); err != nil {
			return err
		}
	}
	if err := bitmap.write(); err != nil {
		return err
	}
	return u.write()
}
