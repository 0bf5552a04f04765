// Package unixv0 implements the "unixv0" driver: the
// original PDP-7 UNIX filesystem. Unlike v1/v6/v7, v0 packs data as 18-bit
// words (4 on-disk bytes per word, one byte per 6-bit nibble) rather than
// 512-byte byte-addressed blocks, so it is not a unixcommon variant but its
// own small read-only driver.
package unixv0

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const (
	bytesPerWord    = 4
	wordsPerBlock   = 64
	blockSize       = bytesPerWord * wordsPerBlock
	blocksPerSurface = 8000
	firstInodeBlock = 2
	inodeSize       = 12 // words
	inodesPerBlock  = wordsPerBlock / inodeSize
	direntSize      = 8 // words

	flagsPos = 0
	addrPos  = 1
	uidPos   = 8
	nlinksPos = 9
	sizePos  = 10

	numAddr = 7

	maxint  = 0o777777
	used    = 0o400000
	large   = 0o200000
	dirFlag = 0o000020

	rootInode = 4
)

func surfaceSize() int64 { return int64(blocksPerSurface) * int64(wordsPerBlock) * int64(bytesPerWord) }

func inodeBlockOffset(num int) (block int, offset int) {
	return firstInodeBlock + num/inodesPerBlock, inodeSize * (num % inodesPerBlock)
}

// Inode is one PDP-7 UNIX v0 inode.
type Inode struct {
	fs     *Filesystem
	Num    int
	Flags  int
	UID    int
	NLinks int
	Size   int
	Addr   [numAddr]int
}

func (i *Inode) isDir() bool       { return i.Flags&dirFlag == dirFlag }
func (i *Inode) isLarge() bool     { return i.Flags&large != 0 }
func (i *Inode) isAllocated() bool { return i.Flags&used != 0 }

func (i *Inode) blocks() ([]int, error) {
	var out []int
	if i.isLarge() {
		for _, b := range i.Addr {
			if b == 0 {
				break
			}
			words, err := i.fs.readWordsBlock(b)
			if err != nil {
				return nil, err
			}
			for _, w := range words {
				if w == 0 {
					return out, nil
				}
				out = append(out, w)
			}
		}
		return out, nil
	}
	for _, b := range i.Addr {
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

func (i *Inode) readWords() ([]int, error) {
	blocks, err := i.blocks()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, b := range blocks {
		words, err := i.fs.readWordsBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return out, nil
}

// wordsToBytes expands 18-bit words to bytes via the shared PDP-7 word
// codec: ASCII mode packs 2 bytes/word, IMAGE mode 3.
func wordsToBytes(words []int, mode encoding.FileMode) []byte {
	wide := make([]uint32, len(words))
	for i, w := range words {
		wide[i] = uint32(w)
	}
	return encoding.Pack18WordsToBytes(wide, mode)
}

// Entry is one v0 directory entry.
type Entry struct {
	fs       *Filesystem
	Dirname  string
	Filename string
	InodeNum int
	inode    *Inode
}

func (e *Entry) resolve() (*Inode, error) {
	if e.inode == nil {
		in, err := e.fs.readInode(e.InodeNum)
		if err != nil {
			return nil, err
		}
		e.inode = in
	}
	return e.inode, nil
}

func (e *Entry) Name() string { return e.Filename }
func (e *Entry) Length() int64 {
	in, err := e.resolve()
	if err != nil {
		return 0
	}
	return int64(in.Size) * 3
}
func (e *Entry) Blocks() int {
	in, err := e.resolve()
	if err != nil {
		return 0
	}
	blocks, _ := in.blocks()
	return len(blocks)
}
func (e *Entry) CreationDate() (encoding.Date, bool) { return encoding.Date{}, false }
func (e *Entry) Protected() bool                     { return false }
func (e *Entry) FileType() string {
	in, err := e.resolve()
	if err == nil && in.isDir() {
		return "DIRECTORY"
	}
	return ""
}
func (e *Entry) IsDir() bool {
	in, err := e.resolve()
	return err == nil && in.isDir()
}

func unixJoin(a string, p ...string) string {
	result := a
	for _, b := range p {
		switch {
		case strings.HasPrefix(b, "/"):
			result = b
		case result == "" || strings.HasSuffix(result, "/"):
			result += b
		default:
			result += "/" + b
		}
	}
	return result
}

// Filesystem is the PDP-7 UNIX v0 driver.
type Filesystem struct {
	img *storage.Image
	pwd string
}

func init() {
	fsapi.Register("unix0", mount)
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, true)
	if err != nil {
		return nil, errors.Wrap(err, "mounting UNIX v0 volume")
	}
	return &Filesystem{img: img, pwd: "/"}, nil
}

func (f *Filesystem) readWordsBlock(blockNumber int) ([wordsPerBlock]int, error) {
	var words [wordsPerBlock]int
	raw := make([]byte, wordsPerBlock*bytesPerWord)
	off := surfaceSize() + int64(blockNumber)*int64(wordsPerBlock)*int64(bytesPerWord)
	if err := f.img.ReadAt(raw, off); err != nil {
		return words, errors.Wrap(fsapi.ErrIO, err.Error())
	}
	for i := 0; i < wordsPerBlock; i++ {
		p := i * bytesPerWord
		words[i] = int(raw[p]) | int(raw[p+1])<<8 | int(raw[p+2])<<16 | int(raw[p+3])<<24
	}
	return words, nil
}

func (f *Filesystem) readInode(num int) (*Inode, error) {
	blockNum, offset := inodeBlockOffset(num)
	words, err := f.readWordsBlock(blockNum)
	if err != nil {
		return nil, err
	}
	in := &Inode{fs: f, Num: num}
	in.Flags = words[offset+flagsPos]
	uid := words[offset+uidPos]
	if uid == maxint {
		uid = -1
	}
	in.UID = uid
	in.NLinks = maxint - words[offset+nlinksPos] + 1
	in.Size = words[offset+sizePos]
	for i := 0; i < numAddr; i++ {
		in.Addr[i] = words[offset+addrPos+i]
	}
	return in, nil
}

func (f *Filesystem) listDir(in *Inode) ([]struct {
	num  int
	name string
}, error) {
	if !in.isDir() {
		return nil, nil
	}
	words, err := in.readWords()
	if err != nil {
		return nil, err
	}
	var out []struct {
		num  int
		name string
	}
	for i := 0; i+direntSize <= len(words); i += direntSize {
		num := words[i]
		if num <= 0 {
			continue
		}
		name := strings.TrimRight(string(wordsToBytes(words[i+1:i+5], encoding.ASCII)), " \x00")
		out = append(out, struct {
			num  int
			name string
		}{num, name})
	}
	return out, nil
}

func (f *Filesystem) getInode(p string, inodeNum int) (*Inode, error) {
	if inodeNum == 0 {
		inodeNum = rootInode
	}
	p = strings.TrimPrefix(p, "/")
	in, err := f.readInode(inodeNum)
	if err != nil {
		return nil, err
	}
	if p == "" {
		if in.isAllocated() {
			return in, nil
		}
		return nil, nil
	}
	if !in.isDir() {
		return nil, nil
	}
	name, tail := p, ""
	if i := strings.IndexByte(p, '/'); i >= 0 {
		name, tail = p[:i], p[i+1:]
	}
	entries, err := f.listDir(in)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.name == name {
			return f.getInode(tail, e.num)
		}
	}
	return nil, nil
}

func (f *Filesystem) readDirEntries(dirname string) ([]*Entry, error) {
	in, err := f.getInode(dirname, 0)
	if err != nil || in == nil {
		return nil, err
	}
	listed, err := f.listDir(in)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(listed))
	for _, e := range listed {
		if e.name == "." || e.name == ".." {
			continue
		}
		out = append(out, &Entry{fs: f, Dirname: dirname, Filename: e.name, InodeNum: e.num})
	}
	return out, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	entries, err := f.readDirEntries(f.pwd)
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
	if pattern == "" {
		return f.EntriesList()
	}
	entries, err := f.readDirEntries(f.pwd)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		if e.Filename == pattern || pattern == "*" {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	in, err := f.getInode(fullname, 0)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	return &Entry{fs: f, Filename: fullname, InodeNum: in.Num, inode: in}, nil
}

// ReadBytes implements fs.Filesystem.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	in, err := f.getInode(fullname, 0)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	words, err := in.readWords()
	if err != nil {
		return nil, err
	}
	return wordsToBytes(words, encoding.IMAGE), nil
}

// WriteBytes implements fs.Filesystem. UNIX v0 mounts are read-only.
func (f *Filesystem) WriteBytes(string, []byte, string, string, int) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX v0 driver is read-only")
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(string, int, string, string) (fsapi.Entry, error) {
	return nil, errors.Wrap(fsapi.ErrReadOnly, "UNIX v0 driver is read-only")
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(fsapi.Entry) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX v0 driver is read-only")
}

// Chdir implements fs.Filesystem.
func (f *Filesystem) Chdir(p string) error {
	if !f.IsDir(p) {
		return errors.Wrap(fsapi.ErrInvalidArg, "not a directory")
	}
	if strings.HasPrefix(p, "/") {
		f.pwd = p
	} else {
		f.pwd = unixJoin(f.pwd, p)
	}
	return nil
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string { return f.pwd }

// IsDir implements fs.Filesystem.
func (f *Filesystem) IsDir(p string) bool {
	in, err := f.getInode(p, 0)
	return err == nil && in != nil && in.isDir()
}

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	in, err := f.getInode(fullname, 0)
	return err == nil && in != nil
}

// Dir implements fs.Filesystem.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, true, true)
	if err != nil {
		return err
	}
	for _, fe := range entries {
		e := fe.(*Entry)
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.Name())
			continue
		}
		in, _ := e.resolve()
		uid := in.UID
		if uid == -1 {
			uid = 0o77
		}
		fmt.Fprintf(w, "%03o %02o %02o %02o %05o %s\n", e.InodeNum, in.Flags&0o77, uid, in.NLinks, in.Size, e.Name())
	}
	return nil
}

// Examine implements fs.Filesystem.
func (f *Filesystem) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	if arg != "" {
		data, err := f.ReadBytes(arg, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d bytes\n", len(data))
		return nil
	}
	fmt.Fprintf(w, "PDP-7 UNIX v0 filesystem, pwd=%s\n", f.pwd)
	return nil
}

// Initialize implements fs.Filesystem. UNIX v0 mounts are read-only.
func (f *Filesystem) Initialize(fsapi.InitOptions) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX v0 driver is read-only")
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return nil }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
