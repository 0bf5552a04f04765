// Package unixcommon is the shared implementation behind the fs/unixv1,
// fs/unixv6, and fs/unixv7 drivers: read-only UNIX
// Version-1/6/7 inode trees. The three historical versions share the same
// directory-walk/inode-chase algorithm and differ only in inode layout and
// a handful of flag bit positions, so one parametrized implementation
// backs all three registered fstypes instead of three near-duplicate
// packages.
package unixcommon

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
)

const blockSize = 512

// Version identifies which on-disk inode layout to use.
type Version int

const (
	V1 Version = 1
	V6 Version = 6
	V7 Version = 7
)

const (
	v1Dir = 0o040000
	v1Lrg = 0o010000
	v1All = 0o100000

	v6Dir = 0o040000
	v6Lrg = 0o010000
	v6All = 0o100000

	v1RootInode = 41
	v6RootInode = 1
	v7RootInode = 2

	v1InodeSize = 32
	v6InodeSize = 32
	v7InodeSize = 64

	v1Naddr = 8
	v6Naddr = 8
	v7Naddr = 13

	v1FilenameLen = 8
	v6FilenameLen = 14
	v7FilenameLen = 14
)

// Inode is one UNIX inode, decoded according to the filesystem's Version.
type Inode struct {
	fs      *Filesystem
	Num     int
	Flags   uint16
	NLinks  int
	UID     int
	GID     int
	Size    int64
	Addr    []int
	MTime   int64
}

func (i *Inode) IsDir() bool {
	if i.fs.version == V1 {
		return i.Flags&v1Dir == v1Dir
	}
	return i.Flags&v6Dir == v6Dir
}

func (i *Inode) isLarge() bool {
	if i.fs.version == V1 {
		return i.Flags&v1Lrg != 0
	}
	return i.Flags&v6Lrg != 0
}

func (i *Inode) isAllocated() bool {
	switch i.fs.version {
	case V1:
		return i.Flags&v1All != 0
	case V6:
		return i.Flags&v6All != 0
	default:
		return i.Flags != 0
	}
}

func (i *Inode) lengthBlocks() int { return int((i.Size + blockSize - 1) / blockSize) }

// blocks yields the disk block numbers making up this inode's data, chasing
// one level of indirect blocks for "large" files.
func (i *Inode) blocks() ([]int, error) {
	var out []int
	if i.isLarge() {
		for _, ind := range i.Addr {
			if ind == 0 {
				break
			}
			raw, err := i.fs.dev.ReadBlock(int64(ind))
			if err != nil {
				return nil, errors.Wrap(fsapi.ErrIO, err.Error())
			}
			for p := 0; p+1 < len(raw); p += 2 {
				n := int(raw[p]) | int(raw[p+1])<<8
				if n == 0 {
					return out, nil
				}
				out = append(out, n)
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

func (i *Inode) readBytes() ([]byte, error) {
	blocks, err := i.blocks()
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, b := range blocks {
		raw, err := i.fs.dev.ReadBlock(int64(b))
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		out = append(out, raw...)
	}
	if int64(len(out)) > i.Size {
		out = out[:i.Size]
	}
	return out, nil
}

// l3tol unpacks n 3-byte big-in-middle integers, V7's disk-address packing.
func l3tol(data []byte, n int) []int {
	out := make([]int, 0, n)
	for i := 0; i+2 < len(data) && len(out) < n; i += 3 {
		v := int(data[i+1]) | int(data[i+2])<<8 | int(data[i])<<16
		out = append(out, v)
	}
	return out
}

func be16(b []byte, pos int) uint16 { return uint16(b[pos]) | uint16(b[pos+1])<<8 }
func be32(b []byte, pos int) uint32 {
	return uint32(b[pos]) | uint32(b[pos+1])<<8 | uint32(b[pos+2])<<16 | uint32(b[pos+3])<<24
}

func decodeInode(fs *Filesystem, num int, buf []byte) *Inode {
	in := &Inode{fs: fs, Num: num}
	switch fs.version {
	case V1:
		in.Flags = be16(buf, 0)
		in.NLinks = int(buf[2])
		in.UID = int(buf[3])
		in.Size = int64(be16(buf, 4))
		in.Addr = make([]int, v1Naddr)
		for i := 0; i < v1Naddr; i++ {
			in.Addr[i] = int(be16(buf, 6+i*2))
		}
		in.MTime = int64(be32(buf, 6+v1Naddr*2+4))
	case V6:
		in.Flags = be16(buf, 0)
		in.NLinks = int(buf[2])
		in.UID = int(buf[3])
		in.GID = int(buf[4])
		sz0 := int64(buf[5])
		sz1 := int64(be16(buf, 6))
		in.Size = sz0<<16 | sz1
		in.Addr = make([]int, v6Naddr)
		for i := 0; i < v6Naddr; i++ {
			in.Addr[i] = int(be16(buf, 8+i*2))
		}
		in.MTime = int64(be32(buf, 8+v6Naddr*2+4))
	case V7:
		in.Flags = be16(buf, 0)
		in.NLinks = int(be16(buf, 2))
		in.UID = int(be16(buf, 4))
		in.GID = int(be16(buf, 6))
		sz0 := int64(be16(buf, 8))
		sz1 := int64(be16(buf, 10))
		in.Size = sz0<<16 | sz1
		in.Addr = l3tol(buf[12:12+40], v7Naddr)
		in.MTime = int64(be32(buf, 12+40+8)) // ctime stands in for mtime on this inode layout
	}
	return in
}

func inodeSize(v Version) int {
	switch v {
	case V1:
		return v1InodeSize
	case V7:
		return v7InodeSize
	default:
		return v6InodeSize
	}
}

func rootInode(v Version) int {
	switch v {
	case V1:
		return v1RootInode
	case V7:
		return v7RootInode
	default:
		return v6RootInode
	}
}

func filenameLen(v Version) int {
	switch v {
	case V1:
		return v1FilenameLen
	default:
		return v6FilenameLen // V6 and V7 both use 14-char names
	}
}

// Entry is one directory entry: an inode number plus the name under which
// it was found in its parent directory.
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
	return in.Size
}
func (e *Entry) Blocks() int {
	in, err := e.resolve()
	if err != nil {
		return 0
	}
	return in.lengthBlocks()
}
func (e *Entry) CreationDate() (encoding.Date, bool) {
	in, err := e.resolve()
	if err != nil || in.MTime == 0 {
		return encoding.Date{}, false
	}
	t := time.Unix(in.MTime, 0).UTC()
	return encoding.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, true
}
func (e *Entry) Protected() bool { return false }
func (e *Entry) FileType() string {
	in, err := e.resolve()
	if err != nil {
		return ""
	}
	if in.IsDir() {
		return "DIRECTORY"
	}
	return ""
}
func (e *Entry) IsDir() bool {
	in, err := e.resolve()
	return err == nil && in.IsDir()
}
func (e *Entry) fullname() string { return unixJoin(e.Dirname, e.Filename) }

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

func unixSplit(p string) (dir, base string) {
	i := strings.LastIndexByte(p, '/') + 1
	head, tail := p[:i], p[i:]
	if head != "" && strings.Trim(head, "/") != "" {
		head = strings.TrimRight(head, "/")
	}
	return head, tail
}

// Filesystem is the shared UNIX v1/v6/v7 driver core.
type Filesystem struct {
	img     *storage.Image
	dev     *block.Device
	version Version
	pwd     string
}

// Mount opens imagePath as a read-only UNIX filesystem of the given
// version and registers it under fstype.
func Mount(imagePath string, readOnly bool, strict bool, version Version) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, true) // these early UNIX filesystems are always mounted read-only
	if err != nil {
		return nil, errors.Wrap(err, "mounting UNIX volume")
	}
	f := &Filesystem{img: img, dev: block.New(img), version: version, pwd: "/"}
	return f, nil
}

func (f *Filesystem) readInode(num int) (*Inode, error) {
	is := inodeSize(f.version)
	offset := int64(blockSize*2) + int64(num-1)*int64(is)
	blockNum := offset / blockSize
	within := int(offset % blockSize)
	var buf []byte
	for len(buf) < within+is {
		raw, err := f.dev.ReadBlock(blockNum)
		if err != nil {
			return nil, errors.Wrap(fsapi.ErrIO, err.Error())
		}
		buf = append(buf, raw...)
		blockNum++
	}
	return decodeInode(f, num, buf[within:within+is]), nil
}

func (f *Filesystem) listDir(in *Inode) ([]struct {
	num  int
	name string
}, error) {
	if !in.IsDir() {
		return nil, nil
	}
	data, err := in.readBytes()
	if err != nil {
		return nil, err
	}
	entrySize := 2 + filenameLen(f.version)
	var out []struct {
		num  int
		name string
	}
	for p := 0; p+entrySize <= len(data); p += entrySize {
		num := int(be16(data, p))
		if num <= 0 {
			continue
		}
		name := strings.TrimRight(string(data[p+2:p+entrySize]), "\x00")
		out = append(out, struct {
			num  int
			name string
		}{num, name})
	}
	return out, nil
}

func (f *Filesystem) getInode(p string, inodeNum int) (*Inode, error) {
	if inodeNum == 0 {
		inodeNum = rootInode(f.version)
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
	if !in.IsDir() {
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
		out[i] = (*entryAdapter)(e)
	}
	return out, nil
}

// entryAdapter adapts Entry's local fsDate-returning CreationDate to the
// fs.Entry interface's encoding.Date signature, without unixcommon
// depending on the encoding package for an otherwise-unrelated struct
// shape.
type entryAdapter Entry

func (e *entryAdapter) Name() string   { return (*Entry)(e).Name() }
func (e *entryAdapter) Length() int64  { return (*Entry)(e).Length() }
func (e *entryAdapter) Blocks() int    { return (*Entry)(e).Blocks() }
func (e *entryAdapter) CreationDate() (encoding.Date, bool) { return (*Entry)(e).CreationDate() }
func (e *entryAdapter) Protected() bool                     { return false }
func (e *entryAdapter) FileType() string                    { return (*Entry)(e).FileType() }
func (e *entryAdapter) IsDir() bool                          { return (*Entry)(e).IsDir() }

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	dirname, base := f.pwd, pattern
	if pattern == "" {
		return f.EntriesList()
	}
	if strings.HasPrefix(pattern, "/") {
		if f.IsDir(pattern) {
			dirname, base = pattern, "*"
		} else {
			dirname, base = unixSplit(pattern)
		}
	}
	entries, err := f.readDirEntries(dirname)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, e := range entries {
		ok, err := path.Match(base, e.Filename)
		if err != nil || !ok {
			continue
		}
		out = append(out, (*entryAdapter)(e))
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
	dirname, base := unixSplit(fullname)
	return (*entryAdapter)(&Entry{fs: f, Dirname: dirname, Filename: base, InodeNum: in.Num, inode: in}), nil
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
	return in.readBytes()
}

// WriteBytes implements fs.Filesystem. UNIX v1/v6/v7 mounts are read-only.
func (f *Filesystem) WriteBytes(string, []byte, string, string, int) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX driver is read-only")
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(string, int, string, string) (fsapi.Entry, error) {
	return nil, errors.Wrap(fsapi.ErrReadOnly, "UNIX driver is read-only")
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(fsapi.Entry) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX driver is read-only")
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
	return err == nil && in != nil && in.IsDir()
}

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	in, err := f.getInode(fullname, 0)
	return err == nil && in != nil
}

// Dir implements fs.Filesystem.
func (f *Filesystem) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	entries, err := f.FilterEntriesList(pattern, options.Full, true)
	if err != nil {
		return err
	}
	for _, fe := range entries {
		e := fe.(*entryAdapter)
		if options.Brief {
			fmt.Fprintf(w, "%s\n", e.Name())
			continue
		}
		kind := "-"
		if e.IsDir() {
			kind = "d"
		}
		fmt.Fprintf(w, "%s %8d %s\n", kind, e.Length(), e.Name())
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
	fmt.Fprintf(w, "UNIX v%d filesystem, pwd=%s\n", f.version, f.pwd)
	return nil
}

// Initialize implements fs.Filesystem. UNIX mounts are read-only.
func (f *Filesystem) Initialize(fsapi.InitOptions) error {
	return errors.Wrap(fsapi.ErrReadOnly, "UNIX driver is read-only")
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return nil }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }
