// Package os8 implements the OS/8 filesystem driver: a
// chain of volume directory segments at 12-bit word granularity, addressed
// over one or more fixed-size partitions when the image spans more than
// 4096 blocks. Its directory layout mirrors RT-11's (fs/rt11) one level
// down, at word rather than byte granularity, with RAD50-ish filenames
// packed two characters per 12-bit word (encoding.Rad50Word12ToAsc) and
// file data converted through the same 12-bit codec DMS uses
// (encoding.Pack12WordsToBytes).
package os8

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"pdpimage/block"
	"pdpimage/encoding"
	fsapi "pdpimage/fs"
	"pdpimage/storage"
	"pdpimage/wordblock"
)

const (
	blockSize            = 512 // native image block size, in bytes
	dirSegmentStart      = 1   // first directory segment's partition-relative block
	numOfSegments        = 6   // directory segments reserved per partition
	dirSegmentHeaderSize = 5   // segment header, in words
	dirSegmentSize       = 256 // segment size, in words
	dirEntrySize         = 5   // permanent/tentative entry size, in words
	emptyDirEntrySize    = 2   // empty entry size, in words
	dirLenBase           = 0o10000 // entries/lengths are stored negated from this base
	fileBlockBytes       = 384  // bytes per 256-word block packed through Pack12WordsToBytes (2 words : 3 bytes)
	partitionBlockUnit   = 0o10000 // 4096 blocks per partition
)

func init() {
	fsapi.Register("os8", mount)
}

var partitionPrefixRe = regexp.MustCompile(`^\[(\d+)\](.*)$`)

// Filesystem is the OS/8 driver: one or more fixed-size partitions, each
// with its own directory segment chain.
type Filesystem struct {
	img              *storage.Image
	wb               *wordblock.Device
	readOnly         bool
	currentPartition int
	numberOfBlocks   int64
}

func mount(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
	img, err := storage.Open(imagePath, readOnly)
	if err != nil {
		return nil, errors.Wrap(err, "mounting OS/8 volume")
	}
	f := &Filesystem{
		img:            img,
		wb:             wordblock.New(block.New(img)),
		readOnly:       readOnly,
		numberOfBlocks: img.Size() / blockSize,
	}
	if strict {
		seg, err := readSegment(f, 0, dirSegmentStart)
		if err != nil || seg.extraWords < 0 || seg.extraWords > dirSegmentSize || seg.dataBlockNumber < 0 {
			img.Close()
			return nil, errors.Wrap(fsapi.ErrIO, "not an OS/8 volume")
		}
	}
	return f, nil
}

// numPartitions is the number of equal-sized partitions this image is
// divided into: one per started 4096 blocks.
func (f *Filesystem) numPartitions() int {
	return 1 + int((f.numberOfBlocks-1)/partitionBlockUnit)
}

// partitionSize is the block count of each partition.
func (f *Filesystem) partitionSize() int64 {
	return f.numberOfBlocks / int64(f.numPartitions())
}

func (f *Filesystem) partitionBase(partition int) int64 {
	return int64(partition) * f.partitionSize()
}

func (f *Filesystem) resolvePartition(partition int) (int, error) {
	if partition < 0 || partition >= f.numPartitions() {
		return 0, errors.Wrapf(fsapi.ErrNotFound, "partition %d", partition)
	}
	return partition, nil
}

func (f *Filesystem) readPartitionWords(partition int, blockNumber int) ([dirSegmentSize]uint16, error) {
	return f.wb.Read12(f.partitionBase(partition) + int64(blockNumber))
}

func (f *Filesystem) writePartitionWords(partition int, blockNumber int, words [dirSegmentSize]uint16) error {
	return f.wb.Write12(f.partitionBase(partition)+int64(blockNumber), words)
}

// readDirSegments walks a partition's directory segment chain from
// dirSegmentStart.
func (f *Filesystem) readDirSegments(partition int) ([]*segment, error) {
	if _, err := f.resolvePartition(partition); err != nil {
		return nil, err
	}
	var out []*segment
	next := dirSegmentStart
	for next != 0 {
		seg, err := readSegment(f, partition, next)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
		next = seg.nextBlockNumber
	}
	return out, nil
}

// canonicalFilename rounds fullname through the 12-bit RAD50-ish codec in
// the same 2-char word chunks create_file's real entry encoding uses
// (positions 0-2, 2-4, 4-6 for the name, 0-2 for the extension), so a
// wildcard pattern matches what a stored filename actually canonicalizes
// to. wildcard appends a "*" extension when fullname has none.
func canonicalFilename(fullname string, wildcard bool) string {
	fullname = strings.ToUpper(fullname)
	name, ext, found := strings.Cut(fullname, ".")
	if !found {
		name = fullname
		if wildcard {
			ext = "*"
		}
	}
	return rad50RoundOS8(name, 6) + "." + rad50RoundOS8(ext, 2)
}

func rad50RoundOS8(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	var out strings.Builder
	for i := 0; i < len(s); i += 2 {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		out.WriteString(encoding.Rad50Word12ToAsc(encoding.AscToRad50Word12(s[i:end])))
	}
	return out.String()
}

// splitFullname separates a "[n]NAME.EXT" partition prefix from fullname,
// matching os8_split_fullname.
func (f *Filesystem) splitFullname(fullname string, wildcard bool) (int, string) {
	partition := f.currentPartition
	if fullname == "" {
		return partition, fullname
	}
	if m := partitionPrefixRe.FindStringSubmatch(fullname); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			partition = n
		}
		fullname = m[2]
	}
	if fullname != "" {
		fullname = canonicalFilename(fullname, wildcard)
	}
	return partition, fullname
}

func (f *Filesystem) findEntry(partition int, fullname string) (*Entry, error) {
	segs, err := f.readDirSegments(partition)
	if err != nil {
		return nil, err
	}
	for _, seg := range segs {
		for _, e := range seg.entries {
			if e.fullname() == fullname && e.IsPermanent() {
				return e, nil
			}
		}
	}
	return nil, nil
}

// EntriesList implements fs.Filesystem.
func (f *Filesystem) EntriesList() ([]fsapi.Entry, error) {
	segs, err := f.readDirSegments(f.currentPartition)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, seg := range segs {
		for _, e := range seg.entries {
			out = append(out, e)
		}
	}
	return out, nil
}

// FilterEntriesList implements fs.Filesystem.
func (f *Filesystem) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	partition := f.currentPartition
	if pattern != "" {
		partition, pattern = f.splitFullname(pattern, wildcard)
	}
	segs, err := f.readDirSegments(partition)
	if err != nil {
		return nil, err
	}
	var out []fsapi.Entry
	for _, seg := range segs {
		for _, e := range seg.entries {
			if pattern != "" {
				ok, err := path.Match(pattern, e.basename())
				if err != nil || !ok {
					continue
				}
			}
			if !includeAll && (e.Empty || e.IsTentative()) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFileEntry implements fs.Filesystem.
func (f *Filesystem) GetFileEntry(fullname string) (fsapi.Entry, error) {
	partition := f.currentPartition
	if fullname != "" {
		partition, fullname = f.splitFullname(fullname, false)
	}
	e, err := f.findEntry(partition, fullname)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	return e, nil
}

// ReadBytes implements fs.Filesystem. mode, when non-zero (encoding.IMAGE),
// forces an IMAGE-mode byte view; otherwise the entry's extension selects
// ASCII or IMAGE, per OS8File.__init__.
func (f *Filesystem) ReadBytes(fullname string, mode int) ([]byte, error) {
	partition, name := f.splitFullname(fullname, false)
	e, err := f.findEntry(partition, name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Wrapf(fsapi.ErrNotFound, "%s", fullname)
	}
	fm := e.fileMode()
	if mode == int(encoding.IMAGE) {
		fm = encoding.IMAGE
	}
	var out []byte
	for i := 0; i < e.Len; i++ {
		words, err := f.readPartitionWords(partition, e.FilePosition+i)
		if err != nil {
			return nil, err
		}
		out = append(out, encoding.Pack12WordsToBytes(words[:], fm)...)
	}
	return out, nil
}

// WriteBytes implements fs.Filesystem.
func (f *Filesystem) WriteBytes(fullname string, content []byte, creationDate string, fileType string, mode int) error {
	numBlocks := int(math.Ceil(float64(len(content)) / fileBlockBytes))
	e, err := f.CreateFile(fullname, numBlocks, creationDate, fileType)
	if err != nil {
		return err
	}
	entry := e.(*Entry)
	fm := entry.fileMode()
	if mode == int(encoding.IMAGE) {
		fm = encoding.IMAGE
	}
	padded := make([]byte, entry.Len*fileBlockBytes)
	copy(padded, content)
	for i := 0; i < entry.Len; i++ {
		chunk := padded[i*fileBlockBytes : (i+1)*fileBlockBytes]
		words := encoding.Unpack12BytesToWords(chunk, fm)
		var block [dirSegmentSize]uint16
		copy(block[:], words)
		if err := f.writePartitionWords(entry.segment.partition, entry.FilePosition+i, block); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filesystem) searchEmptyEntry(partition int, length int) (*Entry, int, error) {
	segs, err := f.readDirSegments(partition)
	if err != nil {
		return nil, -1, err
	}
	var best *Entry
	bestIndex := -1
	for _, seg := range segs {
		for i, e := range seg.entries {
			if e.Empty && e.Len >= length {
				if best == nil || best.Len > e.Len {
					best = e
					bestIndex = i
					if best.Len == length {
						break
					}
				}
			}
		}
	}
	return best, bestIndex, nil
}

// splitSegment inserts a brand new segment after entry's, moving every
// entry after entry into it. Matches OS8Partition.split_segment.
func (f *Filesystem) splitSegment(partition int, entry *Entry) (bool, error) {
	oldSegment := entry.segment
	segs, err := f.readDirSegments(partition)
	if err != nil {
		return false, err
	}
	used := make(map[int]bool, len(segs))
	for _, s := range segs {
		used[s.blockNumber] = true
	}
	blockNumber := -1
	for i := 0; i < numOfSegments; i++ {
		candidate := dirSegmentStart + i
		if !used[candidate] {
			blockNumber = candidate
			break
		}
	}
	if blockNumber == -1 {
		return false, nil
	}

	newSeg := &segment{fs: f, partition: partition, blockNumber: blockNumber}
	newSeg.dataBlockNumber = entry.FilePosition + entry.Len
	newSeg.nextBlockNumber = oldSegment.nextBlockNumber
	newSeg.extraWords = segs[0].extraWords
	oldSegment.nextBlockNumber = newSeg.blockNumber

	entryPosition := -1
	for i, e := range oldSegment.entries {
		if e == entry {
			entryPosition = i
			break
		}
	}
	if entryPosition == -1 {
		return false, nil
	}
	newSeg.entries = oldSegment.entries[entryPosition+1:]
	oldSegment.entries = oldSegment.entries[:entryPosition+1]
	if err := oldSegment.write(); err != nil {
		return false, err
	}
	newSeg.dataBlockNumber = entry.FilePosition + entry.Len
	return true, newSeg.write()
}

// allocateSpace finds the best-fit empty entry in partition and fills it
// in, splitting the segment first if its directory is full. Matches
// OS8Partition.allocate_space.
func (f *Filesystem) allocateSpace(partition int, fullname string, length int, creationDate encoding.Date) (*Entry, error) {
	entry, entryNumber, err := f.searchEmptyEntry(partition, length)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.Wrapf(fsapi.ErrNoSpace, "no empty entry fits %d blocks for %s", length, fullname)
	}
	if entry.Len != length {
		if len(entry.segment.entries) >= entry.segment.maxEntries() {
			ok, err := f.splitSegment(partition, entry)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.Wrapf(fsapi.ErrNoSpace, "directory full, cannot split for %s", fullname)
			}
		}
		entry.segment.insertEmptyEntryAfter(entry, entryNumber, length)
	}

	name, ext, _ := strings.Cut(strings.ToUpper(fullname), ".")
	entry.Empty = false
	entry.ExtraWords = make([]uint16, entry.segment.extraWords)
	entry.Filename = name
	entry.Extension = ext
	entry.RawCreationDate = encoding.DateToOS8(creationDate)
	entry.Len = length
	if err := entry.segment.write(); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateFile implements fs.Filesystem.
func (f *Filesystem) CreateFile(fullname string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	if f.readOnly {
		return nil, errors.Wrapf(fsapi.ErrReadOnly, "create %s", fullname)
	}
	partition, name := f.splitFullname(fullname, false)
	if _, err := f.resolvePartition(partition); err != nil {
		return nil, err
	}
	if existing, err := f.findEntry(partition, name); err != nil {
		return nil, err
	} else if existing != nil {
		if err := f.deleteEntry(existing); err != nil {
			return nil, err
		}
	}
	var date encoding.Date
	if creationDate != "" {
		date, _ = parseDate(creationDate)
	}
	return f.allocateSpace(partition, name, blocks, date)
}

func (f *Filesystem) deleteEntry(e *Entry) error {
	e.Empty = true
	e.Filename = ""
	e.Extension = ""
	e.ExtraWords = nil
	e.segment.compact()
	return e.segment.write()
}

// Delete implements fs.Filesystem.
func (f *Filesystem) Delete(e fsapi.Entry) error {
	if f.readOnly {
		return errors.Wrap(fsapi.ErrReadOnly, "delete")
	}
	entry, ok := e.(*Entry)
	if !ok {
		return errors.Wrap(fsapi.ErrInvalidArg, "not an OS/8 entry")
	}
	return f.deleteEntry(entry)
}

// Chdir implements fs.Filesystem: switches the current partition, e.g.
// Chdir("[1]") or Chdir("1").
func (f *Filesystem) Chdir(fullname string) error {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(fullname, "["), "]"))
	if err != nil {
		return errors.Wrap(fsapi.ErrInvalidArg, "OS/8 directories are partition numbers")
	}
	if n < 0 || n >= f.numPartitions() {
		return errors.Wrapf(fsapi.ErrNotFound, "partition %d", n)
	}
	f.currentPartition = n
	return nil
}

// GetPwd implements fs.Filesystem.
func (f *Filesystem) GetPwd() string {
	if f.currentPartition == 0 {
		return ""
	}
	return strconv.Itoa(f.currentPartition)
}

// IsDir implements fs.Filesystem. OS/8 has no subdirectories.
func (f *Filesystem) IsDir(string) bool { return false }

// Exists implements fs.Filesystem.
func (f *Filesystem) Exists(fullname string) bool {
	partition, name := f.splitFullname(fullname, false)
	e, err := f.findEntry(partition, name)
	return err == nil && e != nil
}

// GetTypes implements fs.Filesystem.
func (f *Filesystem) GetTypes() []string { return []string{"ASCII", "IMAGE"} }

// Close implements fs.Filesystem.
func (f *Filesystem) Close() error { return f.img.Close() }

func parseDate(s string) (encoding.Date, bool) {
	var y, m, d int
	if n, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil || n != 3 {
		return encoding.Date{}, false
	}
	return encoding.Date{Year: y, Month: m, Day: d}, true
}
