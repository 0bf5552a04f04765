package shell

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
)

// fakeEntry and fakeFS are a minimal in-memory fsapi.Filesystem, standing
// in for a real driver so shell's dispatch logic can be tested without
// mounting an image.
type fakeEntry struct {
	name string
	data []byte
}

func (e *fakeEntry) Name() string                            { return e.name }
func (e *fakeEntry) Length() int64                            { return int64(len(e.data)) }
func (e *fakeEntry) Blocks() int                               { return 1 }
func (e *fakeEntry) CreationDate() (encoding.Date, bool)       { return encoding.Date{}, false }
func (e *fakeEntry) Protected() bool                           { return false }
func (e *fakeEntry) FileType() string                          { return "" }
func (e *fakeEntry) IsDir() bool                               { return false }

type fakeFS struct {
	files map[string]*fakeEntry
	pwd   string
	dirs  map[string]bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: map[string]*fakeEntry{}, pwd: "/", dirs: map[string]bool{}}
}

func (f *fakeFS) EntriesList() ([]fsapi.Entry, error) {
	var out []fsapi.Entry
	for _, e := range f.files {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeFS) FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]fsapi.Entry, error) {
	if e, ok := f.files[pattern]; ok {
		return []fsapi.Entry{e}, nil
	}
	return nil, nil
}

func (f *fakeFS) GetFileEntry(path string) (fsapi.Entry, error) {
	if e, ok := f.files[path]; ok {
		return e, nil
	}
	return nil, fsapi.ErrNotFound
}

func (f *fakeFS) ReadBytes(path string, mode int) ([]byte, error) {
	e, ok := f.files[path]
	if !ok {
		return nil, fsapi.ErrNotFound
	}
	return e.data, nil
}

func (f *fakeFS) WriteBytes(path string, data []byte, creationDate string, fileType string, mode int) error {
	f.files[path] = &fakeEntry{name: path, data: data}
	return nil
}

func (f *fakeFS) CreateFile(path string, blocks int, creationDate string, fileType string) (fsapi.Entry, error) {
	e := &fakeEntry{name: path}
	f.files[path] = e
	return e, nil
}

func (f *fakeFS) Delete(entry fsapi.Entry) error {
	if _, ok := f.files[entry.Name()]; !ok {
		return fsapi.ErrNotFound
	}
	delete(f.files, entry.Name())
	return nil
}

func (f *fakeFS) Chdir(path string) error {
	if !f.dirs[path] {
		return fsapi.ErrNotFound
	}
	f.pwd = path
	return nil
}

func (f *fakeFS) GetPwd() string  { return f.pwd }
func (f *fakeFS) IsDir(path string) bool { return f.dirs[path] }
func (f *fakeFS) Exists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func (f *fakeFS) Dir(w io.Writer, volumeID string, pattern string, options fsapi.DirOptions) error {
	for name := range f.files {
		io.WriteString(w, name+"\n")
	}
	return nil
}

func (f *fakeFS) Examine(w io.Writer, arg string, options fsapi.ExamineOptions) error {
	io.WriteString(w, "examine:"+arg)
	return nil
}

func (f *fakeFS) Initialize(options fsapi.InitOptions) error {
	f.files = map[string]*fakeEntry{}
	return nil
}

func (f *fakeFS) GetTypes() []string { return nil }
func (f *fakeFS) Close() error       { return nil }

// fakeRegistry resolves a fixed single-volume map, standing in for the
// out-of-scope volume registry.
type fakeRegistry struct {
	volumes map[string]*Volume
	def     string
}

func (r *fakeRegistry) Get(name string) (*Volume, error) {
	if name == "" {
		name = r.def
	}
	if v, ok := r.volumes[name]; ok {
		return v, nil
	}
	return nil, fsapi.ErrNotFound
}

func TestTypeWritesFileContent(t *testing.T) {
	fs := newFakeFS()
	fs.files["A.TXT"] = &fakeEntry{name: "A.TXT", data: []byte("HELLO")}
	vol := &Volume{Name: "DK", FS: fs}

	var buf bytes.Buffer
	err := Type(&buf, vol, "A.TXT")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "HELLO")
}

func TestTypeNoFiles(t *testing.T) {
	fs := newFakeFS()
	vol := &Volume{Name: "DK", FS: fs}

	var buf bytes.Buffer
	err := Type(&buf, vol, "MISSING.TXT")

	assert.Error(t, err)
}

func TestCopySingleFile(t *testing.T) {
	src := newFakeFS()
	src.files["A.TXT"] = &fakeEntry{name: "A.TXT", data: []byte("DATA")}
	dst := newFakeFS()

	var buf bytes.Buffer
	err := Copy(&buf, &Volume{Name: "DK", FS: src}, "A.TXT", &Volume{Name: "AB", FS: dst}, "B.TXT")

	require.NoError(t, err)
	require.Contains(t, dst.files, "B.TXT")
	assert.Equal(t, "DATA", string(dst.files["B.TXT"].data))
}

func TestDelRemovesMatchedEntries(t *testing.T) {
	fs := newFakeFS()
	fs.files["A.TXT"] = &fakeEntry{name: "A.TXT", data: []byte("X")}
	vol := &Volume{Name: "DK", FS: fs}

	err := Del(vol, "A.TXT")

	require.NoError(t, err)
	assert.NotContains(t, fs.files, "A.TXT")
}

func TestDispatchExit(t *testing.T) {
	reg := &fakeRegistry{volumes: map[string]*Volume{}}

	var buf bytes.Buffer
	result := Dispatch(&buf, reg, "EXIT")

	assert.True(t, result.Exit)
	assert.NoError(t, result.Err)
}

func TestDispatchIllegalCommand(t *testing.T) {
	reg := &fakeRegistry{volumes: map[string]*Volume{}}

	var buf bytes.Buffer
	result := Dispatch(&buf, reg, "FROBNICATE")

	assert.Error(t, result.Err)
}

func TestDispatchTypeThroughRegistry(t *testing.T) {
	fs := newFakeFS()
	fs.files["A.TXT"] = &fakeEntry{name: "A.TXT", data: []byte("HELLO")}
	reg := &fakeRegistry{volumes: map[string]*Volume{"DK": {Name: "DK", FS: fs}}, def: "DK"}

	var buf bytes.Buffer
	result := Dispatch(&buf, reg, "TYPE DK:A.TXT")

	require.NoError(t, result.Err)
	assert.Contains(t, buf.String(), "HELLO")
}

func TestSplitVolume(t *testing.T) {
	volume, path := SplitVolume("AB:FILE.TXT")
	assert.Equal(t, "AB", volume)
	assert.Equal(t, "FILE.TXT", path)

	volume, path = SplitVolume("FILE.TXT")
	assert.Equal(t, "", volume)
	assert.Equal(t, "FILE.TXT", path)
}

func TestDumpFormatsOctalAddresses(t *testing.T) {
	fs := newFakeFS()
	fs.files["A.TXT"] = &fakeEntry{name: "A.TXT", data: []byte("HELLO WORLD!!!!!")}
	vol := &Volume{Name: "DK", FS: fs}

	var buf bytes.Buffer
	err := Dump(&buf, vol, "A.TXT", 0, 0)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "000000  ")
}
