// Package fs defines the common Filesystem contract every format-specific
// driver implements, the shared Entry/error/option types, and
// a name->factory registry used by the mount surface.
package fs

import "io"

// Filesystem is the capability trait every driver implements, modeled as an
// interface so dispatch across filesystem drivers happens through a
// registry rather than a type switch: drivers are distinct types, and a
// registry maps the mount-option string to a factory.
type Filesystem interface {
	// EntriesList lists all visible entries in the current directory
	// context.
	EntriesList() ([]Entry, error)
	// FilterEntriesList glob-filters EntriesList over the canonical
	// filename form. includeAll also returns tentative/empty entries
	// where the format has them.
	FilterEntriesList(pattern string, includeAll bool, wildcard bool) ([]Entry, error)
	// GetFileEntry resolves one path, failing ErrNotFound on a miss.
	GetFileEntry(path string) (Entry, error)

	// ReadBytes reads a whole file. mode selects encoding.ASCII or
	// encoding.IMAGE where the format distinguishes them; formats
	// without a mode distinction ignore it.
	ReadBytes(path string, mode int) ([]byte, error)
	// WriteBytes creates-or-overwrites path with data.
	WriteBytes(path string, data []byte, creationDate string, fileType string, mode int) error
	// CreateFile allocates an empty file of the given block count,
	// deleting any preexisting file at path first.
	CreateFile(path string, blocks int, creationDate string, fileType string) (Entry, error)
	// Delete removes entry from its directory and returns its blocks to
	// the free map.
	Delete(entry Entry) error

	// Chdir changes the current directory/UIC/PPN context, for formats
	// that have one. Formats without one return ErrInvalidArg.
	Chdir(path string) error
	// GetPwd returns the current directory context.
	GetPwd() string

	// IsDir classifies path as a directory.
	IsDir(path string) bool
	// Exists reports whether path resolves to any entry.
	Exists(path string) bool

	// Dir writes a format-native directory listing to w.
	Dir(w io.Writer, volumeID string, pattern string, options DirOptions) error
	// Examine writes a diagnostic dump of filesystem metadata, or of one
	// file's internals if arg names a file.
	Examine(w io.Writer, arg string, options ExamineOptions) error
	// Initialize writes an empty filesystem of this type onto the image.
	Initialize(options InitOptions) error
	// GetTypes enumerates the file-type tags this filesystem
	// understands.
	GetTypes() []string

	// Close releases the underlying image, flushing any pending writes.
	Close() error
}

// Factory mounts a Filesystem over an already-opened image at imagePath.
// strict controls whether a signature/magic-number mismatch is fatal
//.
type Factory func(imagePath string, readOnly bool, strict bool) (Filesystem, error)

var registry = map[string]Factory{}

// Register adds fstype to the mount-option registry. Called from each
// driver package's init().
func Register(fstype string, factory Factory) {
	registry[fstype] = factory
}

// Lookup returns the factory registered for fstype, or false if none.
func Lookup(fstype string) (Factory, bool) {
	f, ok := registry[fstype]
	return f, ok
}

// Types lists every registered fstype tag.
func Types() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
