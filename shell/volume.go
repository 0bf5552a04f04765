package shell

import (
	"fmt"

	fsapi "pdpimage/fs"
)

// Volume is a logical disk unit: a name (the `AB:` in `AB:FILE.TXT`) bound
// to a mounted driver, matching rt11/volumes.py's Volume record.
type Volume struct {
	Name string
	FS   fsapi.Filesystem
}

// Registry resolves a volume name to its mounted Volume, the caller-owned
// contract documented in doc.go. name is the bare logical name without its
// trailing colon ("AB", "DK", "LAST"); an empty name means "the default
// volume" (rt11/volumes.py's `DK:`).
type Registry interface {
	Get(name string) (*Volume, error)
}

// SplitVolume splits "volume:path" into ("volume", "path"), matching
// rt11/commons.py's splitdrive. A path with no colon returns ("", path).
func SplitVolume(spec string) (volume, path string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:]
		}
	}
	return "", spec
}

func formatVolumeSpec(volume, path string) string {
	if volume == "" {
		return path
	}
	return fmt.Sprintf("%s:%s", volume, path)
}
