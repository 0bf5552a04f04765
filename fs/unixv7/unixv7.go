// Package unixv7 registers the "unix7" fstype: PDP-11 UNIX Seventh
// Edition, read-only, built on the shared unixcommon inode-tree walker.
package unixv7

import (
	fsapi "pdpimage/fs"
	"pdpimage/fs/unixcommon"
)

func init() {
	fsapi.Register("unix7", func(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
		return unixcommon.Mount(imagePath, readOnly, strict, unixcommon.V7)
	})
}
