// Package unixv6 registers the "unix6" fstype: PDP-11 UNIX Sixth Edition,
// read-only, built on the shared unixcommon inode-tree walker.
package unixv6

import (
	fsapi "pdpimage/fs"
	"pdpimage/fs/unixcommon"
)

func init() {
	fsapi.Register("unix6", func(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
		return unixcommon.Mount(imagePath, readOnly, strict, unixcommon.V6)
	})
}
