// Package unixv1 registers the "unix1" fstype: PDP-11 UNIX First Edition,
// read-only, built on the shared unixcommon inode-tree walker.
package unixv1

import (
	fsapi "pdpimage/fs"
	"pdpimage/fs/unixcommon"
)

func init() {
	fsapi.Register("unix1", func(imagePath string, readOnly bool, strict bool) (fsapi.Filesystem, error) {
		return unixcommon.Mount(imagePath, readOnly, strict, unixcommon.V1)
	})
}
