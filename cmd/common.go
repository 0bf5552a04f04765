package cmd

import (
	"fmt"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"

	_ "pdpimage/fs/caps11"
	_ "pdpimage/fs/decsys"
	_ "pdpimage/fs/dgdump"
	_ "pdpimage/fs/dgmagtape"
	_ "pdpimage/fs/dms"
	_ "pdpimage/fs/dos11"
	_ "pdpimage/fs/os8"
	_ "pdpimage/fs/rt11"
	_ "pdpimage/fs/solo"
	_ "pdpimage/fs/tss8"
	_ "pdpimage/fs/unixv0"
	_ "pdpimage/fs/unixv1"
	_ "pdpimage/fs/unixv6"
	_ "pdpimage/fs/unixv7"
)

// mountImage opens imagePath under the named driver, matching
// amstrad_read.go's open-file/wrap-reader/switch-on-type/dispatch shape,
// but dispatching through the fs registry instead of a literal switch since
// this module's driver set is picked by name
// rather than guessed from the file extension.
func mountImage(imagePath, fstype string, readOnly, strict bool) (fsapi.Filesystem, error) {
	if fstype == "" {
		return nil, fmt.Errorf("a --fstype is required; supported types: %v", fsapi.Types())
	}
	factory, ok := fsapi.Lookup(fstype)
	if !ok {
		return nil, fmt.Errorf("unsupported media type: %q (supported: %v)", fstype, fsapi.Types())
	}
	f, err := factory(imagePath, readOnly, strict)
	if err != nil {
		return nil, errors.Wrapf(err, "mounting %s", imagePath)
	}
	return f, nil
}
