package shell

import (
	"fmt"

	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// diagnostic renders err as rt11/shell.py's "?COMMAND-F-Message" form, the
// format every do_* handler there raises on failure. verb is the command
// name that was being executed ("DIR", "TYPE", "COPY", ...).
func diagnostic(verb string, err error) string {
	switch fsapi.Cause(err) {
	case fsapi.ErrNotFound:
		return fmt.Sprintf("?%s-F-No such file or directory", verb)
	case fsapi.ErrIO:
		return fmt.Sprintf("?%s-F-I/O error", verb)
	case fsapi.ErrReadOnly:
		return fmt.Sprintf("?%s-F-Write-protected volume", verb)
	case fsapi.ErrNoSpace:
		return fmt.Sprintf("?%s-F-No space left on device", verb)
	case fsapi.ErrInvalidArg:
		return fmt.Sprintf("?%s-F-Invalid argument", verb)
	default:
		return fmt.Sprintf("?%s-F-%s", verb, errors.Cause(err))
	}
}
