package fs

import "github.com/pkg/errors"

// The five common error kinds. Every driver returns an error whose
// errors.Cause is one of these sentinels, wrapped with context via
// errors.Wrap/Wrapf; the shell dispatch surface recovers the kind with
// errors.Cause to pick the "?COMMAND-F-Message" diagnostic.
var (
	// ErrNotFound: path resolution failed.
	ErrNotFound = errors.New("not found")
	// ErrIO: invalid block index, negative count, I/O failure, malformed
	// record, or an internal invariant violation (checksum mismatch,
	// impossible link pointer, self-referential directory).
	ErrIO = errors.New("I/O error")
	// ErrReadOnly: attempted mutation on a driver that cannot write.
	ErrReadOnly = errors.New("read-only filesystem")
	// ErrNoSpace: bitmap/catalog/directory cannot accommodate an
	// allocation; on-disk state is left unchanged.
	ErrNoSpace = errors.New("no space left on device")
	// ErrInvalidArg: user-provided path/filename/size is syntactically
	// invalid for the target filesystem; raised before any I/O.
	ErrInvalidArg = errors.New("invalid argument")
)

// Cause recovers the fs sentinel error kind of err, or nil if err does not
// wrap one of them.
func Cause(err error) error {
	switch errors.Cause(err) {
	case ErrNotFound:
		return ErrNotFound
	case ErrIO:
		return ErrIO
	case ErrReadOnly:
		return ErrReadOnly
	case ErrNoSpace:
		return ErrNoSpace
	case ErrInvalidArg:
		return ErrInvalidArg
	default:
		return nil
	}
}
