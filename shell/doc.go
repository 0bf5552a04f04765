// Package shell implements the command dispatch surface: a thin layer that
// binds filesystem driver operations to the verbs an interactive shell or
// batch script issues, without itself being a shell.
//
// The interactive loop (readline, command history, tab completion) and the
// volume-mounting registry (`DK:`/`SY:`/user-mounted `AB:` drive letters,
// the `LAST:` alias) are out of scope; they belong to the external caller.
// This package's contract with that caller is the Registry interface below:
// a name->Volume lookup, case-insensitive on the volume name, that resolves
// `LAST:` however the caller's registry chooses to track it (most recently
// mounted, most recently referenced, or a fixed default). Dispatch never
// mounts, dismounts, or remembers a volume across calls; it only resolves
// one command line through whatever Registry it is given.
package shell
