package shell

import (
	"fmt"
	"io"

	"pdpimage/encoding"
	fsapi "pdpimage/fs"
)

func joinPath(dir, base string) string {
	if dir == "" {
		return base
	}
	return dir + "/" + base
}

// Dir implements DIR [/brief|/full|/uic] path, delegating to
// the driver's own format-native listing, matching rt11/shell.py's do_dir.
func Dir(w io.Writer, vol *Volume, pattern string, options fsapi.DirOptions) error {
	return vol.FS.Dir(w, vol.Name, pattern, options)
}

// Type implements TYPE path: writes every matching file's bytes to w in
// ASCII view, matching rt11/shell.py's do_type.
func Type(w io.Writer, vol *Volume, pattern string) error {
	entries, err := vol.FS.FilterEntriesList(pattern, false, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("?TYPE-F-No files")
	}
	for _, e := range entries {
		content, err := vol.FS.ReadBytes(e.Name(), int(encoding.ASCII))
		if err != nil {
			return err
		}
		if _, err := w.Write(content); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Copy implements COPY src dst, matching rt11/shell.py's do_copy: a single
// source copies to an explicit destination name (or the source's own name
// under the destination's current directory); multiple sources require dst
// to be a directory and each copies under its own basename.
func Copy(w io.Writer, from *Volume, fromPattern string, to *Volume, toPath string) error {
	entries, err := from.FS.FilterEntriesList(fromPattern, false, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("?COPY-F-No files")
	}
	if len(entries) == 1 {
		source := entries[0]
		dest := toPath
		switch {
		case dest == "":
			dest = joinPath(to.FS.GetPwd(), source.Name())
		case to.FS.IsDir(dest):
			dest = joinPath(dest, source.Name())
		}
		return copyOne(w, from, source, to, dest)
	}
	dest := toPath
	if dest == "" {
		dest = to.FS.GetPwd()
	} else if !to.FS.IsDir(dest) {
		return fmt.Errorf("?COPY-F-Target must be a volume or a directory")
	}
	for _, source := range entries {
		if err := copyOne(w, from, source, to, joinPath(dest, source.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyOne(w io.Writer, from *Volume, source fsapi.Entry, to *Volume, dest string) error {
	fmt.Fprintf(w, "%s -> %s\n", formatVolumeSpec(from.Name, source.Name()), formatVolumeSpec(to.Name, dest))
	content, err := from.FS.ReadBytes(source.Name(), int(encoding.IMAGE))
	if err != nil {
		return fmt.Errorf("?COPY-F-Error copying %s", source.Name())
	}
	date := ""
	if d, ok := source.CreationDate(); ok {
		date = fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	if err := to.FS.WriteBytes(dest, content, date, source.FileType(), int(encoding.IMAGE)); err != nil {
		return fmt.Errorf("?COPY-F-Error copying %s", source.Name())
	}
	return nil
}

// Del implements DEL path, matching rt11/shell.py's do_del.
func Del(vol *Volume, pattern string) error {
	entries, err := vol.FS.FilterEntriesList(pattern, false, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("?DEL-F-No files")
	}
	for _, e := range entries {
		if err := vol.FS.Delete(e); err != nil {
			return fmt.Errorf("?DEL-F-Error deleting %s", e.Name())
		}
	}
	return nil
}

// Create implements CREATE path blocks, matching rt11/shell.py's do_create.
func Create(vol *Volume, path string, blocks int) (fsapi.Entry, error) {
	if blocks < 0 {
		return nil, fmt.Errorf("?CREATE-F-Invalid value specified with option")
	}
	return vol.FS.CreateFile(path, blocks, "", "")
}

// Examine implements EXAMINE [/bitmap|/full] [path], matching
// rt11/shell.py's do_examine.
func Examine(w io.Writer, vol *Volume, arg string, options fsapi.ExamineOptions) error {
	return vol.FS.Examine(w, arg, options)
}

// Initialize implements INIT [/<fstype>] path, matching rt11/shell.py's
// do_initialize.
func Initialize(vol *Volume, options fsapi.InitOptions) error {
	return vol.FS.Initialize(options)
}

// Chdir implements CD path, matching rt11/shell.py's do_cd.
func Chdir(vol *Volume, path string) error {
	if err := vol.FS.Chdir(path); err != nil {
		return fmt.Errorf("?CD-F-Directory not found")
	}
	return nil
}

// Pwd implements PWD and the bare CD form, matching rt11/shell.py's do_pwd.
func Pwd(vol *Volume) string {
	return formatVolumeSpec(vol.Name, vol.FS.GetPwd())
}

// Dump implements DUMP path [start [end]]: an octal-addressed byte/ASCII
// dump of one file's bytes.
func Dump(w io.Writer, vol *Volume, path string, start, end int) error {
	content, err := vol.FS.ReadBytes(path, int(encoding.IMAGE))
	if err != nil {
		return err
	}
	if end <= 0 || end > len(content) {
		end = len(content)
	}
	if start < 0 {
		start = 0
	}
	for addr := start; addr < end; addr += 16 {
		line := content[addr:min(addr+16, end)]
		fmt.Fprintf(w, "%06o  ", addr)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(w, "%03o ", line[i])
			} else {
				fmt.Fprint(w, "    ")
			}
		}
		fmt.Fprint(w, " ")
		for _, b := range line {
			if b >= 0x20 && b < 0x7F {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
