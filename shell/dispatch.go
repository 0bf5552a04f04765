package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	fsapi "pdpimage/fs"
)

// Result carries Dispatch's outcome: whether the caller's loop should exit,
// and any diagnostic text already written to w (Dispatch writes command
// output directly to w; Result.Err is the raw error for callers that want
// to format their own diagnostic instead of relying on w).
type Result struct {
	Exit bool
	Err  error
}

// Dispatch parses one command line in rt11/shell.py's syntax (a bare verb
// followed by shlex-style space-separated arguments, `/option` switches
// anywhere in the argument list, and the `?`/`!`/`@` line-prefix shorthands
// for HELP/shell-passthrough/batch) and executes it against reg, writing
// all command output to w. It never mounts or dismounts a volume itself —
// MOUNT/DISMOUNT/SHOW resolve through reg, whose registry semantics are the
// caller's to define (doc.go).
func Dispatch(w io.Writer, reg Registry, line string) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}
	}
	switch line[0] {
	case '?':
		return dispatchHelp(w, line[1:])
	case '!':
		return Result{Err: fmt.Errorf("?KMON-F-Shell passthrough is not available")}
	case '@':
		return Result{Err: fmt.Errorf("?KMON-F-Batch execution is not available")}
	}
	if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
		return Result{} // bare "AB:" default-volume switch, a registry concern
	}

	verb, rest := splitVerb(line)
	args, options := extractOptions(rest)

	switch strings.ToUpper(verb) {
	case "DIR", "LS":
		return dispatchDir(w, reg, args, options)
	case "TYPE":
		return dispatchType(w, reg, args)
	case "COPY":
		return dispatchCopy(w, reg, args)
	case "DEL":
		return dispatchDel(reg, args)
	case "CREATE":
		return dispatchCreate(reg, args)
	case "EXAMINE":
		return dispatchExamine(w, reg, args, options)
	case "INIT", "INITIALIZE":
		return dispatchInit(reg, args, options)
	case "DUMP":
		return dispatchDump(w, reg, args)
	case "CD":
		return dispatchCd(w, reg, args)
	case "PWD":
		return dispatchPwd(w, reg, args)
	case "EXIT", "QUIT":
		return Result{Exit: true}
	case "HELP":
		return dispatchHelp(w, strings.Join(args, " "))
	case "MOUNT", "DISMOUNT", "SHOW":
		return Result{Err: fmt.Errorf("?%s-F-Not available without a volume registry", strings.ToUpper(verb))}
	default:
		return Result{Err: fmt.Errorf("?KMON-F-Illegal command")}
	}
}

// splitVerb splits "verb rest" at the first run of whitespace, matching
// rt11/shell.py's parseline identchars scan.
func splitVerb(line string) (verb, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// extractOptions pulls "/option" tokens out of a shlex-style split,
// matching rt11/shell.py's extract_options.
func extractOptions(line string) (args []string, options map[string]bool) {
	options = map[string]bool{}
	for _, tok := range strings.Fields(line) {
		if strings.HasPrefix(tok, "/") {
			options[strings.ToLower(tok[1:])] = true
		} else {
			args = append(args, tok)
		}
	}
	return args, options
}

func resolve(reg Registry, spec string) (*Volume, string, error) {
	volName, path := SplitVolume(spec)
	vol, err := reg.Get(volName)
	if err != nil {
		return nil, "", err
	}
	return vol, path, nil
}

func dispatchDir(w io.Writer, reg Registry, args []string, options map[string]bool) Result {
	if len(args) > 1 {
		return Result{Err: fmt.Errorf("?DIR-F-Too many arguments")}
	}
	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	vol, pattern, err := resolve(reg, spec)
	if err != nil {
		return Result{Err: err}
	}
	opts := fsapi.DirOptions{Brief: options["brief"], Full: options["full"], UIC: options["uic"], Bitmap: options["bitmap"]}
	if err := Dir(w, vol, pattern, opts); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchType(w io.Writer, reg Registry, args []string) Result {
	if len(args) != 1 {
		return Result{Err: fmt.Errorf("?TYPE-F-Too many arguments")}
	}
	vol, pattern, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	if err := Type(w, vol, pattern); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchCopy(w io.Writer, reg Registry, args []string) Result {
	if len(args) != 2 {
		return Result{Err: fmt.Errorf("?COPY-F-Too many arguments")}
	}
	fromVol, fromPattern, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	toVol, toPath, err := resolve(reg, args[1])
	if err != nil {
		return Result{Err: err}
	}
	if err := Copy(w, fromVol, fromPattern, toVol, toPath); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchDel(reg Registry, args []string) Result {
	if len(args) != 1 {
		return Result{Err: fmt.Errorf("?DEL-F-Too many arguments")}
	}
	vol, pattern, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	if err := Del(vol, pattern); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchCreate(reg Registry, args []string) Result {
	if len(args) != 2 {
		return Result{Err: fmt.Errorf("?CREATE-F-Too many arguments")}
	}
	vol, path, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	blocks, err := strconv.Atoi(args[1])
	if err != nil || blocks < 0 {
		return Result{Err: fmt.Errorf("?KMON-F-Invalid value specified with option")}
	}
	if _, err := Create(vol, path, blocks); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchExamine(w io.Writer, reg Registry, args []string, options map[string]bool) Result {
	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	vol, path, err := resolve(reg, spec)
	if err != nil {
		return Result{Err: err}
	}
	opts := fsapi.ExamineOptions{Bitmap: options["bitmap"], Full: options["full"]}
	if err := Examine(w, vol, path, opts); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchInit(reg Registry, args []string, options map[string]bool) Result {
	if len(args) != 1 {
		return Result{Err: fmt.Errorf("?INIT-F-Too many arguments")}
	}
	vol, _, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	extra := map[string]string{}
	for k := range options {
		extra[k] = "1"
	}
	if err := Initialize(vol, fsapi.InitOptions{Extra: extra}); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchDump(w io.Writer, reg Registry, args []string) Result {
	if len(args) < 1 || len(args) > 3 {
		return Result{Err: fmt.Errorf("?DUMP-F-Invalid number of arguments")}
	}
	vol, path, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	start, end := 0, 0
	if len(args) > 1 {
		start, _ = strconv.Atoi(args[1])
	}
	if len(args) > 2 {
		end, _ = strconv.Atoi(args[2])
	}
	if err := Dump(w, vol, path, start, end); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchCd(w io.Writer, reg Registry, args []string) Result {
	if len(args) > 1 {
		return Result{Err: fmt.Errorf("?CD-F-Too many arguments")}
	}
	if len(args) == 0 {
		return dispatchPwd(w, reg, nil)
	}
	vol, path, err := resolve(reg, args[0])
	if err != nil {
		return Result{Err: err}
	}
	if err := Chdir(vol, path); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func dispatchPwd(w io.Writer, reg Registry, _ []string) Result {
	vol, _, err := resolve(reg, "")
	if err != nil {
		return Result{Err: err}
	}
	fmt.Fprintln(w, Pwd(vol))
	return Result{}
}

func dispatchHelp(w io.Writer, topic string) Result {
	if topic == "" {
		fmt.Fprintln(w, "DIR TYPE COPY DEL CREATE MOUNT DISMOUNT INIT CD PWD SHOW EXAMINE DUMP HELP EXIT")
		return Result{}
	}
	fmt.Fprintf(w, "%s\n", strings.ToUpper(topic))
	return Result{}
}
