package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// mountCmd implements the mount half of the interactive shell's
// MOUNT [/<fstype>] logical: path verb: it resolves and opens a driver over
// an image and reports whether the mount succeeds. Binding the mounted
// filesystem to a logical drive letter (`AB:`) is the out-of-scope volume
// registry's job (shell/doc.go); this subcommand is the one-shot,
// non-interactive equivalent a script or forensic pipeline would call to
// sanity-check an image before handing it to that registry.
var mountCmd = &cobra.Command{
	Use:                   "mount IMAGE",
	Short:                 "Mounts an image and reports its filesystem summary",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		entries, err := f.EntriesList()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("%s: mounted %s, %d entries, types: %v\n", args[0], fstype, len(entries), f.GetTypes())
	},
}

func init() {
	addMountFlags(mountCmd)
	rootCmd.AddCommand(mountCmd)
}
