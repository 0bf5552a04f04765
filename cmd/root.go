// Package cmd implements the non-interactive CLI surface: one subcommand per
// shell verb, each resolving a driver via the fs registry and calling into
// it following an open-image/resolve-driver/dispatch shape.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdpimage",
	Short: "Mount and manipulate vintage minicomputer disk and tape images",
	Long: `pdpimage is a forensic/archival tool for mounting and manipulating
vintage minicomputer disk and magnetic-tape images across fourteen
historical formats (RT-11, DOS-11/XXDP, CAPS-11, SOLO, DECSys, UNIX
v0/v1/v6/v7, DMS, OS/8, TSS/8, DG RDOS Dump, DG RDOS MagTape).`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// fstype and strictMode are shared by every subcommand that mounts an
// image, bound once per-command via addMountFlags. Whether a command opens
// its image read-only follows the command's own semantics (DIR/TYPE/EXAMINE
// /DUMP never write; COPY/DEL/CREATE/INIT do) rather than a user-facing
// flag.
var (
	fstype     string
	strictMode bool
)

func addMountFlags(c *cobra.Command) {
	c.Flags().StringVarP(&fstype, "fstype", "t", "", "Filesystem type: rt11, dos11, caps11, solo, decsys, dms, os8, tss8, unix0, unix1, unix6, unix7, dump, dgdosmt")
	c.Flags().BoolVar(&strictMode, "strict", false, "Fail mount on a signature/magic-number mismatch instead of falling back")
	c.MarkFlagRequired("fstype")
}
