package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"pdpimage/shell"
)

var dumpCmd = &cobra.Command{
	Use:                   "dump IMAGE PATH [start [end]]",
	Short:                 "Hex/ASCII dump of one file's bytes",
	Args:                  cobra.RangeArgs(2, 4),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		start, end := 0, 0
		if len(args) > 2 {
			start, _ = strconv.Atoi(args[2])
		}
		if len(args) > 3 {
			end, _ = strconv.Atoi(args[3])
		}
		vol := &shell.Volume{Name: args[0], FS: f}
		if err := shell.Dump(os.Stdout, vol, args[1], start, end); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(dumpCmd)
	rootCmd.AddCommand(dumpCmd)
}
