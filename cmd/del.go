package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdpimage/shell"
)

var delCmd = &cobra.Command{
	Use:                   "del IMAGE PATTERN",
	Short:                 "Removes files from a volume",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, false, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		vol := &shell.Volume{Name: args[0], FS: f}
		if err := shell.Del(vol, args[1]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(delCmd)
	rootCmd.AddCommand(delCmd)
}
