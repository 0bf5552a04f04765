package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"pdpimage/shell"
)

var createCmd = &cobra.Command{
	Use:                   "create IMAGE PATH BLOCKS",
	Short:                 "Creates a file with a specific name and size",
	Args:                  cobra.ExactArgs(3),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		blocks, err := strconv.Atoi(args[2])
		if err != nil || blocks < 0 {
			fmt.Println("?KMON-F-Invalid value specified with option")
			os.Exit(1)
		}

		f, err := mountImage(args[0], fstype, false, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		vol := &shell.Volume{Name: args[0], FS: f}
		if _, err := shell.Create(vol, args[1], blocks); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(createCmd)
	rootCmd.AddCommand(createCmd)
}
