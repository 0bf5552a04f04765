package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fsapi "pdpimage/fs"
)

var initTotalBlocks int

// initCmd implements the INIT [/<fstype>] verb: writes an empty filesystem
// of the named type onto the image.
var initCmd = &cobra.Command{
	Use:                   "init IMAGE",
	Short:                 "Writes an empty filesystem onto the image",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, false, false)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		options := fsapi.InitOptions{TotalBlocks: initTotalBlocks}
		if err := f.Initialize(options); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(initCmd)
	initCmd.Flags().IntVar(&initTotalBlocks, "blocks", 0, "Total block count (0: infer from the image's current size)")
	rootCmd.AddCommand(initCmd)
}
