package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fsapi "pdpimage/fs"
)

var (
	examineBitmap bool
	examineFull   bool
)

var examineCmd = &cobra.Command{
	Use:                   "examine IMAGE [path]",
	Short:                 "Examines disk/block/file structure",
	Args:                  cobra.RangeArgs(1, 2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		options := fsapi.ExamineOptions{Bitmap: examineBitmap, Full: examineFull}
		if err := f.Examine(os.Stdout, path, options); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(examineCmd)
	examineCmd.Flags().BoolVar(&examineBitmap, "bitmap", false, "Dump the free-block bitmap")
	examineCmd.Flags().BoolVar(&examineFull, "full", false, "Full diagnostic detail")
	rootCmd.AddCommand(examineCmd)
}
