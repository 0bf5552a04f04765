package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fsapi "pdpimage/fs"
)

var (
	dirBrief  bool
	dirFull   bool
	dirUIC    bool
	dirBitmap bool
)

var dirCmd = &cobra.Command{
	Use:                   "dir IMAGE [pattern]",
	Short:                 "Lists file directories",
	Args:                  cobra.RangeArgs(1, 2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		pattern := ""
		if len(args) > 1 {
			pattern = args[1]
		}
		options := fsapi.DirOptions{Brief: dirBrief, Full: dirFull, UIC: dirUIC, Bitmap: dirBitmap}
		if err := f.Dir(os.Stdout, args[0], pattern, options); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	addMountFlags(dirCmd)
	dirCmd.Flags().BoolVar(&dirBrief, "brief", false, "Brief listing")
	dirCmd.Flags().BoolVar(&dirFull, "full", false, "Full listing")
	dirCmd.Flags().BoolVar(&dirUIC, "uic", false, "List UIC/PPN accounts")
	dirCmd.Flags().BoolVar(&dirBitmap, "bitmap", false, "Include free-block bitmap")
	rootCmd.AddCommand(dirCmd)
}
