package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdpimage/shell"
)

var (
	copyFromType string
	copyToType   string
)

var copyCmd = &cobra.Command{
	Use:                   "copy SRC-IMAGE SRC-PATTERN DST-IMAGE DST-PATH",
	Short:                 "Copies files between images",
	Args:                  cobra.ExactArgs(4),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		from, err := mountImage(args[0], copyFromType, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer from.Close()

		to, err := mountImage(args[2], copyToType, false, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer to.Close()

		fromVol := &shell.Volume{Name: args[0], FS: from}
		toVol := &shell.Volume{Name: args[2], FS: to}
		if err := shell.Copy(os.Stdout, fromVol, args[1], toVol, args[3]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	copyCmd.Flags().StringVar(&copyFromType, "from-fstype", "", "Source filesystem type")
	copyCmd.Flags().StringVar(&copyToType, "to-fstype", "", "Destination filesystem type")
	copyCmd.Flags().BoolVar(&strictMode, "strict", false, "Fail mount on a signature/magic-number mismatch instead of falling back")
	copyCmd.MarkFlagRequired("from-fstype")
	copyCmd.MarkFlagRequired("to-fstype")
	rootCmd.AddCommand(copyCmd)
}
