package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdpimage/encoding"
)

var typeCmd = &cobra.Command{
	Use:                   "type IMAGE PATTERN",
	Short:                 "Outputs files to the terminal",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := mountImage(args[0], fstype, true, strictMode)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		entries, err := f.FilterEntriesList(args[1], false, true)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("?TYPE-F-No files")
			os.Exit(1)
		}
		for _, e := range entries {
			content, err := f.ReadBytes(e.Name(), int(encoding.ASCII))
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			os.Stdout.Write(content)
			fmt.Println()
		}
	},
}

func init() {
	addMountFlags(typeCmd)
	rootCmd.AddCommand(typeCmd)
}
