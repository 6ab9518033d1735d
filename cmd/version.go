package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VERSION is the on-disk/on-screen release string.
const VERSION = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cdbg v%s\n", VERSION)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
