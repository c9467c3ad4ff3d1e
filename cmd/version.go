package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags; "dev" otherwise.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pospf version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pospf " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
