package cmd

import "github.com/spf13/cobra"

var routesCmd = &cobra.Command{
	Use:     "routes",
	Short:   "List the routes this router currently owns in the kernel routing table",
	GroupID: "inspect",
	Run: func(cmd *cobra.Command, args []string) {
		runControlCommand("routing-table")
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
