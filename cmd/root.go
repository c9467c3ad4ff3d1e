// Package cmd implements the pospf command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pospf",
	Short: "A simplified OSPF-inspired link-state interior routing daemon",
	Long: `pospf maintains a link-state database with its neighbors over an
authenticated UDP transport, runs Dijkstra's shortest-path algorithm against
it, and keeps the kernel routing table in sync with the result.`,
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "run", Title: "Running the router"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "Inspecting a running router"})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/pospf/router.toml", "router config file")
}
