package cmd

import (
	"fmt"
	"os"

	"github.com/go-pospf/pospf/config"
	"github.com/go-pospf/pospf/control"
	"github.com/spf13/cobra"
)

var socketPath string

var neighborsCmd = &cobra.Command{
	Use:     "neighbors",
	Short:   "List this router's neighbor adjacencies",
	GroupID: "inspect",
	Run: func(cmd *cobra.Command, args []string) {
		runControlCommand("neighbors")
	},
}

func runControlCommand(command string) {
	client := control.NewClient(socketPath)
	lines, err := client.Send(command)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if len(lines) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func init() {
	rootCmd.AddCommand(neighborsCmd)
	rootCmd.PersistentFlags().StringVar(&socketPath, "control-socket", config.DefaultControlSocketPath, "control port socket path")
}
