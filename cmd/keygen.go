package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:     "keygen",
	Short:   "Generate a fresh 32-byte base64-encoded shared key for the [key] config field",
	GroupID: "run",
	Run: func(cmd *cobra.Command, args []string) {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			fmt.Fprintln(os.Stderr, "failed to generate key:", err)
			os.Exit(1)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(key))
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
