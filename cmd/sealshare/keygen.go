package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a fresh URL-safe 256-bit key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.NewProvider().GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}

		if jsonOutput {
			printJSON(map[string]string{"key": crypto.EncodeKey(key)})
			return nil
		}
		fmt.Fprintln(stdout, crypto.EncodeKey(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
