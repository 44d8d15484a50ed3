package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/share"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [file|-]",
	Short: "Encrypt locally and print the JSON envelope",
	Long: `Encrypt produces the same envelope a share would upload, without
contacting the server. In key mode the key is printed to stderr.`,
	Example: `  sealshare encrypt secret.txt > secret.json
  echo hi | sealshare encrypt --password hunter2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncrypt,
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [file|-]",
	Short: "Decrypt a JSON envelope produced by encrypt",
	Example: `  sealshare decrypt secret.json --key q83vEjRWeJq...
  sealshare decrypt secret.json --prompt-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecrypt,
}

var (
	cryptPassword       string
	cryptPromptPassword bool
	decryptKey          string
	decryptOut          string
)

func init() {
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)

	for _, c := range []*cobra.Command{encryptCmd, decryptCmd} {
		c.Flags().StringVarP(&cryptPassword, "password", "p", "", "Password mode")
		c.Flags().BoolVarP(&cryptPromptPassword, "prompt-password", "P", false, "Prompt for the password")
	}
	decryptCmd.Flags().StringVarP(&decryptKey, "key", "k", "", "URL-safe key, or a full share link")
	decryptCmd.Flags().StringVarP(&decryptOut, "out", "o", "", "Write plaintext to a file instead of stdout")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	content, err := readInput(args, cfg.Share.MaxContentSize)
	if err != nil {
		return err
	}

	password, err := resolvePassword(cryptPassword, cryptPromptPassword, true)
	if err != nil {
		return err
	}

	sealed, err := apiClient.Snippets.Seal(string(content), password)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	if jsonOutput {
		out := map[string]interface{}{"envelope": sealed.Wire()}
		if sealed.Key != nil {
			out["key"] = crypto.EncodeKey(sealed.Key)
		}
		printJSON(out)
		return nil
	}

	printJSON(sealed.Wire())
	if sealed.Key != nil {
		printInfo("Key: %s", color.YellowString(crypto.EncodeKey(sealed.Key)))
	}
	return nil
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	data, err := readInput(args, 0)
	if err != nil {
		return err
	}

	var wire crypto.WirePasswordEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}
	// Accept the --json form of encrypt as well
	if wire.Ciphertext == "" {
		var wrapped struct {
			Envelope crypto.WirePasswordEnvelope `json:"envelope"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil {
			wire = wrapped.Envelope
		}
	}

	passwordMode := wire.Salt != ""

	var (
		key      []byte
		password string
	)
	if passwordMode {
		password, err = resolvePassword(cryptPassword, cryptPromptPassword || cryptPassword == "", false)
		if err != nil {
			return err
		}
	} else {
		if decryptKey == "" {
			return fmt.Errorf("key-mode envelope needs --key")
		}
		key, err = parseKeyFlag(decryptKey)
		if err != nil {
			return err
		}
	}

	plaintext, err := apiClient.Snippets.Unseal(wire, key, password, passwordMode)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"plaintext": plaintext})
		return nil
	}
	return writeOutput(decryptOut, []byte(plaintext))
}

// parseKeyFlag accepts a bare URL-safe key or a share link carrying one.
func parseKeyFlag(value string) ([]byte, error) {
	if link, err := share.ParseURL(value); err == nil && link.HasKey() {
		return link.Key, nil
	}

	key, err := crypto.DecodeKey(value)
	if err != nil {
		return nil, fmt.Errorf("parse --key: %w", err)
	}
	if err := crypto.ValidateKeySize(key); err != nil {
		return nil, fmt.Errorf("parse --key: %w", err)
	}
	return key, nil
}
