package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/models"
)

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Fetch and decrypt a shared snippet",
	Example: `  sealshare open 'https://sealshare.dev/s/abc123#q83vEjRWeJq...'
  sealshare open https://sealshare.dev/s/xyz789 --prompt-password --out notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

var (
	openPassword       string
	openPromptPassword bool
	openOut            string
)

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().StringVarP(&openPassword, "password", "p", "", "Password for protected snippets")
	openCmd.Flags().BoolVarP(&openPromptPassword, "prompt-password", "P", false, "Prompt for the password")
	openCmd.Flags().StringVarP(&openOut, "out", "o", "", "Write content to a file instead of stdout")
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	password, err := resolvePassword(openPassword, openPromptPassword, false)
	if err != nil {
		return err
	}

	snippet, err := apiClient.Snippets.Open(ctx, args[0], password)
	if errors.Is(err, models.ErrPasswordRequired) && password == "" && !jsonOutput && canPrompt() {
		// Ask once instead of failing
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
		snippet, err = apiClient.Snippets.Open(ctx, args[0], password)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"id":                 snippet.ID,
			"title":              snippet.Title,
			"language":           snippet.Language,
			"password_protected": snippet.PasswordProtected,
			"created_at":         snippet.CreatedAt,
			"expires_at":         snippet.ExpiresAt,
			"content":            snippet.Content,
		})
		return nil
	}

	if err := writeOutput(openOut, []byte(snippet.Content)); err != nil {
		return err
	}
	if openOut != "" {
		printSuccess("Wrote %s to %s", color.YellowString(snippet.ID), openOut)
	}

	return nil
}
