package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/services/snippets"
)

var shareCmd = &cobra.Command{
	Use:   "share [file|-]",
	Short: "Encrypt and upload a snippet",
	Long: `Share encrypts a file (or stdin) locally and uploads the ciphertext.

Without a password the printed link contains the key in its fragment.
With --password or --prompt-password the link has no key and readers
must enter the password.`,
	Example: `  sealshare share main.go --lang go --expiry 1d
  cat notes.txt | sealshare share --prompt-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShare,
}

var (
	shareTitle          string
	shareLanguage       string
	shareExpiry         string
	shareVisibility     string
	sharePassword       string
	sharePromptPassword bool
	shareNoHistory      bool
)

func init() {
	rootCmd.AddCommand(shareCmd)

	shareCmd.Flags().StringVarP(&shareTitle, "title", "t", "", "Snippet title")
	shareCmd.Flags().StringVarP(&shareLanguage, "lang", "l", "", "Syntax language (default from file extension or config)")
	shareCmd.Flags().StringVarP(&shareExpiry, "expiry", "e", "", "Expiry: 1h, 1d, 7d, 30d or never")
	shareCmd.Flags().StringVar(&shareVisibility, "visibility", "", "Visibility: public, unlisted or private")
	shareCmd.Flags().StringVarP(&sharePassword, "password", "p", "", "Protect with a password instead of a link key")
	shareCmd.Flags().BoolVarP(&sharePromptPassword, "prompt-password", "P", false, "Prompt for a password")
	shareCmd.Flags().BoolVar(&shareNoHistory, "no-history", false, "Do not record the share locally")
}

func runShare(cmd *cobra.Command, args []string) error {
	content, err := readInput(args, cfg.Share.MaxContentSize)
	if err != nil {
		return err
	}

	password, err := resolvePassword(sharePassword, sharePromptPassword, true)
	if err != nil {
		return err
	}

	title := shareTitle
	language := shareLanguage
	if len(args) > 0 && args[0] != "-" {
		if title == "" {
			title = filepath.Base(args[0])
		}
		if language == "" {
			language = languageFromPath(args[0])
		}
	}

	ctx, stop := commandContext()
	defer stop()

	result, err := apiClient.Snippets.Share(ctx, snippets.ShareRequest{
		Content:    string(content),
		Title:      title,
		Language:   language,
		Expiry:     shareExpiry,
		Visibility: shareVisibility,
		Password:   password,
		NoHistory:  shareNoHistory,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	fmt.Fprintln(stdout, result.URL)
	if result.PasswordProtected {
		printSuccess("Shared %s (password protected)", color.YellowString(result.ID))
		printInfo("Send the password separately from the link")
	} else {
		printSuccess("Shared %s", color.YellowString(result.ID))
		printInfo("Anyone with the full link can read it")
	}
	if result.ExpiresAt != nil {
		printInfo("Expires %s", result.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	if result.HistoryID != "" {
		printInfo("Delete with %s", color.YellowString("sealshare delete "+result.ID))
	}

	return nil
}

var extensionLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".sh":   "bash",
	".sql":  "sql",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "markdown",
	".html": "html",
	".css":  "css",
}

func languageFromPath(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}
