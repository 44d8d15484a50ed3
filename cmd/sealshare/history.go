package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the local list of shared snippets",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shared snippets, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry including its link",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Forget an entry without deleting the snippet",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRemove,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every entry",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop entries whose snippets have expired",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the history into another backend",
	Example: `  sealshare history migrate --to sqlite
  # then set history.backend to sqlite`,
	Args: cobra.NoArgs,
	RunE: runHistoryMigrate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a shared snippet from the server and the history",
	Long:  `Delete uses the delete token recorded when the snippet was shared.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	historyClearYes  bool
	historyShowLink  bool
	historyMigrateTo string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(deleteCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyRemoveCmd,
		historyClearCmd, historyPruneCmd, historyMigrateCmd)

	historyShowCmd.Flags().BoolVar(&historyShowLink, "link", true, "Include the full link")
	historyClearCmd.Flags().BoolVarP(&historyClearYes, "yes", "y", false, "Confirm clearing")
	historyMigrateCmd.Flags().StringVar(&historyMigrateTo, "to", "sqlite", "Target backend: json or sqlite")
}

func historyStore() (history.Store, error) {
	if apiClient.History == nil {
		return nil, fmt.Errorf("history is disabled (history.enabled=false)")
	}
	return apiClient.History, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entries)
		return nil
	}

	if len(entries) == 0 {
		printInfo("No shared snippets")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SNIPPET\tTITLE\tMODE\tCREATED\tEXPIRES")
	for _, e := range entries {
		mode := "key"
		if e.PasswordProtected {
			mode = "password"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.SnippetID, orDash(e.Title), mode,
			e.CreatedAt.Local().Format("2006-01-02 15:04"), expiryLabel(e, now))
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entry)
		return nil
	}

	fmt.Fprintf(stdout, "ID:        %s\n", entry.ID)
	fmt.Fprintf(stdout, "Snippet:   %s\n", entry.SnippetID)
	fmt.Fprintf(stdout, "Title:     %s\n", orDash(entry.Title))
	fmt.Fprintf(stdout, "Language:  %s\n", orDash(entry.Language))
	fmt.Fprintf(stdout, "Password:  %t\n", entry.PasswordProtected)
	fmt.Fprintf(stdout, "Created:   %s\n", entry.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(stdout, "Expires:   %s\n", expiryLabel(entry, time.Now()))
	if historyShowLink {
		fmt.Fprintf(stdout, "Link:      %s\n", entry.URL)
	}
	return nil
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	if err := store.Remove(args[0]); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "removed": args[0]})
		return nil
	}
	printSuccess("Removed %s from history", color.YellowString(args[0]))
	printWarning("The snippet itself still exists until it expires")
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}
	if !historyClearYes {
		return fmt.Errorf("refusing to clear history without --yes")
	}

	if err := store.Clear(); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
		return nil
	}
	printSuccess("History cleared")
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	removed, err := store.Prune(time.Now())
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "removed": removed})
		return nil
	}
	printSuccess("Pruned %d expired entries", removed)
	return nil
}

func runHistoryMigrate(cmd *cobra.Command, args []string) error {
	src, err := historyStore()
	if err != nil {
		return err
	}
	if historyMigrateTo == cfg.History.Backend {
		return fmt.Errorf("history already uses the %s backend", historyMigrateTo)
	}

	target := cfg.History
	target.Backend = historyMigrateTo
	dst, err := history.Open(&target, logger)
	if err != nil {
		return err
	}
	defer dst.Close()

	n, err := history.Migrate(src, dst)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "migrated": n, "backend": historyMigrateTo})
		return nil
	}
	printSuccess("Copied %d entries to the %s backend in %s", n, historyMigrateTo, filepath.Clean(target.Dir))
	printInfo("Set %s to switch", color.YellowString("history.backend: "+historyMigrateTo))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	if err := apiClient.Snippets.Delete(ctx, args[0]); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "deleted": args[0]})
		return nil
	}
	printSuccess("Deleted %s", color.YellowString(args[0]))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func expiryLabel(e *history.Entry, now time.Time) string {
	switch {
	case e.ExpiresAt == nil:
		return "never"
	case e.Expired(now):
		return color.RedString("expired")
	default:
		return e.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
}
