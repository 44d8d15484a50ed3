package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/client"
	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/events"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool

	cfg       *config.Config
	cfgPath   string
	requestID string
	logger    *events.Logger
	apiClient *client.Client

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

var rootCmd = &cobra.Command{
	Use:   "sealshare",
	Short: "Share end-to-end encrypted snippets",
	Long: `sealshare encrypts snippets locally before uploading them.

Key-mode links carry the decryption key in the URL fragment, which never
reaches the server. Password-mode links carry no key; readers enter the
password instead.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.sealshare/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails
	if cerr := teardown(nil, nil); err == nil {
		err = cerr
	}
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		} else {
			printError("%v", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	var err error
	cfg, err = loader.Load()
	if err != nil {
		return err
	}
	cfgPath = loader.ConfigPath()

	if verbose {
		cfg.Log.Level = "debug"
	}
	if !cfg.Log.Color || jsonOutput {
		color.NoColor = true
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	requestID = uuid.NewString()
	logger = logger.WithField("request_id", requestID)

	apiClient, err = client.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if apiClient == nil {
		return nil
	}
	err := apiClient.Close()
	apiClient = nil
	return err
}

// commandContext is cancelled on interrupt and carries the invocation's
// request ID to the HTTP client.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(events.WithRequestID(context.Background(), requestID), os.Interrupt)
}

// Output helpers

func printJSON(v interface{}) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.RedString("✗")+" "+fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.YellowString("!")+" "+fmt.Sprintf(format, args...))
}
