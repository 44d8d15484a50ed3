package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/sealshare/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigFile()
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := config.SaveExample(path); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"path": path})
			return nil
		}
		printSuccess("Wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.API.Token != "" {
			shown.API.Token = "***"
		}

		if !jsonOutput {
			if cfgPath != "" {
				printInfo("Loaded from %s", cfgPath)
			} else {
				printInfo("No config file found, using defaults and environment")
			}
		}
		printJSON(shown)
		return nil
	},
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
}

func defaultConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".sealshare", "config.json")
	}
	return "sealshare.json"
}
