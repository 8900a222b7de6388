// Package main provides the cv_builder command: the editor API server and
// maintenance commands for saved CV documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/logger"
)

var (
	configPath  string
	storeURL    string
	logModeFlag string

	// Resolved by loadSettings before any subcommand runs.
	cfg    config.Config
	appLog = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "cv_builder",
	Short: "CV editor with live preview, undo history and export",
	Long: "cv_builder edits a single CV document with live preview, undo/redo, " +
		"named saves, AI text enhancement and PDF, LaTeX, JSON or text export.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&storeURL, "store", "", "Store URL: memory://, sqlite://<path>, postgres://... or redis://...")
	rootCmd.PersistentFlags().StringVar(&logModeFlag, "log-mode", "", "Log format: dev or prod")
}

// loadSettings resolves the configuration (flags over file over environment)
// and builds the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		loaded.StoreURL = storeURL
	}
	if cmd.Flags().Changed("log-mode") {
		loaded.LogMode = logModeFlag
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	log, err := logger.New(loaded.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	cfg = loaded
	appLog = log
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.ExecuteContext(context.Background())
	appLog.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
