package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/obralex/obralex/internal/config"
	"github.com/obralex/obralex/internal/store"
	"github.com/spf13/cobra"
)

var (
	projectDBOverride string
	projectJSONOutput bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "List, export, import and render projects without running the server.",
}

func init() {
	projectCmd.PersistentFlags().StringVar(&projectDBOverride, "db", "",
		"Database path (overrides config and OBRALEX_DB_PATH)")
	projectCmd.PersistentFlags().BoolVar(&projectJSONOutput, "json", false,
		"Output in JSON format")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectImportCmd)
	projectCmd.AddCommand(projectDossierCmd)

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(datasetCmd)
}

// resolveStore opens the project store from config with optional --db override.
func resolveStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, nil, err
	}

	dbPath := projectDBOverride
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	s.SetMaxRecordBytes(cfg.Storage.MaxRecordBytes)
	return s, cfg, nil
}

// loadCLIConfig loads config without requiring an API key; local CLI
// commands talk to the store directly, so auth does not apply.
func loadCLIConfig() (*config.Config, error) {
	os.Setenv("OBRALEX_DEV_MODE", "true")
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
