package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/obralex/obralex/internal/types"
	"github.com/spf13/cobra"
)

var importActivate bool

var projectImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a project from a JSON export",
	Long:  "Upsert a previously exported project record by id. The record must carry an id; nothing is written when validation fails.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectImport,
}

func init() {
	projectImportCmd.Flags().BoolVar(&importActivate, "activate", true,
		"Make the imported project active")
}

func runProjectImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var p types.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}
	if p.ID == "" {
		return errors.New("imported record is missing the id field")
	}

	s, _, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	created, err := s.UpsertProject(ctx, &p)
	if err != nil {
		return err
	}
	if importActivate {
		if err := s.SetActiveProject(ctx, p.ID); err != nil {
			return err
		}
	}

	if projectJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      p.ID,
			"created": created,
		})
	}

	verb := "Updated"
	if created {
		verb = "Imported"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s project %q (%s)\n", verb, p.Name, p.ID)
	return nil
}
