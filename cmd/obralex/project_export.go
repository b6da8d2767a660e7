package main

import (
	"context"
	"fmt"
	"os"

	"github.com/obralex/obralex/internal/export"
	"github.com/spf13/cobra"
)

var exportOutputPath string

var projectExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project as JSON",
	Long:  "Write the full JSON serialization of a project (checklist and embedded evidence included) to stdout or a file. The output re-imports unchanged.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectExport,
}

func init() {
	projectExportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "",
		"Write to file instead of stdout")
}

func runProjectExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, _, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.GetProject(ctx, args[0])
	if err != nil {
		return err
	}

	data, err := export.ProjectJSON(p)
	if err != nil {
		return err
	}

	if exportOutputPath != "" {
		if err := os.WriteFile(exportOutputPath, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported project %q to %s\n", p.ID, exportOutputPath)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
