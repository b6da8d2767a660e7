package main

import (
	"context"
	"fmt"
	"os"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/export"
	"github.com/spf13/cobra"
)

var dossierOutputPath string

var projectDossierCmd = &cobra.Command{
	Use:   "dossier <project-id>",
	Short: "Render the printable HTML dossier of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDossier,
}

func init() {
	projectDossierCmd.Flags().StringVarP(&dossierOutputPath, "output", "o", "",
		"Write to file instead of stdout")
}

func runProjectDossier(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, cfg, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ds, err := dataset.Load(cfg.Dataset.LegalPath, cfg.Dataset.RulesPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	p, err := s.GetProject(ctx, args[0])
	if err != nil {
		return err
	}

	html, err := export.Dossier(p, dataset.NewRequirementIndex(ds.Legal))
	if err != nil {
		return err
	}

	if dossierOutputPath != "" {
		if err := os.WriteFile(dossierOutputPath, html, 0644); err != nil {
			return fmt.Errorf("write dossier: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Dossier for %q written to %s\n", p.ID, dossierOutputPath)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(html)
	return err
}
