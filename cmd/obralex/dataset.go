package main

import (
	"errors"
	"fmt"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	datasetLegalPath string
	datasetRulesPath string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect the rules and legal-structure documents",
}

var datasetValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the dataset documents",
	Long:  "Check both documents against the minimal schema, reporting every missing or invalid field at once.",
	Args:  cobra.NoArgs,
	RunE:  runDatasetValidate,
}

func init() {
	datasetCmd.PersistentFlags().StringVar(&datasetLegalPath, "legal", "",
		"Legal-structure document path (overrides config)")
	datasetCmd.PersistentFlags().StringVar(&datasetRulesPath, "rules", "",
		"Rules document path (overrides config)")

	datasetCmd.AddCommand(datasetValidateCmd)
}

func runDatasetValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	legalPath := datasetLegalPath
	if legalPath == "" {
		legalPath = cfg.Dataset.LegalPath
	}
	rulesPath := datasetRulesPath
	if rulesPath == "" {
		rulesPath = cfg.Dataset.RulesPath
	}

	ds, err := dataset.Load(legalPath, rulesPath)
	if err != nil {
		var verr *dataset.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Dataset is invalid:")
			for _, p := range verr.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", p.Field, p.Message)
			}
		}
		return err
	}

	idx := dataset.NewRequirementIndex(ds.Legal)
	fmt.Fprintf(cmd.OutOrStdout(),
		"Dataset OK: %s v%s — %d questions, %d modalities, %d stage templates, %d requirements\n",
		ds.Legal.Name, ds.Legal.Version,
		len(ds.Rules.Wizard.Questions), len(ds.Rules.Modalities),
		len(ds.Rules.StageTemplates), idx.Len())
	return nil
}
