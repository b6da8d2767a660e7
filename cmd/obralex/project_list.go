package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/obralex/obralex/internal/rules"
	"github.com/spf13/cobra"
)

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, _, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}
	activeID, err := s.ActiveProjectID(ctx)
	if err != nil {
		return err
	}

	if projectJSONOutput {
		type listed struct {
			ID       string `json:"id"`
			Name     string `json:"nombre"`
			Modality string `json:"modalidad_resultado,omitempty"`
			Progress int    `json:"progress"`
			Active   bool   `json:"active"`
		}
		out := make([]listed, len(projects))
		for i := range projects {
			out[i] = listed{
				ID:       projects[i].ID,
				Name:     projects[i].Name,
				Modality: projects[i].Modality,
				Progress: rules.ProjectProgress(&projects[i]),
				Active:   projects[i].ID == activeID,
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	if len(projects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No projects.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODALITY\tPROGRESS\tACTIVE")
	for i := range projects {
		p := &projects[i]
		active := ""
		if p.ID == activeID {
			active = "*"
		}
		modality := p.Modality
		if modality == "" {
			modality = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\n",
			p.ID, p.Name, modality, rules.ProjectProgress(p), active)
	}
	return tw.Flush()
}
