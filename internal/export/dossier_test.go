package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/types"
)

func exportTestIndex() *dataset.RequirementIndex {
	legal := &dataset.LegalDocument{
		Structure: []dataset.Section{
			{
				ID: "ART-10", Kind: "artículo", Number: "10", Name: "Requisitos administrativos",
				Requirements: []dataset.Requirement{
					{
						ID:          "R1",
						Name:        "Formulario Único de Edificación",
						Description: "FUE suscrito por el administrado.",
						Entity:      "Municipalidad distrital",
						Responsible: "propietario",
					},
				},
			},
		},
	}
	return dataset.NewRequirementIndex(legal)
}

func exportTestProject() *types.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &types.Project{
		ID:       "p1",
		Name:     "Edificio Magnolias",
		Location: "Av. Las Magnolias 123",
		District: "San Isidro",
		Typology: "multifamiliar",
		AreaM2:   850,
		Floors:   5,
		Modality: "B",
		Dates:    types.ProjectDates{Start: "2026-01-15", Target: "2026-12-20"},
		Stages: []types.Stage{
			{
				ID: "S2", Name: "Licencia", State: types.StageInProgress,
				Items: []types.ChecklistItem{
					{
						RequirementID: "R1",
						State:         types.ItemFulfilled,
						Notes:         "Presentado en mesa de partes",
						Evidence:      []types.Evidence{{ID: "ev1", Name: "fue.pdf"}},
						UpdatedAt:     now,
					},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestProjectJSON_RoundTrip(t *testing.T) {
	p := exportTestProject()

	data, err := ProjectJSON(p)
	if err != nil {
		t.Fatalf("ProjectJSON failed: %v", err)
	}

	var decoded types.Project
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != p.ID || decoded.Modality != p.Modality {
		t.Errorf("round trip lost identity: %+v", decoded)
	}
	if len(decoded.Stages) != 1 || decoded.Stages[0].Items[0].State != types.ItemFulfilled {
		t.Errorf("round trip lost checklist state: %+v", decoded.Stages)
	}
}

func TestDossier_RendersProjectCard(t *testing.T) {
	html, err := Dossier(exportTestProject(), exportTestIndex())
	if err != nil {
		t.Fatalf("Dossier failed: %v", err)
	}
	out := string(html)

	for _, want := range []string{
		"Expediente de cumplimiento",
		"Edificio Magnolias",
		"San Isidro",
		"Licencia",
		"Formulario Único de Edificación",
		"Municipalidad distrital",
		"Artículo 10 — Requisitos administrativos",
		"Presentado en mesa de partes",
		"fue.pdf",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dossier missing %q", want)
		}
	}
}

func TestDossier_FlagsMissingRequirement(t *testing.T) {
	p := exportTestProject()
	p.Stages[0].Items = append(p.Stages[0].Items, types.ChecklistItem{
		RequirementID: "R-GONE",
		State:         types.ItemPending,
	})

	html, err := Dossier(p, exportTestIndex())
	if err != nil {
		t.Fatalf("Dossier failed: %v", err)
	}
	out := string(html)

	if !strings.Contains(out, "R-GONE") {
		t.Error("missing requirement should still appear by id")
	}
	if !strings.Contains(out, "Requisito no encontrado en el dataset") {
		t.Error("missing requirement should be flagged inline")
	}
}

func TestDossier_EscapesUserContent(t *testing.T) {
	p := exportTestProject()
	p.Name = `<script>alert("x")</script>`

	html, err := Dossier(p, exportTestIndex())
	if err != nil {
		t.Fatalf("Dossier failed: %v", err)
	}
	if strings.Contains(string(html), "<script>alert") {
		t.Error("project name must be HTML-escaped")
	}
}

func TestDossier_EmptyProject(t *testing.T) {
	p := &types.Project{ID: "p1", Name: "Sin etapas"}

	html, err := Dossier(p, exportTestIndex())
	if err != nil {
		t.Fatalf("Dossier failed: %v", err)
	}
	if !strings.Contains(string(html), "Sin etapas") {
		t.Error("dossier should render a project without stages")
	}
}
