// Package export renders a project into its interchange formats: the
// JSON backup used for import/export round-trips and a printable HTML
// dossier grouping requirements by stage.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/rules"
	"github.com/obralex/obralex/internal/types"
)

// ProjectJSON serializes a project for backup. The output re-imports to
// a deep-equal project entity.
func ProjectJSON(p *types.Project) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

type dossierItem struct {
	Name        string
	State       types.ItemState
	Description string
	Entity      string
	Responsible string
	LegalBase   string
	Notes       string
	Evidence    []string
	Missing     bool
	ReqID       string
}

type dossierStage struct {
	Name     string
	State    types.StageState
	Pct      int
	Items    []dossierItem
	AnchorID int
}

type dossierData struct {
	Project *types.Project
	Pct     int
	Stages  []dossierStage
}

// Dossier renders the printable compliance dossier for a project.
// Requirement metadata and legal-base labels come from the requirement
// index; requirements missing from the dataset are flagged inline
// instead of dropped.
func Dossier(p *types.Project, idx *dataset.RequirementIndex) ([]byte, error) {
	data := dossierData{
		Project: p,
		Pct:     rules.ProjectProgress(p),
	}
	for i := range p.Stages {
		st := &p.Stages[i]
		ds := dossierStage{
			Name:     st.Name,
			State:    st.State,
			Pct:      rules.StageProgress(st).Pct,
			AnchorID: i,
		}
		for _, item := range st.Items {
			di := dossierItem{State: item.State, Notes: item.Notes, ReqID: item.RequirementID}
			for _, ev := range item.Evidence {
				di.Evidence = append(di.Evidence, ev.Name)
			}
			req, ok := idx.Requirement(item.RequirementID)
			if !ok {
				di.Missing = true
				di.Name = item.RequirementID
				ds.Items = append(ds.Items, di)
				continue
			}
			di.Name = req.Name
			if di.Name == "" {
				di.Name = req.ID
			}
			di.Description = req.Description
			di.Entity = req.Entity
			di.Responsible = req.Responsible
			di.LegalBase = req.LegalBaseRef
			if sec, ok := idx.Section(req.LegalBaseRef); ok {
				di.LegalBase = fmt.Sprintf("%s — %s", dataset.SectionLabel(sec), sec.Name)
			}
			ds.Items = append(ds.Items, di)
		}
		data.Stages = append(data.Stages, ds)
	}

	var buf bytes.Buffer
	if err := dossierTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render dossier: %w", err)
	}
	return buf.Bytes(), nil
}

var dossierTmpl = template.Must(template.New("dossier").Parse(`<!doctype html>
<html lang="es">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Expediente — {{.Project.Name}}</title>
  <style>
    body{font-family:Arial, Helvetica, sans-serif;margin:0;color:#111}
    .wrap{max-width:980px;margin:0 auto;padding:12px 16px 24px}
    h1,h2,h3{page-break-after:avoid}
    table{width:100%;border-collapse:collapse;font-size:13px;page-break-inside:avoid}
    td{border-bottom:1px solid #eee;padding:6px 8px}
    td.k{width:220px;font-weight:bold}
    .stage{border-top:2px solid #eee;margin-top:18px;padding-top:16px}
    .req{border:1px solid #ddd;border-radius:10px;padding:10px 12px;margin:10px 0}
    .badge{display:inline-block;padding:2px 8px;border:1px solid #ccc;border-radius:999px;font-size:12px}
    .muted{color:#444;font-size:12px}
    @media print{ .noprint{display:none} }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="noprint" style="padding:8px 0"><button onclick="window.print()">Imprimir / Guardar como PDF</button></div>
    <h1>Expediente de cumplimiento</h1>
    <h2>Ficha del proyecto</h2>
    <table>
      <tr><td class="k">Proyecto</td><td>{{.Project.Name}}</td></tr>
      <tr><td class="k">Ubicación</td><td>{{.Project.Location}}</td></tr>
      <tr><td class="k">Distrito</td><td>{{.Project.District}}</td></tr>
      <tr><td class="k">Tipología</td><td>{{.Project.Typology}}</td></tr>
      <tr><td class="k">Metrado (m²)</td><td>{{.Project.AreaM2}}</td></tr>
      <tr><td class="k">Pisos</td><td>{{.Project.Floors}}</td></tr>
      <tr><td class="k">Modalidad</td><td>{{.Project.Modality}}</td></tr>
      <tr><td class="k">Inicio</td><td>{{.Project.Dates.Start}}</td></tr>
      <tr><td class="k">Objetivo</td><td>{{.Project.Dates.Target}}</td></tr>
      <tr><td class="k">Progreso</td><td>{{.Pct}}%</td></tr>
    </table>
    <h2>Índice</h2>
    <ol>
      {{range .Stages}}<li><a href="#st_{{.AnchorID}}">{{.Name}}</a></li>
      {{end}}
    </ol>
    <p class="muted">Nota: este expediente contiene resúmenes operativos y referencias por ID.</p>
    {{range .Stages}}
    <section class="stage" id="st_{{.AnchorID}}">
      <h2>{{.Name}} <span class="badge">{{.State}}</span> <span class="badge">{{.Pct}}%</span></h2>
      {{if not .Items}}<div class="muted">Sin requisitos en esta etapa.</div>{{end}}
      {{range .Items}}
      <div class="req">
        <h4 style="margin:0 0 6px">{{.Name}} <span class="badge">{{.State}}</span></h4>
        {{if .Missing}}<div class="muted">Requisito no encontrado en el dataset: {{.ReqID}}</div>{{else}}
        <div class="muted">{{.Description}}</div>
        <div style="margin-top:8px;font-size:12px">
          <div><b>Entidad:</b> {{.Entity}}</div>
          <div><b>Responsable:</b> {{.Responsible}}</div>
          <div><b>Base legal:</b> {{.LegalBase}}</div>
          {{if .Notes}}<div style="margin-top:6px"><b>Notas:</b> {{.Notes}}</div>{{end}}
          {{if .Evidence}}<div style="margin-top:6px"><b>Evidencias</b>{{range .Evidence}}<div class="muted">• {{.}}</div>{{end}}</div>{{end}}
        </div>
        {{end}}
      </div>
      {{end}}
    </section>
    {{end}}
  </div>
</body>
</html>`))
