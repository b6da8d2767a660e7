package types

import (
	"encoding/json"
	"time"
)

// ItemState is the fulfillment state of a single checklist item.
type ItemState string

const (
	ItemPending       ItemState = "pendiente"
	ItemPartial       ItemState = "parcial"
	ItemFulfilled     ItemState = "cumplido"
	ItemNotApplicable ItemState = "no_aplica"
)

// ValidItemState reports whether s is one of the four known item states.
func ValidItemState(s ItemState) bool {
	switch s {
	case ItemPending, ItemPartial, ItemFulfilled, ItemNotApplicable:
		return true
	}
	return false
}

// StageState is the derived status of a stage. It is never set directly;
// it is recomputed from item states on every commit.
type StageState string

const (
	StageNotStarted StageState = "no_iniciado"
	StageInProgress StageState = "en_proceso"
	StageComplete   StageState = "completo"
)

// Evidence is a user-attached file proving fulfillment of a checklist item.
// Content is embedded as a data-URI so a project record is self-contained.
type Evidence struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"type"`
	Size      int64  `json:"size"`
	Data      string `json:"b64"`
}

// ChecklistItem tracks one requirement's fulfillment within one stage of
// one project. One instance exists per (stage, requirement) pair.
type ChecklistItem struct {
	RequirementID string         `json:"requirement_id"`
	State         ItemState      `json:"estado"`
	Values        map[string]any `json:"valores"`
	Evidence      []Evidence     `json:"evidencia_adjunta"`
	Notes         string         `json:"notas"`
	UpdatedAt     time.Time      `json:"fecha_update"`
}

// Stage is an ordered grouping of checklist items representing one phase
// of compliance work.
type Stage struct {
	ID    string          `json:"id"`
	Name  string          `json:"nombre"`
	State StageState      `json:"estado"`
	Items []ChecklistItem `json:"checklist_items"`
}

// Item returns the checklist item for the given requirement id, or nil.
func (s *Stage) Item(requirementID string) *ChecklistItem {
	for i := range s.Items {
		if s.Items[i].RequirementID == requirementID {
			return &s.Items[i]
		}
	}
	return nil
}

// ProjectDates holds the planning dates of a project card.
type ProjectDates struct {
	Start  string `json:"inicio"`
	Target string `json:"objetivo"`
}

// ActionLog records one user-visible action on a project.
type ActionLog struct {
	At     time.Time `json:"fecha"`
	Action string    `json:"accion"`
	Detail string    `json:"detalle"`
}

// Action log entries use a small fixed vocabulary.
const (
	ActionCreate    = "CREAR"
	ActionEdit      = "EDITAR"
	ActionChecklist = "CHECKLIST"
	ActionImport    = "IMPORTAR"
)

// Project owns an ordered list of stages, the resolved modality (empty
// until the wizard has run) and the identifying metadata card. Its JSON
// serialization is the import/export interchange format.
type Project struct {
	ID         string       `json:"id"`
	Name       string       `json:"nombre"`
	Location   string       `json:"ubicacion"`
	District   string       `json:"distrito"`
	Province   string       `json:"provincia"`
	Department string       `json:"departamento"`
	Typology   string       `json:"tipologia"`
	AreaM2     float64      `json:"metrado_m2"`
	Floors     int          `json:"pisos"`
	Modality   string       `json:"modalidad_resultado,omitempty"`
	Dates      ProjectDates `json:"fechas"`
	Stages     []Stage      `json:"etapas"`
	Logs       []ActionLog  `json:"logs"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Stage returns the stage with the given id, or nil.
func (p *Project) Stage(id string) *Stage {
	for i := range p.Stages {
		if p.Stages[i].ID == id {
			return &p.Stages[i]
		}
	}
	return nil
}

// Log prepends an action log entry, newest first.
func (p *Project) Log(action, detail string) {
	p.Logs = append([]ActionLog{{At: time.Now().UTC(), Action: action, Detail: detail}}, p.Logs...)
}

// MarshalJSON ensures nil slices and maps in ChecklistItem marshal as
// empty collections, keeping exported records stable for re-import.
func (c ChecklistItem) MarshalJSON() ([]byte, error) {
	if c.Values == nil {
		c.Values = map[string]any{}
	}
	if c.Evidence == nil {
		c.Evidence = []Evidence{}
	}
	type Alias ChecklistItem
	return json.Marshal(Alias(c))
}

// MarshalJSON ensures nil slices in Stage marshal as [] not null.
func (s Stage) MarshalJSON() ([]byte, error) {
	if s.Items == nil {
		s.Items = []ChecklistItem{}
	}
	type Alias Stage
	return json.Marshal(Alias(s))
}

// MarshalJSON ensures nil slices in Project marshal as [] not null.
func (p Project) MarshalJSON() ([]byte, error) {
	if p.Stages == nil {
		p.Stages = []Stage{}
	}
	if p.Logs == nil {
		p.Logs = []ActionLog{}
	}
	type Alias Project
	return json.Marshal(Alias(p))
}
