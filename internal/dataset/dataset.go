// Package dataset loads and validates the two immutable input documents:
// the rules document (wizard questions, decision table, modalities, stage
// templates) and the legal-structure document (nested sections carrying
// requirements). Both are checked into typed structures at load time so
// the rules engine never sees raw JSON shapes.
package dataset

// QuestionType classifies the answer shape of a wizard question.
type QuestionType string

const (
	QuestionBoolean QuestionType = "boolean"
	QuestionNumber  QuestionType = "number"
	QuestionChoice  QuestionType = "choice"
)

// QuestionOption is one selectable value of a choice question.
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question defines the shape of one wizard answer.
type Question struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Help    string           `json:"help,omitempty"`
	Type    QuestionType     `json:"type"`
	Min     *float64         `json:"min,omitempty"`
	Max     *float64         `json:"max,omitempty"`
	Options []QuestionOption `json:"options,omitempty"`
}

// Condition compares one answer against a literal.
type Condition struct {
	Question string `json:"q"`
	Operator string `json:"op"`
	Expected any    `json:"v"`
}

// DecisionRule maps an answer pattern to a resulting modality. Rules are
// evaluated in declared order; the first rule whose conditions all hold
// wins. An empty condition list matches unconditionally.
type DecisionRule struct {
	When           []Condition `json:"when"`
	ResultModality string      `json:"result_modality"`
}

// Wizard holds the question list and the ordered decision table.
type Wizard struct {
	Questions       []Question     `json:"questions"`
	Decisions       []DecisionRule `json:"decisions"`
	DefaultModality string         `json:"default_modality,omitempty"`
}

// Modality identifies a regulatory pathway and the full set of
// requirements it mandates.
type Modality struct {
	ID             string   `json:"id"`
	Name           string   `json:"nombre"`
	Description    string   `json:"descripcion,omitempty"`
	RequirementIDs []string `json:"applicable_requirement_ids"`
}

// StageTemplate declares one checklist stage and the requirement ids it
// may contain. Template order defines checklist stage order.
type StageTemplate struct {
	ID             string   `json:"id"`
	Name           string   `json:"nombre"`
	RequirementIDs []string `json:"requirement_ids"`
}

// RulesDocument is the declarative rule input. Immutable once loaded.
type RulesDocument struct {
	Wizard         Wizard              `json:"wizard"`
	Modalities     map[string]Modality `json:"modalities"`
	StageTemplates []StageTemplate     `json:"stage_templates"`
}

// Modality looks up a modality by id.
func (r *RulesDocument) Modality(id string) (Modality, bool) {
	m, ok := r.Modalities[id]
	return m, ok
}

// InputField describes one value a requirement asks the user to record.
type InputField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// ExpectedEvidence names one document expected as proof of fulfillment.
type ExpectedEvidence struct {
	Name   string `json:"nombre"`
	Format string `json:"formato,omitempty"`
}

// Requirement is a single regulatory obligation attached to a legal
// section. Immutable reference data.
type Requirement struct {
	ID            string             `json:"id"`
	Name          string             `json:"nombre"`
	Description   string             `json:"descripcion,omitempty"`
	Entity        string             `json:"entidad,omitempty"`
	Responsible   string             `json:"responsable_tipo,omitempty"`
	EstimatedDays int                `json:"plazo_estimado_dias,omitempty"`
	LegalBaseRef  string             `json:"base_legal_ref,omitempty"`
	Inputs        []InputField       `json:"entradas,omitempty"`
	Evidence      []ExpectedEvidence `json:"evidencias,omitempty"`
}

// Section is one node of the legal-structure tree.
type Section struct {
	ID           string        `json:"id"`
	Kind         string        `json:"tipo,omitempty"`
	Number       string        `json:"numero,omitempty"`
	Name         string        `json:"nombre,omitempty"`
	Summary      string        `json:"texto_resumen,omitempty"`
	SourceURL    string        `json:"source_url,omitempty"`
	Requirements []Requirement `json:"requisitos,omitempty"`
	Children     []Section     `json:"children,omitempty"`
}

// LegalDocument is the legal-structure input. Immutable once loaded.
type LegalDocument struct {
	ID            string    `json:"id"`
	Name          string    `json:"nombre"`
	Version       string    `json:"version"`
	SourceURL     string    `json:"fuente_url"`
	EffectiveDate string    `json:"fecha_vigencia"`
	Structure     []Section `json:"estructura"`
}

// Walk visits every section of the tree depth-first in declared order.
func Walk(sections []Section, fn func(*Section)) {
	for i := range sections {
		fn(&sections[i])
		if len(sections[i].Children) > 0 {
			Walk(sections[i].Children, fn)
		}
	}
}

// Dataset bundles the two loaded documents.
type Dataset struct {
	Legal *LegalDocument
	Rules *RulesDocument
}
