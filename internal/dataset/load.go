package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/obralex/obralex/internal/validation"
)

// ValidationError reports every schema problem found in a dataset at
// once, rather than failing on the first.
type ValidationError struct {
	Problems []validation.ValidationError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return "invalid dataset: " + strings.Join(msgs, "; ")
}

// Load reads and validates both documents from disk. A validation failure
// is fatal to initialization; callers surface the full problem list.
func Load(legalPath, rulesPath string) (*Dataset, error) {
	legal, err := loadJSON[LegalDocument](legalPath)
	if err != nil {
		return nil, fmt.Errorf("legal document: %w", err)
	}
	rules, err := loadJSON[RulesDocument](rulesPath)
	if err != nil {
		return nil, fmt.Errorf("rules document: %w", err)
	}
	if err := Validate(legal, rules); err != nil {
		return nil, err
	}
	// Modalities are keyed by id; backfill the id field when the document
	// omits it inside the value.
	for id, m := range rules.Modalities {
		if m.ID == "" {
			m.ID = id
			rules.Modalities[id] = m
		}
	}
	return &Dataset{Legal: legal, Rules: rules}, nil
}

func loadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// Validate checks both documents against the minimal schema, collecting
// every missing or invalid field before reporting.
func Validate(legal *LegalDocument, rules *RulesDocument) error {
	var c validation.Collector

	c.Add(validation.ValidateRequired("legal.id", legal.ID))
	c.Add(validation.ValidateRequired("legal.nombre", legal.Name))
	c.Add(validation.ValidateRequired("legal.version", legal.Version))
	c.Add(validation.ValidateRequired("legal.fuente_url", legal.SourceURL))
	c.Add(validation.ValidateRequired("legal.fecha_vigencia", legal.EffectiveDate))
	if legal.Structure == nil {
		c.Add(&validation.ValidationError{Field: "legal.estructura", Message: "is required and must be an array"})
	}

	if rules.Wizard.Questions == nil {
		c.Add(&validation.ValidationError{Field: "rules.wizard.questions", Message: "is required"})
	}
	if rules.Wizard.Decisions == nil {
		c.Add(&validation.ValidationError{Field: "rules.wizard.decisions", Message: "is required"})
	}
	if rules.Modalities == nil {
		c.Add(&validation.ValidationError{Field: "rules.modalities", Message: "is required"})
	}
	if rules.StageTemplates == nil {
		c.Add(&validation.ValidationError{Field: "rules.stage_templates", Message: "is required and must be an array"})
	}

	questionTypes := []string{
		string(QuestionBoolean), string(QuestionNumber), string(QuestionChoice),
	}
	for _, q := range rules.Wizard.Questions {
		if q.ID == "" {
			c.Add(&validation.ValidationError{Field: "rules.wizard.questions", Message: "question without id"})
			continue
		}
		c.Add(validation.ValidateEnum("rules.wizard.questions."+q.ID, string(q.Type), questionTypes))
	}

	for id, m := range rules.Modalities {
		if m.ID != "" && m.ID != id {
			c.Add(&validation.ValidationError{
				Field:   "rules.modalities." + id,
				Message: fmt.Sprintf("id field %q does not match key", m.ID),
			})
		}
	}

	if c.HasErrors() {
		return &ValidationError{Problems: c.Errors()}
	}
	return nil
}
