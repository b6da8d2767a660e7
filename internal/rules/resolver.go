package rules

import (
	"errors"

	"github.com/obralex/obralex/internal/dataset"
)

// ErrUndetermined is returned when no decision rule matches and the
// rules document declares no default modality. Callers report this as
// "undetermined"; the user may re-answer and retry.
var ErrUndetermined = errors.New("modality could not be determined")

// Resolve applies the ordered decision table to a normalized answer set
// and returns the selected modality id. The first rule whose conditions
// all hold wins; an empty condition list matches unconditionally.
// Resolution is a pure function of (rules, answers).
func Resolve(rules *dataset.RulesDocument, answers dataset.AnswerSet) (string, error) {
	for _, rule := range rules.Wizard.Decisions {
		if matchesAll(rule.When, answers) {
			return rule.ResultModality, nil
		}
	}
	if rules.Wizard.DefaultModality != "" {
		return rules.Wizard.DefaultModality, nil
	}
	return "", ErrUndetermined
}

func matchesAll(conds []dataset.Condition, answers dataset.AnswerSet) bool {
	for _, c := range conds {
		if !Test(answers[c.Question], c.Operator, c.Expected) {
			return false
		}
	}
	return true
}
