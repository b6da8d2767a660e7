package dataset

import (
	"fmt"
)

// AnswerSet maps question ids to typed values. Allowed value types are
// bool, float64, string and nil (unanswered).
type AnswerSet map[string]any

// NormalizeAnswers returns an answer set with exactly one entry per
// declared question. Missing answers become nil; answers for undeclared
// questions are rejected so typos never silently skew resolution.
func NormalizeAnswers(rules *RulesDocument, raw AnswerSet) (AnswerSet, error) {
	declared := make(map[string]Question, len(rules.Wizard.Questions))
	for _, q := range rules.Wizard.Questions {
		declared[q.ID] = q
	}
	for id := range raw {
		if _, ok := declared[id]; !ok {
			return nil, fmt.Errorf("answer for undeclared question %q", id)
		}
	}

	out := make(AnswerSet, len(declared))
	for id, q := range declared {
		v, ok := raw[id]
		if !ok || v == nil {
			out[id] = nil
			continue
		}
		typed, err := coerceAnswer(q, v)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		out[id] = typed
	}
	return out, nil
}

// coerceAnswer checks a raw answer value against the question type.
// JSON decoding already yields bool/float64/string, so this is a shape
// check rather than a conversion.
func coerceAnswer(q Question, v any) (any, error) {
	switch q.Type {
	case QuestionBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case QuestionNumber:
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return n, nil
	case QuestionChoice:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		if len(q.Options) > 0 {
			for _, opt := range q.Options {
				if opt.Value == s {
					return s, nil
				}
			}
			return nil, fmt.Errorf("value %q is not an option", s)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", q.Type)
	}
}
