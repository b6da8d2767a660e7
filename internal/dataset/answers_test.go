package dataset

import (
	"strings"
	"testing"
)

func answersRulesDoc() *RulesDocument {
	return &RulesDocument{
		Wizard: Wizard{
			Questions: []Question{
				{ID: "area", Type: QuestionNumber},
				{ID: "ampliacion", Type: QuestionBoolean},
				{ID: "uso", Type: QuestionChoice, Options: []QuestionOption{
					{Value: "vivienda", Label: "Vivienda"},
					{Value: "comercio", Label: "Comercio"},
				}},
			},
		},
	}
}

func TestNormalizeAnswers_FillsMissingWithNil(t *testing.T) {
	doc := answersRulesDoc()

	out, err := NormalizeAnswers(doc, AnswerSet{"area": float64(120)})
	if err != nil {
		t.Fatalf("NormalizeAnswers failed: %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("entry count: got %d, want 3", len(out))
	}
	if out["area"] != float64(120) {
		t.Errorf("area: got %v", out["area"])
	}
	if out["ampliacion"] != nil {
		t.Errorf("ampliacion should be nil, got %v", out["ampliacion"])
	}
	if out["uso"] != nil {
		t.Errorf("uso should be nil, got %v", out["uso"])
	}
}

func TestNormalizeAnswers_RejectsUndeclaredQuestion(t *testing.T) {
	doc := answersRulesDoc()

	_, err := NormalizeAnswers(doc, AnswerSet{"pisos": float64(2)})
	if err == nil {
		t.Fatal("expected error for undeclared question")
	}
	if !strings.Contains(err.Error(), "pisos") {
		t.Errorf("error should name the question: %v", err)
	}
}

func TestNormalizeAnswers_TypeChecks(t *testing.T) {
	doc := answersRulesDoc()

	tests := []struct {
		name    string
		raw     AnswerSet
		wantErr bool
	}{
		{"valid shapes", AnswerSet{"area": float64(1), "ampliacion": true, "uso": "vivienda"}, false},
		{"string for number", AnswerSet{"area": "120"}, true},
		{"number for boolean", AnswerSet{"ampliacion": float64(1)}, true},
		{"bool for choice", AnswerSet{"uso": true}, true},
		{"choice outside options", AnswerSet{"uso": "industrial"}, true},
		{"explicit nil is allowed", AnswerSet{"area": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeAnswers(doc, tt.raw)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAnswers_ChoiceWithoutOptionsAcceptsAnyString(t *testing.T) {
	doc := &RulesDocument{
		Wizard: Wizard{Questions: []Question{{ID: "zona", Type: QuestionChoice}}},
	}

	out, err := NormalizeAnswers(doc, AnswerSet{"zona": "rural"})
	if err != nil {
		t.Fatalf("NormalizeAnswers failed: %v", err)
	}
	if out["zona"] != "rural" {
		t.Errorf("zona: got %v", out["zona"])
	}
}
