package rules

import (
	"fmt"
	"time"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/types"
)

// ErrUnknownModality is returned when stage generation is invoked with a
// modality id the rules document does not declare. Generation fails
// loudly instead of producing an empty checklist.
type ErrUnknownModality struct {
	ModalityID string
}

func (e *ErrUnknownModality) Error() string {
	return fmt.Sprintf("unknown modality %q", e.ModalityID)
}

// Generate expands a resolved modality into the ordered stage list.
//
// The modality's applicable requirement ids are treated as a true set
// (duplicates collapse). Each stage template keeps the intersection of
// its own ids with that set, preserving template order; templates with
// an empty intersection are omitted entirely. A requirement id listed in
// several templates yields one independent checklist item per stage.
func Generate(rules *dataset.RulesDocument, modalityID string, now time.Time) ([]types.Stage, error) {
	mod, ok := rules.Modality(modalityID)
	if !ok {
		return nil, &ErrUnknownModality{ModalityID: modalityID}
	}

	applicable := make(map[string]struct{}, len(mod.RequirementIDs))
	for _, id := range mod.RequirementIDs {
		applicable[id] = struct{}{}
	}

	var stages []types.Stage
	for _, tpl := range rules.StageTemplates {
		var items []types.ChecklistItem
		seen := make(map[string]struct{}, len(tpl.RequirementIDs))
		for _, rid := range tpl.RequirementIDs {
			if _, ok := applicable[rid]; !ok {
				continue
			}
			if _, dup := seen[rid]; dup {
				continue
			}
			seen[rid] = struct{}{}
			items = append(items, types.ChecklistItem{
				RequirementID: rid,
				State:         types.ItemPending,
				Values:        map[string]any{},
				Evidence:      []types.Evidence{},
				Notes:         "",
				UpdatedAt:     now,
			})
		}
		if len(items) == 0 {
			continue
		}
		stages = append(stages, types.Stage{
			ID:    tpl.ID,
			Name:  tpl.Name,
			State: types.StageNotStarted,
			Items: items,
		})
	}
	return stages, nil
}
