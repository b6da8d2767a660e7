package rules

import (
	"math"

	"github.com/obralex/obralex/internal/types"
)

// Progress is the completion accounting of one stage. Items marked
// no_aplica are excluded from the denominator entirely.
type Progress struct {
	Pct       int `json:"pct"`
	Total     int `json:"total"`
	Fulfilled int `json:"fulfilled"`
	Partial   int `json:"partial"`
}

// StageProgress computes completion for a single stage. A partial item
// counts as half a fulfilled one. Percentages round half away from zero.
// A stage whose countable total is zero reports 0%, not 100%.
func StageProgress(stage *types.Stage) Progress {
	var p Progress
	for _, item := range stage.Items {
		switch item.State {
		case types.ItemNotApplicable:
			continue
		case types.ItemFulfilled:
			p.Fulfilled++
		case types.ItemPartial:
			p.Partial++
		}
		p.Total++
	}
	if p.Total > 0 {
		p.Pct = int(math.Round((float64(p.Fulfilled) + 0.5*float64(p.Partial)) / float64(p.Total) * 100))
	}
	return p
}

// ProjectProgress is the unweighted arithmetic mean of the stage
// percentages, rounded to the nearest integer. Stages weigh equally
// regardless of item count. A project with no stages reports 0.
func ProjectProgress(p *types.Project) int {
	if len(p.Stages) == 0 {
		return 0
	}
	sum := 0
	for i := range p.Stages {
		sum += StageProgress(&p.Stages[i]).Pct
	}
	return int(math.Round(float64(sum) / float64(len(p.Stages))))
}

// StageStatus derives a stage's status from its progress. The >= 99
// threshold absorbs rounding artifacts and must stay as-is.
func StageStatus(pct int) types.StageState {
	switch {
	case pct >= 99:
		return types.StageComplete
	case pct > 0:
		return types.StageInProgress
	default:
		return types.StageNotStarted
	}
}

// CommitStageStatus recomputes every stage's derived status. Invoked on
// an explicit commit/save action, not on every item mutation.
func CommitStageStatus(p *types.Project) {
	for i := range p.Stages {
		pr := StageProgress(&p.Stages[i])
		p.Stages[i].State = StageStatus(pr.Pct)
	}
}
