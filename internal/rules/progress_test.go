package rules

import (
	"testing"

	"github.com/obralex/obralex/internal/types"
)

func stageWithStates(states ...types.ItemState) types.Stage {
	items := make([]types.ChecklistItem, len(states))
	for i, st := range states {
		items[i] = types.ChecklistItem{RequirementID: "R", State: st}
	}
	return types.Stage{ID: "S", Items: items}
}

func TestStageProgress(t *testing.T) {
	tests := []struct {
		name   string
		states []types.ItemState
		want   Progress
	}{
		{
			name:   "mixed with partial counting half",
			states: []types.ItemState{types.ItemFulfilled, types.ItemPartial, types.ItemPending, types.ItemNotApplicable},
			want:   Progress{Pct: 50, Total: 3, Fulfilled: 1, Partial: 1},
		},
		{
			name:   "not applicable excluded from denominator",
			states: []types.ItemState{types.ItemFulfilled, types.ItemPartial, types.ItemNotApplicable},
			want:   Progress{Pct: 75, Total: 2, Fulfilled: 1, Partial: 1},
		},
		{
			name:   "all fulfilled",
			states: []types.ItemState{types.ItemFulfilled, types.ItemFulfilled},
			want:   Progress{Pct: 100, Total: 2, Fulfilled: 2},
		},
		{
			name:   "all pending",
			states: []types.ItemState{types.ItemPending, types.ItemPending},
			want:   Progress{Pct: 0, Total: 2},
		},
		{
			name:   "all not applicable reports zero not hundred",
			states: []types.ItemState{types.ItemNotApplicable, types.ItemNotApplicable},
			want:   Progress{Pct: 0, Total: 0},
		},
		{
			name:   "no items",
			states: nil,
			want:   Progress{},
		},
		{
			name:   "single partial rounds half away from zero",
			states: []types.ItemState{types.ItemPartial, types.ItemPending, types.ItemPending, types.ItemPending},
			want:   Progress{Pct: 13, Total: 4, Partial: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := stageWithStates(tt.states...)
			got := StageProgress(&stage)
			if got != tt.want {
				t.Errorf("StageProgress = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStageProgress_PartialAndFulfilledCombination(t *testing.T) {
	// 2 fulfilled + 2 partial out of 4: (2 + 0.5*2)/4 = 75%.
	stage := stageWithStates(
		types.ItemFulfilled, types.ItemFulfilled,
		types.ItemPartial, types.ItemPartial,
	)
	got := StageProgress(&stage)
	if got.Pct != 75 {
		t.Errorf("Pct: got %d, want 75", got.Pct)
	}
}

func TestProjectProgress(t *testing.T) {
	// Stage percentages 100, 50 and 0 average to 50.
	p := &types.Project{
		Stages: []types.Stage{
			stageWithStates(types.ItemFulfilled, types.ItemFulfilled),
			stageWithStates(types.ItemFulfilled, types.ItemPending),
			stageWithStates(types.ItemPending, types.ItemPending),
		},
	}
	if got := ProjectProgress(p); got != 50 {
		t.Errorf("ProjectProgress = %d, want 50", got)
	}
}

func TestProjectProgress_NoStages(t *testing.T) {
	if got := ProjectProgress(&types.Project{}); got != 0 {
		t.Errorf("ProjectProgress with no stages = %d, want 0", got)
	}
}

func TestProjectProgress_StagesWeighEqually(t *testing.T) {
	// A big unfinished stage and a tiny finished one average to 50,
	// regardless of item counts.
	big := stageWithStates(
		types.ItemPending, types.ItemPending, types.ItemPending,
		types.ItemPending, types.ItemPending, types.ItemPending,
	)
	small := stageWithStates(types.ItemFulfilled)

	p := &types.Project{Stages: []types.Stage{big, small}}
	if got := ProjectProgress(p); got != 50 {
		t.Errorf("ProjectProgress = %d, want 50", got)
	}
}

func TestStageStatus(t *testing.T) {
	tests := []struct {
		pct  int
		want types.StageState
	}{
		{0, types.StageNotStarted},
		{1, types.StageInProgress},
		{50, types.StageInProgress},
		{98, types.StageInProgress},
		{99, types.StageComplete},
		{100, types.StageComplete},
	}
	for _, tt := range tests {
		if got := StageStatus(tt.pct); got != tt.want {
			t.Errorf("StageStatus(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestCommitStageStatus(t *testing.T) {
	p := &types.Project{
		Stages: []types.Stage{
			stageWithStates(types.ItemFulfilled, types.ItemFulfilled),
			stageWithStates(types.ItemPartial, types.ItemPending),
			stageWithStates(types.ItemPending),
		},
	}

	CommitStageStatus(p)

	want := []types.StageState{types.StageComplete, types.StageInProgress, types.StageNotStarted}
	for i, s := range p.Stages {
		if s.State != want[i] {
			t.Errorf("stage %d state: got %q, want %q", i, s.State, want[i])
		}
	}
}

func TestCommitStageStatus_NotApplicableOnlyStageStaysNotStarted(t *testing.T) {
	p := &types.Project{
		Stages: []types.Stage{
			stageWithStates(types.ItemNotApplicable, types.ItemNotApplicable),
		},
	}

	CommitStageStatus(p)

	if p.Stages[0].State != types.StageNotStarted {
		t.Errorf("state: got %q, want %q", p.Stages[0].State, types.StageNotStarted)
	}
}
