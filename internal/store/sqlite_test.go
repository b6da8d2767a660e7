package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/obralex/obralex/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProject(id string) *types.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &types.Project{
		ID:        id,
		Name:      "Obra " + id,
		District:  "Miraflores",
		Typology:  "vivienda",
		AreaM2:    120,
		Floors:    2,
		Dates:     types.ProjectDates{Start: "2026-01-01"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("p1")
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("Name: got %q, want %q", got.Name, p.Name)
	}
	if got.District != p.District {
		t.Errorf("District: got %q, want %q", got.District, p.District)
	}
	if got.AreaM2 != p.AreaM2 {
		t.Errorf("AreaM2: got %v, want %v", got.AreaM2, p.AreaM2)
	}
}

func TestSQLiteStore_CreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateProject(ctx, testProject("p1")); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	err := s.CreateProject(ctx, testProject("p1"))
	if !errors.Is(err, ErrProjectExists) {
		t.Fatalf("expected ErrProjectExists, got %v", err)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProject(context.Background(), "nope")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testProject("p1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testProject("p2")

	if err := s.CreateProject(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProject(ctx, newer); err != nil {
		t.Fatal(err)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("count: got %d, want 2", len(projects))
	}
	if projects[0].ID != "p2" || projects[1].ID != "p1" {
		t.Errorf("order: got %s, %s; want p2, p1", projects[0].ID, projects[1].ID)
	}
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	projects, err := s.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("count: got %d, want 0", len(projects))
	}
}

func TestSQLiteStore_SaveRoundTripsStages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("p1")
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Modality = "B"
	p.Stages = []types.Stage{
		{
			ID: "S1", Name: "Licencia", State: types.StageInProgress,
			Items: []types.ChecklistItem{
				{RequirementID: "R1", State: types.ItemFulfilled, Notes: "ok"},
			},
		},
	}
	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Modality != "B" {
		t.Errorf("Modality: got %q, want %q", got.Modality, "B")
	}
	if len(got.Stages) != 1 || got.Stages[0].Items[0].State != types.ItemFulfilled {
		t.Errorf("stages did not round-trip: %+v", got.Stages)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt should be refreshed on save")
	}
}

func TestSQLiteStore_SaveMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveProject(context.Background(), testProject("ghost"))
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSQLiteStore_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("p1")
	created, err := s.UpsertProject(ctx, p)
	if err != nil {
		t.Fatalf("UpsertProject failed: %v", err)
	}
	if !created {
		t.Error("first upsert should report created")
	}

	p.Name = "Obra renombrada"
	created, err = s.UpsertProject(ctx, p)
	if err != nil {
		t.Fatalf("second UpsertProject failed: %v", err)
	}
	if created {
		t.Error("second upsert should report replaced, not created")
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Obra renombrada" {
		t.Errorf("Name: got %q", got.Name)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Errorf("upsert must not duplicate records: got %d", len(projects))
	}
}

func TestSQLiteStore_UpsertPreservesTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("p1")
	p.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p.UpdatedAt = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

	if _, err := s.UpsertProject(ctx, p); err != nil {
		t.Fatalf("UpsertProject failed: %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, p.UpdatedAt)
	}
}

func TestSQLiteStore_UpsertStampsMissingTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("p1")
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}

	if _, err := s.UpsertProject(ctx, p); err != nil {
		t.Fatalf("UpsertProject failed: %v", err)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("zero timestamps should be filled on upsert")
	}
}

func TestSQLiteStore_ActiveProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.ActiveProjectID(ctx)
	if err != nil {
		t.Fatalf("ActiveProjectID failed: %v", err)
	}
	if id != "" {
		t.Errorf("fresh store should have no active project, got %q", id)
	}

	if err := s.CreateProject(ctx, testProject("p1")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProject(ctx, testProject("p2")); err != nil {
		t.Fatal(err)
	}

	if err := s.SetActiveProject(ctx, "p1"); err != nil {
		t.Fatalf("SetActiveProject failed: %v", err)
	}
	id, _ = s.ActiveProjectID(ctx)
	if id != "p1" {
		t.Errorf("active: got %q, want p1", id)
	}

	if err := s.SetActiveProject(ctx, "p2"); err != nil {
		t.Fatalf("switching active failed: %v", err)
	}
	id, _ = s.ActiveProjectID(ctx)
	if id != "p2" {
		t.Errorf("active after switch: got %q, want p2", id)
	}
}

func TestSQLiteStore_SetActiveMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.SetActiveProject(context.Background(), "ghost")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSQLiteStore_RecordTooLarge(t *testing.T) {
	s := newTestStore(t)
	s.SetMaxRecordBytes(512)
	ctx := context.Background()

	p := testProject("p1")
	p.Stages = []types.Stage{{
		ID: "S1",
		Items: []types.ChecklistItem{{
			RequirementID: "R1",
			State:         types.ItemPending,
			Evidence: []types.Evidence{{
				ID:   "ev1",
				Name: "grande.pdf",
				Data: "data:application/pdf;base64," + strings.Repeat("A", 2048),
			}},
		}},
	}}

	err := s.CreateProject(ctx, p)
	if !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("expected ErrRecordTooLarge, got %v", err)
	}

	// Nothing should have been written.
	if _, err := s.GetProject(ctx, "p1"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("oversized record must not be persisted: %v", err)
	}
}

func TestSQLiteStore_RecordCapDisabled(t *testing.T) {
	s := newTestStore(t)
	s.SetMaxRecordBytes(0)
	ctx := context.Background()

	p := testProject("p1")
	p.Stages = []types.Stage{{
		ID: "S1",
		Items: []types.ChecklistItem{{
			RequirementID: "R1",
			State:         types.ItemPending,
			Notes:         strings.Repeat("x", 1 << 20),
		}},
	}}

	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("cap disabled, create should succeed: %v", err)
	}
}

func TestSQLiteStore_GetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.ProjectCount != 0 {
		t.Errorf("count: got %d, want 0", stats.ProjectCount)
	}

	if err := s.CreateProject(ctx, testProject("p1")); err != nil {
		t.Fatal(err)
	}
	stats, err = s.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ProjectCount != 1 {
		t.Errorf("count: got %d, want 1", stats.ProjectCount)
	}
}
