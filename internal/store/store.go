package store

import (
	"context"

	"github.com/obralex/obralex/internal/types"
)

// Store defines the interface contract for project persistence. It owns
// project identity, the collection and the active-project selection.
type Store interface {
	CreateProject(ctx context.Context, p *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]types.Project, error)
	SaveProject(ctx context.Context, p *types.Project) error
	UpsertProject(ctx context.Context, p *types.Project) (created bool, err error)
	SetActiveProject(ctx context.Context, id string) error
	ActiveProjectID(ctx context.Context) (string, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats holds aggregate store statistics.
type Stats struct {
	ProjectCount int64 `json:"project_count"`
}
