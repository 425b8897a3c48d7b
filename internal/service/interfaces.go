package service

import (
	"context"

	"github.com/elementalai/elemental/internal/domain"
)

type ProjectService interface {
	// Create stores the project and an initial board holding one Discovery
	// item per seed name.
	Create(ctx context.Context, p *domain.Project, seeds []string) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve finds a project by id, unique id prefix or exact name.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Rename(ctx context.Context, id, name string) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string, force bool) error
}

type StatsService interface {
	BoardStats(ctx context.Context, projectID string) (*BoardStats, error)
}
