package repository

import (
	"context"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// BoardRepo stores whole boards. SaveBoard satisfies persist.Sink.
type BoardRepo interface {
	LoadBoard(ctx context.Context, projectID string) (board.Snapshot, error)
	SaveBoard(ctx context.Context, s board.Snapshot) error
}

// BoardEvicter is implemented by board stores that keep copies outside the
// database and must drop them when a project goes away.
type BoardEvicter interface {
	Evict(ctx context.Context, projectID string)
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
