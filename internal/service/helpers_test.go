package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/persist"
	"github.com/elementalai/elemental/internal/repository"
	"github.com/elementalai/elemental/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testRepos struct {
	projects *repository.SQLiteProjectRepo
	boards   *repository.SQLiteBoardRepo
	settings *repository.SQLiteSettingsRepo
}

func setupRepos(t *testing.T) testRepos {
	t.Helper()
	database := testutil.NewTestDB(t)
	return testRepos{
		projects: repository.NewSQLiteProjectRepo(database),
		boards:   repository.NewSQLiteBoardRepo(database, testutil.NewTestUoW(database)),
		settings: repository.NewSQLiteSettingsRepo(database),
	}
}

// createProject stores a project with the given seeds through the service.
func createProject(t *testing.T, r testRepos, name string, seeds ...string) *domain.Project {
	t.Helper()
	p := &domain.Project{Name: name}
	require.NoError(t, NewProjectService(r.projects, r.boards).Create(context.Background(), p, seeds))
	return p
}

// fastPersist saves without debounce so tests only wait on Close.
func fastPersist() persist.Config {
	cfg := persist.DefaultConfig()
	cfg.Debounce = 0
	cfg.InitialRetry = time.Millisecond
	return cfg
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Name)
	}
	return out
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

type recordingSink struct {
	mu    sync.Mutex
	revs  []int64
	fails int
}

func (s *recordingSink) SaveBoard(_ context.Context, snap board.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revs = append(s.revs, snap.Revision)
	if s.fails > 0 {
		s.fails--
		return persist.ErrPermanent
	}
	return nil
}

func (s *recordingSink) saved() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.revs...)
}

func idsOf(items []domain.StrategyItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func titlesOf(items []domain.StrategyItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
