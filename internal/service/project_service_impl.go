package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	projects repository.ProjectRepo
	boards   repository.BoardRepo
	observer UseCaseObserver
}

func NewProjectService(projects repository.ProjectRepo, boards repository.BoardRepo, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		projects: projects,
		boards:   boards,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project, seeds []string) (err error) {
	fields := map[string]any{"seed_count": len(seeds)}
	defer observe(ctx, s.observer, "create-project", time.Now().UTC(), fields, &err)

	if err = p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	p.Idea = strings.TrimSpace(p.Idea)
	fields["project_id"] = p.ID

	if err = s.projects.Create(ctx, p); err != nil {
		return err
	}

	b := board.New(p.ID)
	fields["seeded"] = len(b.Seed(seeds))
	if err = s.boards.SaveBoard(ctx, b.Snapshot()); err != nil {
		if delErr := s.projects.Delete(ctx, p.ID); delErr != nil {
			return fmt.Errorf("saving initial board: %w (cleanup failed: %v)", err, delErr)
		}
		return fmt.Errorf("saving initial board: %w", err)
	}
	return nil
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: project reference is required", domain.ErrValidation)
	}
	p, err := s.projects.GetByID(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	all, err := s.projects.List(ctx, true)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Project
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, ref) || strings.EqualFold(candidate.Name, ref) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &domain.NotFoundError{Kind: "project", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d projects", domain.ErrValidation, ref, len(matches))
	}
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeArchived)
}

func (s *projectService) Rename(ctx context.Context, id, name string) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Name = name
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return s.projects.Update(ctx, p)
}

func (s *projectService) Archive(ctx context.Context, id string) error {
	return s.projects.Archive(ctx, id)
}

func (s *projectService) Unarchive(ctx context.Context, id string) error {
	return s.projects.Unarchive(ctx, id)
}

func (s *projectService) Delete(ctx context.Context, id string, force bool) (err error) {
	defer observe(ctx, s.observer, "delete-project", time.Now().UTC(), map[string]any{"project_id": id, "force": force}, &err)

	if !force {
		var p *domain.Project
		p, err = s.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != domain.ProjectArchived {
			return fmt.Errorf("project must be archived before deletion (use --force to override)")
		}
	}
	if err = s.projects.Delete(ctx, id); err != nil {
		return err
	}
	if e, ok := s.boards.(repository.BoardEvicter); ok {
		e.Evict(ctx, id)
	}
	return nil
}
