package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/google/uuid"
)

var testItemCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithIdea(idea string) ProjectOption {
	return func(p *domain.Project) {
		p.Idea = idea
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Item options
type ItemOption func(*domain.StrategyItem)

func WithClassification(c domain.Classification) ItemOption {
	return func(s *domain.StrategyItem) {
		s.Classification = c
	}
}

func WithDescription(d string) ItemOption {
	return func(s *domain.StrategyItem) {
		s.Description = d
	}
}

func WithConfidence(c int) ItemOption {
	return func(s *domain.StrategyItem) {
		s.Confidence = &c
	}
}

func WithGrowthRate(g float64) ItemOption {
	return func(s *domain.StrategyItem) {
		s.GrowthRate = &g
	}
}

func NewTestItem(projectID, title string, opts ...ItemOption) domain.StrategyItem {
	now := time.Now().UTC()
	s := domain.StrategyItem{
		ID:             fmt.Sprintf("item-%03d", testItemCounter.Add(1)),
		ProjectID:      projectID,
		Title:          title,
		Classification: domain.Unclassified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestSnapshot places items into lists. Items in Success are marked
// completed.
func NewTestSnapshot(projectID string, lists map[domain.ListID][]domain.StrategyItem) board.Snapshot {
	s := board.EmptySnapshot(projectID)
	for l, items := range lists {
		for _, it := range items {
			it.Completed = l == domain.ListSuccess
			s.Lists[l] = append(s.Lists[l], it)
		}
	}
	return s
}
