package service

import (
	"context"
	"math"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/repository"
)

// BoardStats summarises one board for the dashboard.
type BoardStats struct {
	ProjectID       string
	Total           int
	PerList         map[domain.ListID]int
	Fix             int
	Pivot           int
	Unclassified    int
	Completed       int
	CompletionPct   float64
	AvgConfidence   float64
	AvgGrowthRate   float64
	EstimatedFields int // metric values filled in by estimation
	Pending         string
}

type statsService struct {
	boards repository.BoardRepo
}

func NewStatsService(boards repository.BoardRepo) StatsService {
	return &statsService{boards: boards}
}

func (s *statsService) BoardStats(ctx context.Context, projectID string) (*BoardStats, error) {
	snap, err := s.boards.LoadBoard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(snap)
	return &stats, nil
}

// ComputeStats aggregates a snapshot. Items without user-entered confidence
// or growth use their estimated metrics.
func ComputeStats(s board.Snapshot) BoardStats {
	stats := BoardStats{
		ProjectID: s.ProjectID,
		PerList:   make(map[domain.ListID]int, len(domain.Lists)),
		Pending:   s.Pending,
	}
	var confSum, growthSum float64
	for _, l := range domain.Lists {
		items := s.Lists[l]
		stats.PerList[l] = len(items)
		for i := range items {
			it := &items[i]
			stats.Total++
			switch it.Classification {
			case domain.ClassFix:
				stats.Fix++
			case domain.ClassPivot:
				stats.Pivot++
			default:
				stats.Unclassified++
			}
			if it.Completed {
				stats.Completed++
			}
			if it.Confidence == nil {
				stats.EstimatedFields++
			}
			if it.GrowthRate == nil {
				stats.EstimatedFields++
			}
			m := it.EffectiveMetrics()
			confSum += float64(m.Confidence)
			growthSum += m.GrowthRate
		}
	}
	if stats.Total > 0 {
		n := float64(stats.Total)
		stats.CompletionPct = round1(float64(stats.Completed) / n * 100)
		stats.AvgConfidence = round1(confSum / n)
		stats.AvgGrowthRate = round1(growthSum / n)
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
