package domain

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Metrics are placeholder figures shown for an item before the user has
// entered any of their own.
type Metrics struct {
	Impact     Impact
	GrowthRate float64
	Confidence int
}

// EstimateMetrics derives stable pseudo-random metrics from an item id.
// The same id always yields the same numbers.
func EstimateMetrics(id string) Metrics {
	h := xxhash.Sum64String(id)

	impacts := []Impact{ImpactLow, ImpactMedium, ImpactHigh}
	growth := float64(h>>8%400)/10 + 2 // 2.0 .. 41.9
	return Metrics{
		Impact:     impacts[h%3],
		GrowthRate: math.Round(growth*10) / 10,
		Confidence: 40 + int(h>>24%56), // 40 .. 95
	}
}

// EffectiveMetrics prefers user-entered values and fills the gaps from
// EstimateMetrics.
func (s *StrategyItem) EffectiveMetrics() Metrics {
	m := EstimateMetrics(s.ID)
	if s.Impact != ImpactNone {
		m.Impact = s.Impact
	}
	m.GrowthRate = DerefOr(m.GrowthRate, s.GrowthRate)
	m.Confidence = DerefOr(m.Confidence, s.Confidence)
	return m
}
