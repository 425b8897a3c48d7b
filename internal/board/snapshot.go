package board

import (
	"github.com/elementalai/elemental/internal/domain"
)

// Snapshot is a deep copy of a board handed to persistence collaborators.
type Snapshot struct {
	ProjectID string                                   `json:"projectId"`
	Revision  int64                                    `json:"revision"`
	Lists     map[domain.ListID][]domain.StrategyItem `json:"lists"`
	Pending   string                                   `json:"pending,omitempty"`
}

// EmptySnapshot returns a snapshot with four empty lists.
func EmptySnapshot(projectID string) Snapshot {
	s := Snapshot{ProjectID: projectID, Lists: make(map[domain.ListID][]domain.StrategyItem, len(domain.Lists))}
	for _, l := range domain.Lists {
		s.Lists[l] = []domain.StrategyItem{}
	}
	return s
}

// IDs returns item ids per list in display order.
func (s Snapshot) IDs() map[domain.ListID][]string {
	out := make(map[domain.ListID][]string, len(domain.Lists))
	for _, l := range domain.Lists {
		ids := make([]string, 0, len(s.Lists[l]))
		for _, it := range s.Lists[l] {
			ids = append(ids, it.ID)
		}
		out[l] = ids
	}
	return out
}

// Count returns the total number of items.
func (s Snapshot) Count() int {
	n := 0
	for _, items := range s.Lists {
		n += len(items)
	}
	return n
}
