package cli

import (
	"fmt"
	"strings"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
)

// resolveItem finds an item on the board by:
//   - its full id
//   - a unique id prefix
//   - its title (case-insensitive, when unique)
func resolveItem(b *board.Board, ref string) (domain.StrategyItem, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.StrategyItem{}, fmt.Errorf("%w: item reference is required", domain.ErrValidation)
	}
	if it, err := b.Item(ref); err == nil {
		return it, nil
	}

	snap := b.Snapshot()
	var byPrefix, byTitle []domain.StrategyItem
	for _, l := range domain.Lists {
		for _, it := range snap.Lists[l] {
			if strings.HasPrefix(it.ID, ref) {
				byPrefix = append(byPrefix, it)
			}
			if strings.EqualFold(it.Title, ref) {
				byTitle = append(byTitle, it)
			}
		}
	}

	for _, matches := range [][]domain.StrategyItem{byPrefix, byTitle} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return domain.StrategyItem{}, fmt.Errorf("%w: %q matches %d items", domain.ErrValidation, ref, len(matches))
		}
	}
	return domain.StrategyItem{}, &domain.NotFoundError{Kind: "item", ID: ref}
}
