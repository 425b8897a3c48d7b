package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 2000
)

// StrategyItem is one candidate business direction tracked on a board.
type StrategyItem struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"projectId"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Classification Classification `json:"classification"`
	Completed      bool           `json:"completed"`

	// Descriptive metadata, edited through ItemPatch.
	Impact     Impact   `json:"impact,omitempty"`
	GrowthRate *float64 `json:"growthRate,omitempty"`
	Confidence *int     `json:"confidence,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsClassified reports whether the Fix/Pivot decision has been made.
func (s *StrategyItem) IsClassified() bool {
	return s.Classification == ClassFix || s.Classification == ClassPivot
}

// Clone returns a deep copy so snapshots never alias board state.
func (s *StrategyItem) Clone() StrategyItem {
	c := *s
	if s.GrowthRate != nil {
		g := *s.GrowthRate
		c.GrowthRate = &g
	}
	if s.Confidence != nil {
		n := *s.Confidence
		c.Confidence = &n
	}
	return c
}

// NewItem carries the user-supplied fields of a new strategy.
type NewItem struct {
	Title       string
	Description string
	Impact      Impact
	GrowthRate  *float64
	Confidence  *int
}

// Validate trims and checks the new item fields.
func (n *NewItem) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return validateFields(n.Title, n.Description, n.Impact, n.GrowthRate, n.Confidence)
}

// ItemPatch is a shallow merge of editable fields. Nil means unchanged.
// The id is deliberately absent.
type ItemPatch struct {
	Title       *string
	Description *string
	Impact      *Impact
	GrowthRate  *float64
	Confidence  *int
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Impact == nil &&
		p.GrowthRate == nil && p.Confidence == nil
}

// Apply merges the patch into s after validating the merged result.
func (p ItemPatch) Apply(s *StrategyItem, now time.Time) error {
	title := s.Title
	if p.Title != nil {
		title = strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title cannot be blank", ErrValidation)
		}
	}
	desc := s.Description
	if p.Description != nil {
		desc = *p.Description
	}
	impact := s.Impact
	if p.Impact != nil {
		impact = *p.Impact
	}
	growth := s.GrowthRate
	if p.GrowthRate != nil {
		g := *p.GrowthRate
		growth = &g
	}
	conf := s.Confidence
	if p.Confidence != nil {
		c := *p.Confidence
		conf = &c
	}
	if err := validateFields(title, desc, impact, growth, conf); err != nil {
		return err
	}

	s.Title = title
	s.Description = desc
	s.Impact = impact
	s.GrowthRate = growth
	s.Confidence = conf
	s.UpdatedAt = now
	return nil
}

func validateFields(title, desc string, impact Impact, growth *float64, conf *int) error {
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	if len(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLen)
	}
	if !ValidImpacts[string(impact)] {
		return fmt.Errorf("%w: impact %q must be low, medium or high", ErrValidation, impact)
	}
	if growth != nil && (*growth < -100 || *growth > 1000) {
		return fmt.Errorf("%w: growth rate %.1f out of range", ErrValidation, *growth)
	}
	if conf != nil && (*conf < 0 || *conf > 100) {
		return fmt.Errorf("%w: confidence %d must be between 0 and 100", ErrValidation, *conf)
	}
	return nil
}
