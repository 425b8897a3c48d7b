package domain

import (
	"fmt"
	"strings"
	"time"
)

const maxProjectNameLen = 120

// Project is one business idea and the board that decomposes it.
type Project struct {
	ID         string
	Name       string
	Idea       string
	Status     ProjectStatus
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the project name.
func (p *Project) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: project name is required (use --name flag)", ErrValidation)
	}
	if len(p.Name) > maxProjectNameLen {
		return fmt.Errorf("%w: project name exceeds %d characters", ErrValidation, maxProjectNameLen)
	}
	return nil
}

// DisplayID returns the first 8 characters of the id.
func (p *Project) DisplayID() string {
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}
