package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an item id absent from every list.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTarget indicates a list id outside the fixed four.
	ErrInvalidTarget = errors.New("invalid target list")

	// ErrInvalidTransition indicates a move that skips the classification gate.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidClassification indicates a kind other than fix or pivot.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrValidation indicates malformed user input.
	ErrValidation = errors.New("validation failed")
)

// NotFoundError reports which id was missing.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TargetError reports an unknown list id.
type TargetError struct {
	List string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("invalid target list %q", e.List)
}

func (e *TargetError) Unwrap() error { return ErrInvalidTarget }

// TransitionError reports why a move was refused.
type TransitionError struct {
	ItemID string
	From   ListID
	To     ListID
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s: %s", e.ItemID, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
