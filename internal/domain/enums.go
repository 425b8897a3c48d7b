package domain

import "fmt"

type ListID string

const (
	ListDiscovery  ListID = "discovery"
	ListValidation ListID = "validation"
	ListGrowth     ListID = "growth"
	ListSuccess    ListID = "success"
)

// Lists is the fixed board column order.
var Lists = []ListID{ListDiscovery, ListValidation, ListGrowth, ListSuccess}

// ValidListIDs is the canonical set of accepted list id strings.
var ValidListIDs = map[string]bool{
	"discovery": true, "validation": true, "growth": true, "success": true,
}

// ParseListID returns the ListID for s, or ErrInvalidTarget.
func ParseListID(s string) (ListID, error) {
	if !ValidListIDs[s] {
		return "", &TargetError{List: s}
	}
	return ListID(s), nil
}

// Title returns the column heading for the list.
func (l ListID) Title() string {
	switch l {
	case ListDiscovery:
		return "Discovery"
	case ListValidation:
		return "Validation"
	case ListGrowth:
		return "Growth"
	case ListSuccess:
		return "Success"
	default:
		return string(l)
	}
}

type Classification string

const (
	Unclassified Classification = "unclassified"
	ClassFix     Classification = "fix"
	ClassPivot   Classification = "pivot"
)

// ParseClassification accepts "fix" or "pivot" only.
func ParseClassification(s string) (Classification, error) {
	switch Classification(s) {
	case ClassFix, ClassPivot:
		return Classification(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want fix or pivot)", ErrInvalidClassification, s)
	}
}

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

type Impact string

const (
	ImpactNone   Impact = ""
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// ValidImpacts is the canonical set of accepted impact strings.
var ValidImpacts = map[string]bool{
	"": true, "low": true, "medium": true, "high": true,
}
