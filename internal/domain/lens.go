package domain

import (
	"fmt"
	"strings"
)

type Lens string

const (
	LensTechnical Lens = "technical"
	LensBusiness  Lens = "business"
	LensExamples  Lens = "examples"
	LensQuestions Lens = "questions"
)

// Lenses lists every expansion lens in menu order.
var Lenses = []Lens{LensTechnical, LensBusiness, LensExamples, LensQuestions}

// ValidLenses is the canonical set of accepted lens strings.
var ValidLenses = map[Lens]bool{
	LensTechnical: true, LensBusiness: true, LensExamples: true, LensQuestions: true,
}

// ParseLens normalizes s and returns the matching Lens.
func ParseLens(s string) (Lens, error) {
	l := Lens(strings.ToLower(strings.TrimSpace(s)))
	if !ValidLenses[l] {
		return "", fmt.Errorf("unknown lens %q (expected technical, business, examples or questions)", s)
	}
	return l, nil
}

func (l Lens) Valid() bool { return ValidLenses[l] }

// Label returns the human-facing name used in breadcrumbs.
func (l Lens) Label() string {
	switch l {
	case LensTechnical:
		return "Technical"
	case LensBusiness:
		return "Business"
	case LensExamples:
		return "Examples"
	case LensQuestions:
		return "Questions"
	default:
		return "Unknown"
	}
}

type VisualStatus string

const (
	VisualPending VisualStatus = "pending"
	VisualReady   VisualStatus = "ready"
	VisualFailed  VisualStatus = "failed"
)
