package domain

import (
	"fmt"
	"strings"
	"time"
)

// SlideSpec is the content-only shape exchanged with the generation gateway.
type SlideSpec struct {
	Title        string   `json:"title"`
	BulletPoints []string `json:"bullet_points"`
	VisualHint   string   `json:"visual_hint,omitempty"`
}

// Validate reports whether the spec carries the minimum content for a slide.
func (s SlideSpec) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("slide title is required")
	}
	return nil
}

// Clone returns a copy that shares no slice with s.
func (s SlideSpec) Clone() SlideSpec {
	s.BulletPoints = cloneStrings(s.BulletPoints)
	return s
}

// VisualArtifact references a generated slide image.
type VisualArtifact struct {
	Ref       string
	MimeType  string
	Prompt    string
	CreatedAt time.Time
}

type Slide struct {
	ID             string
	Title          string
	BulletPoints   []string
	VisualHint     string
	Visual         *VisualArtifact // nil while the visual is pending
	VisualStatus   VisualStatus
	VisualError    string
	ParentID       string // empty for root slides; lookup only
	ExpansionDepth int
	ExpansionLens  Lens // set only on expansion-generated slides
	IsExpandable   bool
	Position       int // index within the batch that produced the slide
}

// NewRootSlide builds a depth-0 slide from a gateway spec.
func NewRootSlide(id string, spec SlideSpec, position int) *Slide {
	return &Slide{
		ID:           id,
		Title:        strings.TrimSpace(spec.Title),
		BulletPoints: cloneStrings(spec.BulletPoints),
		VisualHint:   strings.TrimSpace(spec.VisualHint),
		VisualStatus: VisualPending,
		IsExpandable: true,
		Position:     position,
	}
}

// NewChildSlide builds a slide produced by expanding parent under lens.
func NewChildSlide(id string, parent *Slide, lens Lens, spec SlideSpec, position int) *Slide {
	s := NewRootSlide(id, spec, position)
	s.ParentID = parent.ID
	s.ExpansionDepth = parent.ExpansionDepth + 1
	s.ExpansionLens = lens
	return s
}

// Spec returns the content of the slide in gateway form.
func (s *Slide) Spec() SlideSpec {
	return SlideSpec{
		Title:        s.Title,
		BulletPoints: cloneStrings(s.BulletPoints),
		VisualHint:   s.VisualHint,
	}
}

func (s *Slide) IsRoot() bool { return s.ParentID == "" }

func (s *Slide) HasVisual() bool { return s.Visual != nil }

// ApplyVisual records a successfully generated artifact.
func (s *Slide) ApplyVisual(a VisualArtifact) {
	s.Visual = &a
	s.VisualStatus = VisualReady
	s.VisualError = ""
}

// MarkVisualFailed flags the slide for a retry affordance. An existing visual is kept.
func (s *Slide) MarkVisualFailed(reason string) {
	if s.Visual != nil {
		return
	}
	s.VisualStatus = VisualFailed
	s.VisualError = reason
}

// Validate checks the depth/parent invariant against the given parent,
// which must be nil for root slides.
func (s *Slide) Validate(parent *Slide) error {
	if s.ID == "" {
		return fmt.Errorf("slide id is required")
	}
	if parent == nil {
		if s.ParentID != "" {
			return fmt.Errorf("slide %s: parent %s not provided", s.ID, s.ParentID)
		}
		if s.ExpansionDepth != 0 {
			return fmt.Errorf("slide %s: root slide must have depth 0, got %d", s.ID, s.ExpansionDepth)
		}
		return nil
	}
	if s.ParentID != parent.ID {
		return fmt.Errorf("slide %s: parent mismatch %q != %q", s.ID, s.ParentID, parent.ID)
	}
	if s.ExpansionDepth != parent.ExpansionDepth+1 {
		return fmt.Errorf("slide %s: depth %d must be parent depth %d + 1", s.ID, s.ExpansionDepth, parent.ExpansionDepth)
	}
	if !s.ExpansionLens.Valid() {
		return fmt.Errorf("slide %s: expansion lens %q is invalid", s.ID, s.ExpansionLens)
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers outside the core.
func (s *Slide) Clone() *Slide {
	c := *s
	c.BulletPoints = cloneStrings(s.BulletPoints)
	if s.Visual != nil {
		v := *s.Visual
		c.Visual = &v
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
