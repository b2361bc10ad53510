package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/gateway"
)

// Slide options
type SlideOption func(*domain.Slide)

// WithParent makes the slide an expansion child of parent.
func WithParent(parent *domain.Slide, lens domain.Lens) SlideOption {
	return func(s *domain.Slide) {
		s.ParentID = parent.ID
		s.ExpansionDepth = parent.ExpansionDepth + 1
		s.ExpansionLens = lens
	}
}

func WithVisual(ref string) SlideOption {
	return func(s *domain.Slide) {
		s.ApplyVisual(domain.VisualArtifact{Ref: ref, MimeType: "image/png", CreatedAt: time.Now().UTC()})
	}
}

func WithBullets(points ...string) SlideOption {
	return func(s *domain.Slide) {
		s.BulletPoints = points
	}
}

func WithPosition(i int) SlideOption {
	return func(s *domain.Slide) {
		s.Position = i
	}
}

func NewTestSlide(title string, opts ...SlideOption) *domain.Slide {
	s := domain.NewRootSlide(uuid.New().String(), domain.SlideSpec{
		Title:        title,
		BulletPoints: []string{title + " point"},
	}, 0)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTestSpecs returns n specs titled "<prefix> 1".."<prefix> n".
func NewTestSpecs(prefix string, n int) []domain.SlideSpec {
	specs := make([]domain.SlideSpec, n)
	for i := range specs {
		title := fmt.Sprintf("%s %d", prefix, i+1)
		specs[i] = domain.SlideSpec{
			Title:        title,
			BulletPoints: []string{title + " first", title + " second"},
			VisualHint:   "diagram of " + title,
		}
	}
	return specs
}

// NewTestSkeleton returns a skeleton with n slides titled "<title> 1".."<title> n".
func NewTestSkeleton(title string, n int) *gateway.Skeleton {
	return &gateway.Skeleton{
		Title:  title,
		Style:  domain.DefaultStyle(),
		Slides: NewTestSpecs(title, n),
	}
}

// NewTestSources returns n distinct source references.
func NewTestSources(n int) []domain.SourceRef {
	refs := make([]domain.SourceRef, n)
	for i := range refs {
		refs[i] = domain.SourceRef{URI: fmt.Sprintf("https://example.com/source-%d", i+1)}
	}
	return refs
}
