package gateway

import (
	"context"
	"fmt"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// Phase names the generation step that failed.
type Phase string

const (
	PhaseStructure Phase = "structure"
	PhaseVisual    Phase = "visual"
	PhaseExpansion Phase = "expansion"
)

// GenerationError is returned by every Gateway call that fails.
type GenerationError struct {
	Phase  Phase
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s generation failed: %s", e.Phase, e.Reason)
	}
	return fmt.Sprintf("%s generation failed: %s: %v", e.Phase, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Skeleton is the structured outline of a deck before any visual exists.
type Skeleton struct {
	Title  string
	Style  domain.Style
	Slides []domain.SlideSpec
}

// VisualContext positions a slide within its batch for prompt wording.
type VisualContext struct {
	DeckTitle   string
	ParentTitle string // set for expansion batches
	Index       int
	Total       int
}

// Gateway is the capability boundary to the generative model.
type Gateway interface {
	// ProduceStructure turns source references into a deck outline.
	ProduceStructure(ctx context.Context, inputs []domain.SourceRef) (*Skeleton, error)

	// ProduceVisual renders one slide image using the batch style.
	ProduceVisual(ctx context.Context, spec domain.SlideSpec, style domain.Style, vctx VisualContext) (*domain.VisualArtifact, error)

	// ProduceExpansion explores one slide under lens and returns child outlines.
	ProduceExpansion(ctx context.Context, spec domain.SlideSpec, style domain.Style, lens domain.Lens) ([]domain.SlideSpec, error)
}

// ArtifactStore persists rendered images so slides can reference them by id.
type ArtifactStore interface {
	Create(ctx context.Context, blob *domain.ArtifactBlob) error
}
