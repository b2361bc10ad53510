package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/llm"
)

type structureResponse struct {
	Title  string             `json:"title"`
	Style  domain.Style       `json:"style"`
	Slides []domain.SlideSpec `json:"slides"`
}

type expansionResponse struct {
	Slides []domain.SlideSpec `json:"slides"`
}

// validateSpecs requires at least one titled slide. Untitled entries are
// left for the orchestrator to drop.
func validateSpecs(specs []domain.SlideSpec) error {
	if len(specs) == 0 {
		return errors.New("no slides")
	}
	if firstTitle(specs) == "" {
		return errors.New("no slide has a title")
	}
	return nil
}

func firstTitle(specs []domain.SlideSpec) string {
	for _, s := range specs {
		if s.Validate() == nil {
			return strings.TrimSpace(s.Title)
		}
	}
	return ""
}

// Option configures an LLMGateway.
type Option func(*LLMGateway)

// WithDefaultStyle sets the style used for attributes the model leaves unset.
func WithDefaultStyle(s domain.Style) Option {
	return func(g *LLMGateway) { g.defaultStyle = s }
}

// WithClock overrides the artifact timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *LLMGateway) { g.now = now }
}

// LLMGateway implements Gateway on top of an llm.LLMClient.
type LLMGateway struct {
	client       llm.LLMClient
	store        ArtifactStore
	defaultStyle domain.Style
	now          func() time.Time
}

// NewLLMGateway creates a Gateway that stores rendered images in store.
func NewLLMGateway(client llm.LLMClient, store ArtifactStore, opts ...Option) *LLMGateway {
	g := &LLMGateway{
		client:       client,
		store:        store,
		defaultStyle: domain.DefaultStyle(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LLMGateway) ProduceStructure(ctx context.Context, inputs []domain.SourceRef) (*Skeleton, error) {
	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskStructure,
		SystemPrompt: structureSystemPrompt,
		UserPrompt:   structureUserPrompt(inputs),
	})
	if err != nil {
		return nil, &GenerationError{Phase: PhaseStructure, Reason: "model call failed", Err: err}
	}

	var out structureResponse
	if llm.HasJSONObject(resp.Text) {
		out, err = llm.ExtractJSON(resp.Text, func(r structureResponse) error {
			return validateSpecs(r.Slides)
		})
		if err != nil {
			return nil, &GenerationError{Phase: PhaseStructure, Reason: "unusable outline", Err: err}
		}
	} else {
		out.Title, out.Slides = ParseSkeleton(resp.Text)
		if err := validateSpecs(out.Slides); err != nil {
			return nil, &GenerationError{Phase: PhaseStructure, Reason: "unusable outline",
				Err: fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)}
		}
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		title = firstTitle(out.Slides)
	}
	return &Skeleton{
		Title:  title,
		Style:  out.Style.Merge(g.defaultStyle),
		Slides: out.Slides,
	}, nil
}

func (g *LLMGateway) ProduceVisual(ctx context.Context, spec domain.SlideSpec, style domain.Style, vctx VisualContext) (*domain.VisualArtifact, error) {
	prompt := BuildImagePrompt(spec, style, vctx)
	img, err := g.client.GenerateImage(ctx, llm.ImageRequest{Prompt: prompt})
	if err != nil {
		return nil, &GenerationError{Phase: PhaseVisual, Reason: "model call failed", Err: err}
	}

	blob := &domain.ArtifactBlob{
		ID:        uuid.New().String(),
		MimeType:  img.MimeType,
		Data:      img.Data,
		Prompt:    prompt,
		CreatedAt: g.now().UTC(),
	}
	if err := g.store.Create(ctx, blob); err != nil {
		return nil, &GenerationError{Phase: PhaseVisual, Reason: "storing artifact", Err: err}
	}

	return &domain.VisualArtifact{
		Ref:       blob.ID,
		MimeType:  blob.MimeType,
		Prompt:    prompt,
		CreatedAt: blob.CreatedAt,
	}, nil
}

func (g *LLMGateway) ProduceExpansion(ctx context.Context, spec domain.SlideSpec, style domain.Style, lens domain.Lens) ([]domain.SlideSpec, error) {
	if !lens.Valid() {
		return nil, &GenerationError{Phase: PhaseExpansion, Reason: fmt.Sprintf("unknown lens %q", lens)}
	}

	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskExpansion,
		SystemPrompt: expansionSystemPrompt,
		UserPrompt:   expansionUserPrompt(spec, lens),
	})
	if err != nil {
		return nil, &GenerationError{Phase: PhaseExpansion, Reason: "model call failed", Err: err}
	}

	if llm.HasJSONObject(resp.Text) {
		out, err := llm.ExtractJSON(resp.Text, func(r expansionResponse) error {
			return validateSpecs(r.Slides)
		})
		if err != nil {
			return nil, &GenerationError{Phase: PhaseExpansion, Reason: "unusable expansion", Err: err}
		}
		return out.Slides, nil
	}

	_, specs := ParseSkeleton(resp.Text)
	if err := validateSpecs(specs); err != nil {
		return nil, &GenerationError{Phase: PhaseExpansion, Reason: "unusable expansion",
			Err: fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)}
	}
	return specs, nil
}
