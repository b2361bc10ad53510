package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/gateway"
)

// Progress is the "current of total" indicator of a running operation.
type Progress struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

func (p Progress) String() string {
	return fmt.Sprintf("%d of %d", p.Current, p.Total)
}

// Done reports whether every item of the operation has been processed.
func (p Progress) Done() bool { return p.Total > 0 && p.Current >= p.Total }

// Batch is one sequential visual fill over slides produced together.
type Batch struct {
	ID          uint64
	Phase       string
	Slides      []*domain.Slide
	Style       domain.Style
	DeckTitle   string
	ParentTitle string
	// Live, when set, is consulted before each request; false stops the batch.
	Live func() bool
}

// VisualEvent reports the outcome for one slide of a batch. Exactly one of
// Artifact and Err is set.
type VisualEvent struct {
	BatchID  uint64
	SlideID  string
	Index    int
	Total    int
	Artifact *domain.VisualArtifact
	Err      error
	Progress Progress
}

// VisualSink receives every event as soon as it resolves. Returning false
// marks the batch as superseded and stops further requests.
type VisualSink func(VisualEvent) bool

// SlideFailure records an isolated visual failure.
type SlideFailure struct {
	SlideID string
	Err     error
}

// Summary is the terminal state of a fill batch.
type Summary struct {
	BatchID   uint64
	Total     int
	Succeeded int
	Failures  []SlideFailure
	Stopped   bool // superseded or cancelled before the last slide
}

// SlideLookup reports which slides belong to a structured deck.
type SlideLookup interface {
	Has(id string) bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIDGenerator replaces uuid generation for slide and deck ids.
func WithIDGenerator(next func() string) Option {
	return func(o *Orchestrator) { o.newID = next }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator drives structure generation, sequential visual fill and
// slide expansion against a Gateway.
type Orchestrator struct {
	gateway gateway.Gateway
	slides  SlideLookup
	newID   func() string
	logger  *slog.Logger
}

func NewOrchestrator(gw gateway.Gateway, slides SlideLookup, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway: gw,
		slides:  slides,
		newID:   func() string { return uuid.New().String() },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateDeck requests a skeleton and turns it into root slides. The
// returned deck is not stored anywhere; callers commit it.
func (o *Orchestrator) GenerateDeck(ctx context.Context, inputs []domain.SourceRef) (*domain.Deck, error) {
	if len(inputs) == 0 {
		return nil, &StructureGenerationError{Err: ErrNoInputs}
	}

	sk, err := o.gateway.ProduceStructure(ctx, inputs)
	if err != nil {
		return nil, &StructureGenerationError{Err: err}
	}
	if sk == nil {
		return nil, &StructureGenerationError{Err: ErrEmptyStructure}
	}
	specs := usableSpecs(sk.Slides)
	if len(specs) == 0 {
		return nil, &StructureGenerationError{Err: ErrEmptyStructure}
	}
	if dropped := len(sk.Slides) - len(specs); dropped > 0 {
		o.logger.Warn("dropped untitled slides from structure", "dropped", dropped)
	}

	deck := &domain.Deck{
		ID:      o.newID(),
		Title:   sk.Title,
		Style:   sk.Style.Merge(domain.DefaultStyle()),
		Slides:  make([]*domain.Slide, len(specs)),
		Sources: append([]domain.SourceRef(nil), inputs...),
	}
	if deck.Title == "" {
		deck.Title = specs[0].Title
	}
	for i, spec := range specs {
		deck.Slides[i] = domain.NewRootSlide(o.newID(), spec, i)
	}

	o.logger.Info("structure generated", "deck", deck.ID, "title", deck.Title, "slides", len(deck.Slides))
	return deck, nil
}

// FillVisuals requests one visual at a time in slide order. A failure is
// reported for its slide and the batch moves on.
func (o *Orchestrator) FillVisuals(ctx context.Context, b Batch, sink VisualSink) Summary {
	total := len(b.Slides)
	sum := Summary{BatchID: b.ID, Total: total}

	for i, s := range b.Slides {
		if ctx.Err() != nil || (b.Live != nil && !b.Live()) {
			sum.Stopped = true
			break
		}
		o.logger.Info("processing slide", "batch", b.ID, "slide", i+1, "total", total, "title", s.Title)

		art, err := o.gateway.ProduceVisual(ctx, s.Spec(), b.Style, gateway.VisualContext{
			DeckTitle:   b.DeckTitle,
			ParentTitle: b.ParentTitle,
			Index:       i,
			Total:       total,
		})
		if err == nil && art == nil {
			err = ErrNoArtifact
		}

		ev := VisualEvent{
			BatchID:  b.ID,
			SlideID:  s.ID,
			Index:    i,
			Total:    total,
			Progress: Progress{Phase: b.Phase, Current: i + 1, Total: total},
		}
		if err != nil {
			ev.Err = err
		} else {
			ev.Artifact = art
		}

		if sink != nil && !sink(ev) {
			o.logger.Debug("batch superseded", "batch", b.ID, "at", i)
			sum.Stopped = true
			break
		}

		if err != nil {
			o.logger.Warn("slide visual failed", "batch", b.ID, "slide", i+1, "title", s.Title, "error", err)
			sum.Failures = append(sum.Failures, SlideFailure{SlideID: s.ID, Err: err})
			continue
		}
		sum.Succeeded++
	}

	o.logger.Info("visual fill finished", "batch", b.ID, "succeeded", sum.Succeeded, "total", total, "stopped", sum.Stopped)
	return sum
}

// ExpandSlide produces MinExpansionChildren to MaxExpansionChildren children
// of parent under lens. Visual fill for them is a separate batch.
func (o *Orchestrator) ExpandSlide(ctx context.Context, parent *domain.Slide, style domain.Style, lens domain.Lens) ([]*domain.Slide, error) {
	if parent == nil {
		return nil, &InvalidExpansionTargetError{Reason: "no slide given"}
	}
	if !lens.Valid() {
		return nil, &InvalidExpansionTargetError{SlideID: parent.ID, Reason: fmt.Sprintf("unknown lens %q", lens)}
	}
	if !parent.IsExpandable {
		return nil, &InvalidExpansionTargetError{SlideID: parent.ID, Reason: "slide is not expandable"}
	}
	if o.slides == nil || !o.slides.Has(parent.ID) {
		return nil, &InvalidExpansionTargetError{SlideID: parent.ID, Reason: "slide is not part of a generated deck"}
	}

	specs, err := o.gateway.ProduceExpansion(ctx, parent.Spec(), style, lens)
	if err != nil {
		return nil, &ExpansionGenerationError{SlideID: parent.ID, Lens: lens, Err: err}
	}
	normalized := NormalizeExpansion(parent.Spec(), specs)
	if len(normalized) == 0 {
		return nil, &ExpansionGenerationError{SlideID: parent.ID, Lens: lens, Err: ErrEmptyExpansion}
	}
	if len(normalized) != len(specs) {
		o.logger.Warn("adjusted expansion size", "slide", parent.ID, "got", len(specs), "kept", len(normalized))
	}

	children := make([]*domain.Slide, len(normalized))
	for i, spec := range normalized {
		children[i] = domain.NewChildSlide(o.newID(), parent, lens, spec, i)
	}
	o.logger.Info("slide expanded", "slide", parent.ID, "lens", lens, "children", len(children))
	return children, nil
}

// Apply records ev on the matching arena slide. It returns false when the
// slide is no longer in the arena.
func Apply(arena *domain.Arena, ev VisualEvent) bool {
	return arena.Update(ev.SlideID, func(s *domain.Slide) {
		if ev.Err != nil {
			s.MarkVisualFailed(ev.Err.Error())
			return
		}
		s.ApplyVisual(*ev.Artifact)
	})
}
