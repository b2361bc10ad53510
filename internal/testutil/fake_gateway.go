package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/gateway"
)

// FakeGateway is a scripted gateway.Gateway. Visual behaviour is keyed by
// slide title so tests can reach into the middle of a batch.
type FakeGateway struct {
	mu sync.Mutex

	skeletons    []*gateway.Skeleton
	structureErr error
	expansion    []domain.SlideSpec
	expansionErr error

	visualDelay map[string]time.Duration
	visualErr   map[string]error
	holds       map[string]*hold

	structureCalls int
	expansionCalls int
	visualCalls    []string
	inFlight       int
	maxInFlight    int
	seq            int
}

type hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// FakeOption configures a FakeGateway.
type FakeOption func(*FakeGateway)

// WithSkeletons queues structure results; the last one repeats.
func WithSkeletons(sk ...*gateway.Skeleton) FakeOption {
	return func(f *FakeGateway) { f.skeletons = append(f.skeletons, sk...) }
}

func WithStructureError(err error) FakeOption {
	return func(f *FakeGateway) { f.structureErr = err }
}

func WithExpansion(specs []domain.SlideSpec) FakeOption {
	return func(f *FakeGateway) { f.expansion = specs }
}

func WithExpansionError(err error) FakeOption {
	return func(f *FakeGateway) { f.expansionErr = err }
}

// WithVisualDelay makes the visual for title take d.
func WithVisualDelay(title string, d time.Duration) FakeOption {
	return func(f *FakeGateway) { f.visualDelay[title] = d }
}

// WithVisualFailure makes the visual for title fail with err.
func WithVisualFailure(title string, err error) FakeOption {
	return func(f *FakeGateway) { f.visualErr[title] = err }
}

func NewFakeGateway(opts ...FakeOption) *FakeGateway {
	f := &FakeGateway{
		visualDelay: map[string]time.Duration{},
		visualErr:   map[string]error{},
		holds:       map[string]*hold{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Hold blocks the next visual call for title until the returned release
// func runs. The entered channel closes once the call has started.
func (f *FakeGateway) Hold(title string) (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[title] = h
	f.mu.Unlock()
	return h.entered, func() { h.once.Do(func() { close(h.release) }) }
}

// SetVisualFailure changes the scripted outcome for title mid-test.
func (f *FakeGateway) SetVisualFailure(title string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.visualErr, title)
		return
	}
	f.visualErr[title] = err
}

func (f *FakeGateway) ProduceStructure(ctx context.Context, inputs []domain.SourceRef) (*gateway.Skeleton, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structureCalls++
	if f.structureErr != nil {
		return nil, &gateway.GenerationError{Phase: gateway.PhaseStructure, Reason: "scripted", Err: f.structureErr}
	}
	if len(f.skeletons) == 0 {
		return &gateway.Skeleton{Style: domain.DefaultStyle()}, nil
	}
	sk := f.skeletons[0]
	if len(f.skeletons) > 1 {
		f.skeletons = f.skeletons[1:]
	}
	return sk, nil
}

func (f *FakeGateway) ProduceVisual(ctx context.Context, spec domain.SlideSpec, style domain.Style, vctx gateway.VisualContext) (*domain.VisualArtifact, error) {
	f.mu.Lock()
	f.visualCalls = append(f.visualCalls, spec.Title)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.visualDelay[spec.Title]
	failure := f.visualErr[spec.Title]
	h := f.holds[spec.Title]
	delete(f.holds, spec.Title)
	f.seq++
	n := f.seq
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if h != nil {
		close(h.entered)
		select {
		case <-h.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, &gateway.GenerationError{Phase: gateway.PhaseVisual, Reason: "scripted", Err: failure}
	}
	return &domain.VisualArtifact{
		Ref:       fmt.Sprintf("fake://%s#%d", spec.Title, n),
		MimeType:  "image/png",
		Prompt:    spec.Title,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *FakeGateway) ProduceExpansion(ctx context.Context, spec domain.SlideSpec, style domain.Style, lens domain.Lens) ([]domain.SlideSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expansionCalls++
	if f.expansionErr != nil {
		return nil, &gateway.GenerationError{Phase: gateway.PhaseExpansion, Reason: "scripted", Err: f.expansionErr}
	}
	return f.expansion, nil
}

// VisualCalls returns the titles passed to ProduceVisual in call order.
func (f *FakeGateway) VisualCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.visualCalls...)
}

// MaxInFlight reports the highest number of concurrent visual calls seen.
func (f *FakeGateway) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *FakeGateway) StructureCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.structureCalls
}

func (f *FakeGateway) ExpansionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expansionCalls
}

var _ gateway.Gateway = (*FakeGateway)(nil)
