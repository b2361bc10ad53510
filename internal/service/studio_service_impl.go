package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/expansion"
	"github.com/alexanderramin/bananadeck/internal/gateway"
	"github.com/alexanderramin/bananadeck/internal/generation"
	"github.com/alexanderramin/bananadeck/internal/navigator"
)

// ErrClosed is returned by intents issued after Close.
var ErrClosed = errors.New("studio is closed")

// rootTarget keys the batch of the main deck; expansion batches are keyed
// by their parent slide id.
const rootTarget = ""

type studioService struct {
	mu       sync.Mutex
	logger   *slog.Logger
	observer UseCaseObserver

	arena *domain.Arena
	tree  *expansion.Tree
	nav   *navigator.Navigator
	orc   *generation.Orchestrator
	deck  *domain.Deck

	genStarted   uint64
	genCommitted uint64

	nextBatch     uint64
	current       map[string]uint64 // target -> live batch
	running       map[uint64]string // batch -> target, while its fill runs
	slideBatch    map[string]uint64 // slide -> batch that renders it
	pending       int               // structure/expansion calls in flight
	progressBatch uint64
	progress      contract.ProgressView
	lastErr       *contract.ErrorView

	version uint64
	subs    map[int]chan contract.PublishedView
	nextSub int

	retries singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewStudioService builds a session around gw. A nil logger uses slog.Default.
func NewStudioService(gw gateway.Gateway, logger *slog.Logger, observers ...UseCaseObserver) StudioService {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &studioService{
		logger:     logger,
		observer:   useCaseObserverOrNoop(observers),
		arena:      domain.NewArena(),
		current:    make(map[string]uint64),
		running:    make(map[uint64]string),
		slideBatch: make(map[string]uint64),
		subs:       make(map[int]chan contract.PublishedView),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.tree = expansion.NewTree(s.arena)
	s.nav = navigator.New(sessionCollections{s})
	s.orc = generation.NewOrchestrator(gw, s.arena, generation.WithLogger(logger))
	return s
}

// sessionCollections resolves navigator views; callers hold s.mu.
type sessionCollections struct{ s *studioService }

func (c sessionCollections) MainDeck() []*domain.Slide {
	if c.s.deck == nil {
		return nil
	}
	return c.s.arena.Resolve(c.s.deck.SlideIDs())
}

func (c sessionCollections) ChildrenOf(slideID string) []*domain.Slide {
	return c.s.tree.ChildrenOf(slideID)
}

func (s *studioService) observe(ctx context.Context, name string, startedAt time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

func (s *studioService) Generate(ctx context.Context, req contract.GenerateRequest) (resp *contract.GenerateResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"sources": len(req.Sources)}
	defer func() { s.observe(ctx, "generate", startedAt, err, fields) }()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.genStarted++
	ticket := s.genStarted
	s.pending++
	s.lastErr = nil
	s.progressBatch = 0
	s.progress = contract.ProgressView{Phase: PhaseStructure}
	s.publishLocked()
	s.mu.Unlock()

	deck, err := s.orc.GenerateDeck(ctx, sourceRefs(req.Sources))

	s.mu.Lock()
	s.pending--
	if err != nil {
		if ticket > s.genCommitted {
			s.failLocked(err)
		}
		s.mu.Unlock()
		return nil, err
	}
	if ticket < s.genCommitted {
		s.logger.Debug("discarding superseded deck", "deck", deck.ID, "ticket", ticket)
		s.publishLocked()
		s.mu.Unlock()
		return &contract.GenerateResponse{DeckID: deck.ID, Title: deck.Title, SlideCount: len(deck.Slides), Superseded: true}, nil
	}
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	s.genCommitted = ticket
	s.arena.Reset()
	for _, sl := range deck.Slides {
		s.arena.Put(sl)
	}
	s.deck = deck
	s.nav.Reset()
	s.current = make(map[string]uint64)
	s.slideBatch = make(map[string]uint64)
	batch := s.startBatchLocked(rootTarget, generation.Batch{
		Phase:     PhaseVisuals,
		Slides:    deck.Slides,
		Style:     deck.Style,
		DeckTitle: deck.Title,
	})
	if !req.Wait {
		s.wg.Add(1)
	}
	s.publishLocked()
	s.mu.Unlock()

	fields["deck"] = deck.ID
	fields["slides"] = len(deck.Slides)
	fields["session_slides"] = s.arena.Len()
	resp = &contract.GenerateResponse{
		DeckID:     deck.ID,
		Title:      deck.Title,
		SlideCount: len(deck.Slides),
		BatchID:    batch.ID,
	}
	if req.Wait {
		sum := s.runFill(ctx, rootTarget, batch)
		resp.Summary = fillSummary(sum)
		return resp, nil
	}
	go s.backgroundFill(rootTarget, batch)
	return resp, nil
}

func (s *studioService) Expand(ctx context.Context, req contract.ExpandRequest) (resp *contract.ExpandResponse, err error) {
	startedAt := time.Now()
	lens := domain.Lens(strings.ToLower(strings.TrimSpace(req.Lens)))
	fields := map[string]any{"slide": req.SlideID, "lens": string(lens)}
	defer func() { s.observe(ctx, "expand", startedAt, err, fields) }()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	parent, ok := s.arena.Get(req.SlideID)
	if !ok {
		err = &generation.InvalidExpansionTargetError{SlideID: req.SlideID, Reason: "slide not found"}
		s.failLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	style := domain.DefaultStyle()
	deckTitle := ""
	if s.deck != nil {
		style = s.deck.Style
		deckTitle = s.deck.Title
	}
	epoch := s.genCommitted
	s.pending++
	s.lastErr = nil
	s.progressBatch = 0
	s.progress = contract.ProgressView{Phase: PhaseExpanding}
	s.publishLocked()
	s.mu.Unlock()

	children, err := s.orc.ExpandSlide(ctx, parent, style, lens)

	s.mu.Lock()
	s.pending--
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	if epoch != s.genCommitted || !s.arena.Has(parent.ID) || s.closed {
		s.logger.Debug("discarding expansion of replaced slide", "slide", parent.ID, "lens", lens)
		s.publishLocked()
		s.mu.Unlock()
		return &contract.ExpandResponse{ParentID: parent.ID, Lens: string(lens), Superseded: true}, nil
	}

	rec, err := s.tree.RegisterExpansion(parent, lens, children)
	if err != nil {
		err = fmt.Errorf("register expansion: %w", err)
		s.failLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	for _, c := range children {
		s.arena.Put(c)
	}
	if req.Enter {
		if navErr := s.nav.EnterExpansion(parent.ID, lens); navErr != nil {
			s.logger.Warn("enter expansion view", "slide", parent.ID, "error", navErr)
		}
	}
	batch := s.startBatchLocked(parent.ID, generation.Batch{
		Phase:       PhaseExpansionVisuals,
		Slides:      children,
		Style:       style,
		DeckTitle:   deckTitle,
		ParentTitle: parent.Title,
	})
	if !req.Wait {
		s.wg.Add(1)
	}
	s.publishLocked()
	s.mu.Unlock()

	fields["children"] = len(children)
	fields["session_slides"] = s.arena.Len()
	resp = &contract.ExpandResponse{
		RecordID: rec.ID,
		ParentID: parent.ID,
		Lens:     string(lens),
		ChildIDs: rec.ChildIDs,
		BatchID:  batch.ID,
	}
	if req.Wait {
		resp.Summary = fillSummary(s.runFill(ctx, parent.ID, batch))
		return resp, nil
	}
	go s.backgroundFill(parent.ID, batch)
	return resp, nil
}

func (s *studioService) Navigate(ctx context.Context, req contract.NavigateRequest) (view contract.PublishedView, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "navigate", startedAt, err, map[string]any{"action": string(req.Action)}) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Action {
	case contract.ActionGoBack:
		s.nav.GoBack()
	case contract.ActionEnter:
		lens := domain.Lens(strings.ToLower(strings.TrimSpace(req.Lens)))
		if lens, err = s.expansionLensLocked(req.ParentID, lens); err != nil {
			return s.viewLocked(), err
		}
		err = s.nav.EnterExpansion(req.ParentID, lens)
	case contract.ActionStartWalkthrough:
		err = s.nav.StartWalkthrough()
	case contract.ActionAdvance:
		err = s.nav.Advance()
	case contract.ActionRetreat:
		err = s.nav.Retreat()
	case contract.ActionClose:
		s.nav.CloseWalkthrough()
	default:
		err = &contract.StudioError{Code: contract.ErrInvalidRequest, Message: fmt.Sprintf("unknown navigate action %q", req.Action)}
	}
	if err != nil {
		return s.viewLocked(), err
	}
	return s.publishLocked(), nil
}

// expansionLensLocked resolves the lens an ExpandedView of parentID can show.
// The children on display always come from the latest record, so an empty
// lens picks it and any other lens must match it.
func (s *studioService) expansionLensLocked(parentID string, lens domain.Lens) (domain.Lens, error) {
	latest, ok := s.tree.Latest(parentID)
	if !ok {
		return "", &contract.StudioError{
			Code:    contract.ErrSlideNotFound,
			Message: fmt.Sprintf("slide %q has no expansion", parentID),
		}
	}
	if lens == "" || lens == latest.Lens {
		return latest.Lens, nil
	}
	for _, rec := range s.tree.HistoryOf(parentID) {
		if rec.Lens == lens {
			return "", &contract.StudioError{
				Code:    contract.ErrInvalidRequest,
				Message: fmt.Sprintf("slide %q was re-expanded; its current lens is %s", parentID, latest.Lens),
			}
		}
	}
	return "", &contract.StudioError{
		Code:    contract.ErrSlideNotFound,
		Message: fmt.Sprintf("slide %q has no %s expansion", parentID, lens),
	}
}

func (s *studioService) RetryVisual(ctx context.Context, slideID string) (resp *contract.RetryVisualResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"slide": slideID}
	defer func() { s.observe(ctx, "retry_visual", startedAt, err, fields) }()

	s.mu.Lock()
	slide, ok := s.arena.Get(slideID)
	if !ok {
		s.mu.Unlock()
		return nil, &contract.StudioError{Code: contract.ErrSlideNotFound, Message: fmt.Sprintf("slide %q not found", slideID)}
	}
	if slide.VisualStatus == domain.VisualReady {
		s.mu.Unlock()
		return nil, &contract.StudioError{Code: contract.ErrNotRetryable, Message: fmt.Sprintf("slide %q already has a visual", slideID)}
	}
	if slide.VisualStatus == domain.VisualPending && s.queuedLocked(slideID) {
		s.mu.Unlock()
		return nil, &contract.StudioError{Code: contract.ErrNotRetryable, Message: fmt.Sprintf("slide %q is still queued in its fill", slideID)}
	}
	batch := generation.Batch{Phase: PhaseRetry, Slides: []*domain.Slide{slide}, Style: domain.DefaultStyle()}
	if s.deck != nil {
		batch.Style = s.deck.Style
		batch.DeckTitle = s.deck.Title
	}
	if parent, ok := s.arena.Get(slide.ParentID); ok {
		batch.ParentTitle = parent.Title
	}
	epoch := s.genCommitted
	batch.Live = func() bool { return s.isEpoch(epoch) }
	s.mu.Unlock()

	v, _, shared := s.retries.Do(slideID, func() (any, error) {
		var last generation.VisualEvent
		s.orc.FillVisuals(ctx, batch, func(ev generation.VisualEvent) bool {
			last = ev
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.genCommitted != epoch {
				return false
			}
			if generation.Apply(s.arena, ev) {
				s.publishLocked()
			}
			return true
		})
		return last, nil
	})
	ev := v.(generation.VisualEvent)

	resp = &contract.RetryVisualResponse{SlideID: slideID, Deduped: shared, Status: "superseded"}
	if current, ok := s.arena.Get(slideID); ok && s.isEpoch(epoch) {
		resp.Status = string(current.VisualStatus)
	}
	if ev.Err != nil {
		resp.Error = ev.Err.Error()
	}
	fields["status"] = resp.Status
	fields["deduped"] = shared
	return resp, nil
}

func (s *studioService) Snapshot() contract.PublishedView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *studioService) Subscribe() (<-chan contract.PublishedView, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan contract.PublishedView, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.viewLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *studioService) History(slideID string) []contract.RecordView {
	var records []domain.ExpansionRecord
	if slideID == "" {
		records = s.tree.History()
	} else {
		records = s.tree.HistoryOf(slideID)
	}
	out := make([]contract.RecordView, len(records))
	for i, r := range records {
		out[i] = contract.RecordView{
			ID:            r.ID,
			ParentSlideID: r.ParentSlideID,
			ParentTitle:   r.ParentTitle,
			Lens:          string(r.Lens),
			ChildIDs:      r.ChildIDs,
			Timestamp:     r.Timestamp,
		}
	}
	return out
}

func (s *studioService) Outline() contract.Outline {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out contract.Outline
	if s.deck == nil {
		return out
	}
	out.DeckID = s.deck.ID
	out.DeckTitle = s.deck.Title
	out.Slides = s.outlineNodes(s.arena.Resolve(s.deck.SlideIDs()), map[string]bool{})
	return out
}

func (s *studioService) outlineNodes(slides []*domain.Slide, seen map[string]bool) []contract.OutlineNode {
	nodes := make([]contract.OutlineNode, 0, len(slides))
	for _, sl := range slides {
		if seen[sl.ID] {
			continue
		}
		seen[sl.ID] = true
		node := contract.OutlineNode{Slide: s.slideView(sl)}
		for _, rec := range s.tree.HistoryOf(sl.ID) {
			node.Expansions = append(node.Expansions, contract.OutlineExpansion{
				RecordID: rec.ID,
				Lens:     string(rec.Lens),
				Children: s.outlineNodes(s.arena.Resolve(rec.ChildIDs), seen),
			})
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (s *studioService) Wait() {
	s.wg.Wait()
}

func (s *studioService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// startBatchLocked makes b the live batch of target, superseding the
// previous one, and hands it the progress display.
func (s *studioService) startBatchLocked(target string, b generation.Batch) generation.Batch {
	s.nextBatch++
	b.ID = s.nextBatch
	s.current[target] = b.ID
	s.running[b.ID] = target
	for _, sl := range b.Slides {
		s.slideBatch[sl.ID] = b.ID
	}
	s.progressBatch = b.ID
	s.progress = contract.ProgressView{Phase: b.Phase, Total: len(b.Slides)}

	id := b.ID
	b.Live = func() bool { return s.isCurrent(target, id) }
	return b
}

func (s *studioService) backgroundFill(target string, b generation.Batch) {
	defer s.wg.Done()
	s.runFill(s.ctx, target, b)
}

func (s *studioService) runFill(ctx context.Context, target string, b generation.Batch) generation.Summary {
	sum := s.orc.FillVisuals(ctx, b, func(ev generation.VisualEvent) bool {
		return s.applyVisual(target, ev)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, b.ID)
	if s.progressBatch == b.ID && s.current[target] == b.ID && !sum.Stopped {
		s.progress = contract.ProgressView{Phase: PhaseComplete, Current: sum.Total, Total: sum.Total}
	}
	s.publishLocked()
	return sum
}

func (s *studioService) applyVisual(target string, ev generation.VisualEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.current[target] != ev.BatchID {
		s.logger.Debug("dropping stale visual", "batch", ev.BatchID, "slide", ev.SlideID)
		return false
	}
	if !generation.Apply(s.arena, ev) {
		s.logger.Debug("dropping visual for removed slide", "batch", ev.BatchID, "slide", ev.SlideID)
		return false
	}
	if s.progressBatch == ev.BatchID {
		s.progress = contract.ProgressView{Phase: ev.Progress.Phase, Current: ev.Progress.Current, Total: ev.Progress.Total}
	}
	s.publishLocked()
	return true
}

// queuedLocked reports whether the live fill of the slide's batch will still
// reach it.
func (s *studioService) queuedLocked(slideID string) bool {
	id, ok := s.slideBatch[slideID]
	if !ok {
		return false
	}
	target, running := s.running[id]
	return running && s.current[target] == id
}

func (s *studioService) isCurrent(target string, batchID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.current[target] == batchID
}

func (s *studioService) isEpoch(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.genCommitted == epoch
}

func (s *studioService) failLocked(err error) {
	s.lastErr = &contract.ErrorView{Phase: generation.PhaseOf(err), Message: err.Error()}
	s.progressBatch = 0
	s.progress = contract.ProgressView{}
	s.publishLocked()
}

func (s *studioService) busyLocked() bool {
	if s.pending > 0 {
		return true
	}
	for id, target := range s.running {
		if s.current[target] == id {
			return true
		}
	}
	return false
}

// publishLocked bumps the view version and offers the new view to every
// subscriber, replacing any view the subscriber has not read yet.
func (s *studioService) publishLocked() contract.PublishedView {
	s.version++
	v := s.viewLocked()
	for _, ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
	return v
}

func (s *studioService) viewLocked() contract.PublishedView {
	v := contract.PublishedView{
		Version:     s.version,
		View:        s.nav.State(),
		Walkthrough: s.nav.Walkthrough(),
		Progress:    s.progress,
		Busy:        s.busyLocked(),
	}
	if s.deck != nil {
		v.DeckID = s.deck.ID
		v.DeckTitle = s.deck.Title
	}
	if s.lastErr != nil {
		e := *s.lastErr
		v.Error = &e
	}

	visible := s.nav.Visible()
	v.Slides = make([]contract.SlideView, len(visible))
	for i, sl := range visible {
		v.Slides[i] = s.slideView(sl)
	}
	if !v.View.IsMain() {
		for _, sl := range s.tree.Lineage(v.View.ParentID) {
			v.Breadcrumb = append(v.Breadcrumb, contract.Crumb{SlideID: sl.ID, Title: sl.Title, Lens: string(sl.ExpansionLens)})
		}
	}
	return v
}

func (s *studioService) slideView(sl *domain.Slide) contract.SlideView {
	_, expanded := s.tree.Latest(sl.ID)
	sv := contract.SlideView{
		ID:           sl.ID,
		Title:        sl.Title,
		BulletPoints: sl.BulletPoints,
		VisualHint:   sl.VisualHint,
		VisualStatus: string(sl.VisualStatus),
		VisualError:  sl.VisualError,
		ParentID:     sl.ParentID,
		Depth:        sl.ExpansionDepth,
		Lens:         string(sl.ExpansionLens),
		Expandable:   sl.IsExpandable,
		Expanded:     expanded,
		Position:     sl.Position,
	}
	if sl.Visual != nil {
		sv.VisualRef = sl.Visual.Ref
	}
	return sv
}

func sourceRefs(sources []string) []domain.SourceRef {
	refs := make([]domain.SourceRef, 0, len(sources))
	for _, src := range sources {
		if src = strings.TrimSpace(src); src != "" {
			refs = append(refs, domain.SourceRef{URI: src})
		}
	}
	return refs
}

func fillSummary(sum generation.Summary) *contract.FillSummary {
	return &contract.FillSummary{
		Total:     sum.Total,
		Succeeded: sum.Succeeded,
		Failed:    len(sum.Failures),
		Stopped:   sum.Stopped,
	}
}
