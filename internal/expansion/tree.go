// Package expansion keeps the append-only ledger of slide expansions and
// derives the parent to children index from it.
package expansion

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// ErrInvalidExpansion is wrapped by RegisterExpansion for malformed input.
var ErrInvalidExpansion = errors.New("invalid expansion")

// Option configures a Tree.
type Option func(*Tree)

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) { t.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(next func() string) Option {
	return func(t *Tree) { t.newID = next }
}

// Tree stores ids only; slides are resolved through the arena on read.
type Tree struct {
	mu       sync.RWMutex
	arena    *domain.Arena
	records  []domain.ExpansionRecord
	byParent map[string][]int
	now      func() time.Time
	newID    func() string
}

func NewTree(arena *domain.Arena, opts ...Option) *Tree {
	t := &Tree{
		arena:    arena,
		byParent: make(map[string][]int),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterExpansion appends a record for children produced from parent.
// Children must already carry parent id, depth and lens.
func (t *Tree) RegisterExpansion(parent *domain.Slide, lens domain.Lens, children []*domain.Slide) (domain.ExpansionRecord, error) {
	if parent == nil {
		return domain.ExpansionRecord{}, fmt.Errorf("%w: parent is required", ErrInvalidExpansion)
	}
	if !lens.Valid() {
		return domain.ExpansionRecord{}, fmt.Errorf("%w: unknown lens %q", ErrInvalidExpansion, lens)
	}
	if len(children) == 0 {
		return domain.ExpansionRecord{}, fmt.Errorf("%w: no children for slide %s", ErrInvalidExpansion, parent.ID)
	}

	ids := make([]string, len(children))
	for i, c := range children {
		if err := c.Validate(parent); err != nil {
			return domain.ExpansionRecord{}, fmt.Errorf("%w: %v", ErrInvalidExpansion, err)
		}
		if c.ExpansionLens != lens {
			return domain.ExpansionRecord{}, fmt.Errorf("%w: child %s has lens %q, want %q", ErrInvalidExpansion, c.ID, c.ExpansionLens, lens)
		}
		ids[i] = c.ID
	}

	rec := domain.ExpansionRecord{
		ID:            t.newID(),
		ParentSlideID: parent.ID,
		ParentTitle:   parent.Title,
		Lens:          lens,
		ChildIDs:      ids,
		Timestamp:     t.now().UTC(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.byParent[parent.ID] = append(t.byParent[parent.ID], len(t.records))
	t.records = append(t.records, rec)
	return rec.Clone(), nil
}

// Latest returns the most recent record for slideID.
func (t *Tree) Latest(slideID string) (domain.ExpansionRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.byParent[slideID]
	if len(idx) == 0 {
		return domain.ExpansionRecord{}, false
	}
	return t.records[idx[len(idx)-1]].Clone(), true
}

// ChildrenOf resolves the children of the latest expansion of slideID.
// Children no longer in the arena are skipped.
func (t *Tree) ChildrenOf(slideID string) []*domain.Slide {
	rec, ok := t.Latest(slideID)
	if !ok {
		return nil
	}
	return t.arena.Resolve(rec.ChildIDs)
}

// HistoryOf returns every record whose parent is slideID, oldest first.
func (t *Tree) HistoryOf(slideID string) []domain.ExpansionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.byParent[slideID]
	out := make([]domain.ExpansionRecord, len(idx))
	for i, j := range idx {
		out[i] = t.records[j].Clone()
	}
	return out
}

// History returns the whole session log, oldest first.
func (t *Tree) History() []domain.ExpansionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.ExpansionRecord, len(t.records))
	for i, r := range t.records {
		out[i] = r.Clone()
	}
	return out
}

// Lineage returns the chain root, ..., slideID by following parent ids.
// The chain stops at the first ancestor missing from the arena.
func (t *Tree) Lineage(slideID string) []*domain.Slide {
	var chain []*domain.Slide
	seen := map[string]bool{}
	for id := slideID; id != "" && !seen[id]; {
		seen[id] = true
		s, ok := t.arena.Get(id)
		if !ok {
			break
		}
		chain = append(chain, s)
		id = s.ParentID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
