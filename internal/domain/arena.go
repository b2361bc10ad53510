package domain

import "sync"

// Arena owns every slide of a session, keyed by id. The parent/children
// relation is never stored here; see the expansion tree.
type Arena struct {
	mu     sync.RWMutex
	slides map[string]*Slide
}

func NewArena() *Arena {
	return &Arena{slides: make(map[string]*Slide)}
}

// Put stores a copy of s, replacing any slide with the same id.
func (a *Arena) Put(s *Slide) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slides[s.ID] = s.Clone()
}

// Get returns a copy of the slide with the given id.
func (a *Arena) Get(id string) (*Slide, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.slides[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Has reports whether id is present.
func (a *Arena) Has(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.slides[id]
	return ok
}

// Update applies fn to the stored slide. It is a no-op returning false when
// the id is absent, e.g. after a newer deck replaced the arena contents.
func (a *Arena) Update(id string, fn func(*Slide)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slides[id]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// Resolve returns copies of the slides for ids, in order, skipping missing ids.
func (a *Arena) Resolve(ids []string) []*Slide {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Slide, 0, len(ids))
	for _, id := range ids {
		if s, ok := a.slides[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Reset discards every slide.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slides = make(map[string]*Slide)
}

func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slides)
}
