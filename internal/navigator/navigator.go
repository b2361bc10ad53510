// Package navigator exposes which slide collection is visible and the
// presentation-mode cursor over it.
package navigator

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

var (
	// ErrEmptyCollection indicates a walkthrough over no slides.
	ErrEmptyCollection = errors.New("visible collection is empty")

	// ErrWalkthroughInactive indicates a cursor move outside presentation mode.
	ErrWalkthroughInactive = errors.New("walkthrough is not active")

	// ErrInvalidView indicates an expansion view without a parent or lens.
	ErrInvalidView = errors.New("invalid expanded view")
)

type Kind string

const (
	MainDeck     Kind = "main_deck"
	ExpandedView Kind = "expanded_view"
)

// ViewState identifies the visible collection.
type ViewState struct {
	Kind     Kind        `json:"kind"`
	ParentID string      `json:"parent_id,omitempty"`
	Lens     domain.Lens `json:"lens,omitempty"`
}

func (v ViewState) IsMain() bool { return v.Kind == MainDeck }

// Walkthrough is the presentation-mode cursor.
type Walkthrough struct {
	Active bool `json:"active"`
	Index  int  `json:"index"`
}

// Collections resolves the slides behind a view.
type Collections interface {
	MainDeck() []*domain.Slide
	ChildrenOf(slideID string) []*domain.Slide
}

// Navigator is not safe for concurrent use; the owner serializes calls.
type Navigator struct {
	src   Collections
	state ViewState
	walk  Walkthrough
}

func New(src Collections) *Navigator {
	return &Navigator{src: src, state: ViewState{Kind: MainDeck}}
}

func (n *Navigator) State() ViewState { return n.state }

func (n *Navigator) Walkthrough() Walkthrough { return n.walk }

// Visible resolves the collection for the current state.
func (n *Navigator) Visible() []*domain.Slide {
	if n.state.Kind == ExpandedView {
		return n.src.ChildrenOf(n.state.ParentID)
	}
	return n.src.MainDeck()
}

// Current returns the slide under the walkthrough cursor.
func (n *Navigator) Current() (*domain.Slide, bool) {
	if !n.walk.Active {
		return nil, false
	}
	visible := n.Visible()
	if n.walk.Index >= len(visible) {
		return nil, false
	}
	return visible[n.walk.Index], true
}

// EnterExpansion shows the children of parentID. Allowed from any state.
func (n *Navigator) EnterExpansion(parentID string, lens domain.Lens) error {
	if parentID == "" {
		return fmt.Errorf("%w: parent id is required", ErrInvalidView)
	}
	if !lens.Valid() {
		return fmt.Errorf("%w: unknown lens %q", ErrInvalidView, lens)
	}
	n.state = ViewState{Kind: ExpandedView, ParentID: parentID, Lens: lens}
	n.walk = Walkthrough{}
	return nil
}

// GoBack always returns to the main deck, whatever the expansion depth.
func (n *Navigator) GoBack() {
	if n.state.Kind == MainDeck {
		return
	}
	n.state = ViewState{Kind: MainDeck}
	n.walk = Walkthrough{}
}

// Reset returns to the initial state.
func (n *Navigator) Reset() {
	n.state = ViewState{Kind: MainDeck}
	n.walk = Walkthrough{}
}

func (n *Navigator) StartWalkthrough() error {
	if len(n.Visible()) == 0 {
		return ErrEmptyCollection
	}
	n.walk = Walkthrough{Active: true, Index: 0}
	return nil
}

// Advance moves the cursor forward, wrapping past the last slide.
func (n *Navigator) Advance() error {
	return n.step(1)
}

// Retreat moves the cursor back, wrapping before the first slide.
func (n *Navigator) Retreat() error {
	return n.step(-1)
}

func (n *Navigator) CloseWalkthrough() {
	n.walk = Walkthrough{}
}

func (n *Navigator) step(delta int) error {
	if !n.walk.Active {
		return ErrWalkthroughInactive
	}
	size := len(n.Visible())
	if size == 0 {
		n.walk = Walkthrough{}
		return ErrEmptyCollection
	}
	n.walk.Index = ((n.walk.Index+delta)%size + size) % size
	return nil
}
