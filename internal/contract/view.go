package contract

import (
	"fmt"
	"time"

	"github.com/alexanderramin/bananadeck/internal/navigator"
)

// PublishedView is the read-only state handed to every UI.
type PublishedView struct {
	Version     uint64                `json:"version"`
	DeckID      string                `json:"deck_id,omitempty"`
	DeckTitle   string                `json:"deck_title,omitempty"`
	View        navigator.ViewState   `json:"view"`
	Walkthrough navigator.Walkthrough `json:"walkthrough"`
	Slides      []SlideView           `json:"slides"`
	Breadcrumb  []Crumb               `json:"breadcrumb,omitempty"`
	Progress    ProgressView          `json:"progress"`
	Busy        bool                  `json:"busy"`
	Error       *ErrorView            `json:"error,omitempty"`
}

// HasError is the error-state flag of the view.
func (v PublishedView) HasError() bool { return v.Error != nil }

// CurrentSlide returns the slide under the walkthrough cursor.
func (v PublishedView) CurrentSlide() (SlideView, bool) {
	if !v.Walkthrough.Active || v.Walkthrough.Index >= len(v.Slides) {
		return SlideView{}, false
	}
	return v.Slides[v.Walkthrough.Index], true
}

type SlideView struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	BulletPoints []string `json:"bullet_points"`
	VisualHint   string   `json:"visual_hint,omitempty"`
	VisualRef    string   `json:"visual_ref,omitempty"`
	VisualStatus string   `json:"visual_status"`
	VisualError  string   `json:"visual_error,omitempty"`
	ParentID     string   `json:"parent_id,omitempty"`
	Depth        int      `json:"depth"`
	Lens         string   `json:"lens,omitempty"`
	Expandable   bool     `json:"expandable"`
	Expanded     bool     `json:"expanded"`
	Position     int      `json:"position"`
}

type ProgressView struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Label renders the "current of total" form, or "" before any work started.
func (p ProgressView) Label() string {
	if p.Total == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d", p.Current, p.Total)
}

func (p ProgressView) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total)
}

// ErrorView names the failed phase of the last fatal operation.
type ErrorView struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

type Crumb struct {
	SlideID string `json:"slide_id"`
	Title   string `json:"title"`
	Lens    string `json:"lens,omitempty"`
}

type RecordView struct {
	ID            string    `json:"id"`
	ParentSlideID string    `json:"parent_slide_id"`
	ParentTitle   string    `json:"parent_title"`
	Lens          string    `json:"lens"`
	ChildIDs      []string  `json:"child_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

// Outline is the whole session tree: root slides and every expansion made
// from them, oldest first.
type Outline struct {
	DeckID    string        `json:"deck_id,omitempty"`
	DeckTitle string        `json:"deck_title,omitempty"`
	Slides    []OutlineNode `json:"slides"`
}

type OutlineNode struct {
	Slide      SlideView          `json:"slide"`
	Expansions []OutlineExpansion `json:"expansions,omitempty"`
}

type OutlineExpansion struct {
	RecordID string        `json:"record_id"`
	Lens     string        `json:"lens"`
	Children []OutlineNode `json:"children"`
}

// Count returns the number of slides in the outline, expansions included.
func (o Outline) Count() int {
	return countNodes(o.Slides)
}

func countNodes(nodes []OutlineNode) int {
	n := len(nodes)
	for _, node := range nodes {
		for _, exp := range node.Expansions {
			n += countNodes(exp.Children)
		}
	}
	return n
}
