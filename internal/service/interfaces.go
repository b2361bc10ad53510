package service

import (
	"context"

	"github.com/alexanderramin/bananadeck/internal/contract"
)

// Progress phase labels shown to the user.
const (
	PhaseStructure        = "Generating structure"
	PhaseVisuals          = "Generating visuals"
	PhaseExpanding        = "Expanding slide"
	PhaseExpansionVisuals = "Generating expansion visuals"
	PhaseRetry            = "Retrying visual"
	PhaseComplete         = "Complete"
)

// StudioService is the single session facade used by every UI. Intents
// mutate the session; Snapshot and Subscribe expose the published view.
type StudioService interface {
	Generate(ctx context.Context, req contract.GenerateRequest) (*contract.GenerateResponse, error)
	Expand(ctx context.Context, req contract.ExpandRequest) (*contract.ExpandResponse, error)
	Navigate(ctx context.Context, req contract.NavigateRequest) (contract.PublishedView, error)
	RetryVisual(ctx context.Context, slideID string) (*contract.RetryVisualResponse, error)

	Snapshot() contract.PublishedView
	// Subscribe delivers the latest view on every change. Slow readers only
	// miss intermediate versions. cancel closes the channel.
	Subscribe() (views <-chan contract.PublishedView, cancel func())

	// History returns expansion records of slideID, or of the whole session
	// when slideID is empty.
	History(slideID string) []contract.RecordView
	// Outline returns the deck with every expansion nested under its parent.
	Outline() contract.Outline

	// Wait blocks until every background fill has returned.
	Wait()
	// Close stops background fills and closes subscriber channels.
	Close()
}
