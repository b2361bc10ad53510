package contract

import (
	"fmt"
	"strings"
)

type GenerateRequest struct {
	Sources []string `json:"sources"`
	// Wait blocks until the visual fill finishes instead of running it in the background.
	Wait bool `json:"wait,omitempty"`
}

func NewGenerateRequest(sources ...string) GenerateRequest {
	return GenerateRequest{Sources: sources}
}

type GenerateResponse struct {
	DeckID     string       `json:"deck_id"`
	Title      string       `json:"title"`
	SlideCount int          `json:"slide_count"`
	BatchID    uint64       `json:"batch_id"`
	Summary    *FillSummary `json:"summary,omitempty"`
	// Superseded is set when a newer deck was committed first; nothing was applied.
	Superseded bool `json:"superseded,omitempty"`
}

type ExpandRequest struct {
	SlideID string `json:"slide_id"`
	Lens    string `json:"lens"`
	Wait    bool   `json:"wait,omitempty"`
	// Enter switches the view to the new children once they exist.
	Enter bool `json:"enter"`
}

func NewExpandRequest(slideID, lens string) ExpandRequest {
	return ExpandRequest{SlideID: slideID, Lens: lens, Enter: true}
}

type ExpandResponse struct {
	RecordID string       `json:"record_id"`
	ParentID string       `json:"parent_id"`
	Lens     string       `json:"lens"`
	ChildIDs []string     `json:"child_ids"`
	BatchID  uint64       `json:"batch_id"`
	Summary  *FillSummary `json:"summary,omitempty"`
	// Superseded is set when the parent left the session before the children arrived.
	Superseded bool `json:"superseded,omitempty"`
}

type NavigateAction string

const (
	ActionGoBack           NavigateAction = "go_back"
	ActionEnter            NavigateAction = "enter"
	ActionAdvance          NavigateAction = "advance"
	ActionRetreat          NavigateAction = "retreat"
	ActionStartWalkthrough NavigateAction = "start_walkthrough"
	ActionClose            NavigateAction = "close"
)

var validActions = map[NavigateAction]bool{
	ActionGoBack: true, ActionEnter: true, ActionAdvance: true,
	ActionRetreat: true, ActionStartWalkthrough: true, ActionClose: true,
}

// ParseNavigateAction accepts the action names case-insensitively, with
// dashes or underscores.
func ParseNavigateAction(s string) (NavigateAction, error) {
	a := NavigateAction(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !validActions[a] {
		return "", &StudioError{Code: ErrInvalidRequest, Message: fmt.Sprintf("unknown navigate action %q", s)}
	}
	return a, nil
}

type NavigateRequest struct {
	Action   NavigateAction `json:"action"`
	ParentID string         `json:"parent_id,omitempty"` // enter only
	Lens     string         `json:"lens,omitempty"`      // enter only; defaults to the latest expansion's lens
}

type RetryVisualResponse struct {
	SlideID  string `json:"slide_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Deduped  bool   `json:"deduped"`
}

type FillSummary struct {
	Total     int  `json:"total"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Stopped   bool `json:"stopped"`
}

type StudioErrorCode string

const (
	ErrInvalidRequest StudioErrorCode = "INVALID_REQUEST"
	ErrSlideNotFound  StudioErrorCode = "SLIDE_NOT_FOUND"
	ErrNotRetryable   StudioErrorCode = "NOT_RETRYABLE"
	ErrInternalError  StudioErrorCode = "INTERNAL_ERROR"
)

type StudioError struct {
	Code    StudioErrorCode
	Message string
}

func (e *StudioError) Error() string {
	return string(e.Code) + ": " + e.Message
}
