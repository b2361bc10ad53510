package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/bananadeck/internal/navigator"
)

func TestNewExpandRequest_EntersByDefault(t *testing.T) {
	req := NewExpandRequest("s1", "technical")

	assert.Equal(t, "s1", req.SlideID)
	assert.Equal(t, "technical", req.Lens)
	assert.True(t, req.Enter)
	assert.False(t, req.Wait)
}

func TestNewGenerateRequest_RunsInBackground(t *testing.T) {
	req := NewGenerateRequest("a.pdf", "https://example.com")
	assert.Equal(t, []string{"a.pdf", "https://example.com"}, req.Sources)
	assert.False(t, req.Wait)
}

func TestParseNavigateAction(t *testing.T) {
	a, err := ParseNavigateAction(" Start-Walkthrough ")
	require.NoError(t, err)
	assert.Equal(t, ActionStartWalkthrough, a)

	_, err = ParseNavigateAction("jump")
	var se *StudioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrInvalidRequest, se.Code)
}

func TestProgressView_Label(t *testing.T) {
	assert.Equal(t, "", ProgressView{}.Label())
	assert.Equal(t, "5 of 5", ProgressView{Current: 5, Total: 5}.Label())
	assert.InDelta(t, 0.4, ProgressView{Current: 2, Total: 5}.Fraction(), 1e-9)
}

func TestPublishedView_CurrentSlide(t *testing.T) {
	v := PublishedView{Slides: []SlideView{{ID: "a"}, {ID: "b"}}}
	_, ok := v.CurrentSlide()
	assert.False(t, ok)

	v.Walkthrough = navigator.Walkthrough{Active: true, Index: 1}
	cur, ok := v.CurrentSlide()
	require.True(t, ok)
	assert.Equal(t, "b", cur.ID)
	assert.False(t, v.HasError())
}
