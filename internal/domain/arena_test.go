package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_UpdateAbsentIsNoop(t *testing.T) {
	a := NewArena()
	called := false
	ok := a.Update("missing", func(*Slide) { called = true })

	assert.False(t, ok)
	assert.False(t, called)
}

func TestArena_GetReturnsCopy(t *testing.T) {
	a := NewArena()
	a.Put(NewRootSlide("s1", SlideSpec{Title: "A"}, 0))

	got, ok := a.Get("s1")
	require.True(t, ok)
	got.Title = "mutated"

	again, _ := a.Get("s1")
	assert.Equal(t, "A", again.Title)
}

func TestArena_ResolveKeepsOrderAndSkipsMissing(t *testing.T) {
	a := NewArena()
	a.Put(NewRootSlide("s1", SlideSpec{Title: "A"}, 0))
	a.Put(NewRootSlide("s2", SlideSpec{Title: "B"}, 1))

	got := a.Resolve([]string{"s2", "gone", "s1"})
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].ID)
	assert.Equal(t, "s1", got[1].ID)
}

func TestArena_ResetDropsEverything(t *testing.T) {
	a := NewArena()
	a.Put(NewRootSlide("s1", SlideSpec{Title: "A"}, 0))
	a.Reset()

	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Has("s1"))
}

func TestStyle_MergeFillsGaps(t *testing.T) {
	s := Style{Font: "Georgia"}.Merge(DefaultStyle())
	assert.Equal(t, "Georgia", s.Font)
	assert.Equal(t, DefaultStyle().Palette, s.Palette)
	assert.Equal(t, DefaultStyle().Mood, s.Mood)
	assert.True(t, Style{}.IsZero())
}

func TestSourceRef_Kind(t *testing.T) {
	assert.Equal(t, "video", SourceRef{URI: "https://www.youtube.com/watch?v=x"}.Kind())
	assert.Equal(t, "url", SourceRef{URI: "https://example.com/post"}.Kind())
	assert.Equal(t, "pdf", SourceRef{URI: "/tmp/Report.PDF"}.Kind())
	assert.Equal(t, "document", SourceRef{URI: "notes.md"}.Kind())
}
