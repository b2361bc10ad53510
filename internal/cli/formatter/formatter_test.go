package formatter

import (
	"regexp"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/gateway"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI keeps golden files terminal-independent.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// assertGolden compares got with testdata/<name>.golden; run with -update
// to rewrite.
func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, []byte(stripANSI(got)))
}

func slide(id, title, status string) contract.SlideView {
	s := contract.SlideView{
		ID:           id,
		Title:        title,
		BulletPoints: []string{title + " first", title + " second"},
		VisualStatus: status,
		Expandable:   true,
	}
	switch status {
	case "ready":
		s.VisualRef = "art-" + id
	case "failed":
		s.VisualError = "quota exceeded"
	}
	return s
}

func testOutline() contract.Outline {
	intro := slide("s1", "Intro", "ready")
	intro.VisualHint = "timeline of the launch"
	intro.Expanded = true
	return contract.Outline{
		DeckID:    "d1",
		DeckTitle: "Launch plan",
		Slides: []contract.OutlineNode{
			{
				Slide: intro,
				Expansions: []contract.OutlineExpansion{{
					RecordID: "r1",
					Lens:     "technical",
					Children: []contract.OutlineNode{
						{Slide: slide("c1", "Deep 1", "ready")},
						{Slide: slide("c2", "Deep 2", "failed")},
						{Slide: slide("c3", "Deep 3", "pending")},
					},
				}},
			},
			{Slide: slide("s2", "Pricing", "failed")},
		},
	}
}

func TestFormatOutline_Golden(t *testing.T) {
	assertGolden(t, "outline", FormatOutline(testOutline()))
}

func TestFormatOutline_Empty(t *testing.T) {
	assert.Contains(t, FormatOutline(contract.Outline{}), "No deck generated yet.")
}

func TestFormatMarkdown_Golden(t *testing.T) {
	assertGolden(t, "summary_markdown", FormatMarkdown(testOutline()))
}

func TestFormatMarkdown_ParsesBackAsSkeleton(t *testing.T) {
	title, specs := gateway.ParseSkeleton(FormatMarkdown(testOutline()))

	assert.Equal(t, "Launch plan", title)
	require.Len(t, specs, 2)
	assert.Equal(t, "Intro", specs[0].Title)
	assert.Equal(t, []string{"Intro first", "Intro second"}, specs[0].BulletPoints)
	assert.Equal(t, "timeline of the launch", specs[0].VisualHint)
	assert.Equal(t, "Pricing", specs[1].Title)
}

func TestFormatSlideCard(t *testing.T) {
	s := slide("c2", "Deep 2", "failed")
	s.Lens = "business"

	card := stripANSI(FormatSlideCard(s, 1, 3, 60))

	assert.Contains(t, card, "Deep 2")
	assert.Contains(t, card, "[Business]")
	assert.Contains(t, card, "• Deep 2 first")
	assert.Contains(t, card, "visual failed: quota exceeded")
	assert.Contains(t, card, "slide 2 of 3")
}

func TestFormatBreadcrumb(t *testing.T) {
	got := stripANSI(FormatBreadcrumb([]contract.Crumb{
		{SlideID: "s1", Title: "Intro"},
		{SlideID: "c1", Title: "Deep 1", Lens: "technical"},
	}))
	assert.Equal(t, "Main deck › Intro › Deep 1 [Technical]", got)
}

func TestFormatFillSummary(t *testing.T) {
	assert.Empty(t, FormatFillSummary(nil))
	assert.Equal(t, "4 of 5 visuals ready, 1 failed",
		stripANSI(FormatFillSummary(&contract.FillSummary{Total: 5, Succeeded: 4, Failed: 1})))
	assert.Equal(t, "2 of 5 visuals ready (stopped)",
		stripANSI(FormatFillSummary(&contract.FillSummary{Total: 5, Succeeded: 2, Stopped: true})))
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))
	assert.Equal(t, "✖ structure failed: model offline",
		stripANSI(FormatError(&contract.ErrorView{Phase: "structure", Message: "model offline"})))
}

func TestFormatHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := stripANSI(FormatHistory([]contract.RecordView{
		{ID: "r1", ParentTitle: "Intro", Lens: "technical", ChildIDs: []string{"a", "b", "c"}, Timestamp: now.Add(-5 * time.Minute)},
		{ID: "r2", ParentTitle: "Pricing", Lens: "questions", ChildIDs: []string{"d", "e", "f", "g"}, Timestamp: now.Add(-2 * time.Hour)},
	}, now))

	for _, want := range []string{"WHEN", "LENS", "Intro", "[Technical]", "5m ago", "Pricing", "[Questions]", "2h ago", "4"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, FormatHistory(nil, now), "No expansions yet.")
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Just now", HumanTimestampFrom(now.Add(-10*time.Second), now))
	assert.Equal(t, "3h ago", HumanTimestampFrom(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Feb 27, 2026 12:00", HumanTimestampFrom(now.Add(-48*time.Hour), now))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 slide", Plural(1, "slide"))
	assert.Equal(t, "0 slides", Plural(0, "slide"))
}
