package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
)

const maxHeading = 6

// FormatMarkdown writes the outline as plain markdown. Root slides use the
// "## Slide N: Title" outline form, so the result parses back as a skeleton;
// expansions nest under deeper headings.
func FormatMarkdown(o contract.Outline) string {
	var b strings.Builder
	title := o.DeckTitle
	if title == "" {
		title = "Untitled deck"
	}
	fmt.Fprintf(&b, "# %s\n", title)
	for i, n := range o.Slides {
		fmt.Fprintf(&b, "\n## Slide %d: %s\n", i+1, n.Slide.Title)
		writeSlideBody(&b, n.Slide)
		writeExpansions(&b, n, 3)
	}
	return b.String()
}

func writeExpansions(b *strings.Builder, n contract.OutlineNode, level int) {
	for _, exp := range n.Expansions {
		fmt.Fprintf(b, "\n%s %s: %s\n", heading(level), domain.Lens(exp.Lens).Label(), n.Slide.Title)
		for _, child := range exp.Children {
			fmt.Fprintf(b, "\n%s %s\n", heading(level+1), child.Slide.Title)
			writeSlideBody(b, child.Slide)
			writeExpansions(b, child, level+2)
		}
	}
}

func writeSlideBody(b *strings.Builder, s contract.SlideView) {
	for _, p := range s.BulletPoints {
		fmt.Fprintf(b, "- %s\n", p)
	}
	if s.VisualHint != "" {
		fmt.Fprintf(b, "- **Visual suggestion:** %s\n", s.VisualHint)
	}
	switch domain.VisualStatus(s.VisualStatus) {
	case domain.VisualReady:
		fmt.Fprintf(b, "\n![%s](%s)\n", s.Title, s.VisualRef)
	case domain.VisualFailed:
		fmt.Fprintf(b, "\n> Visual failed: %s\n", s.VisualError)
	}
}

func heading(level int) string {
	if level > maxHeading {
		level = maxHeading
	}
	return strings.Repeat("#", level)
}
