package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
)

// FormatOutline renders the deck as a tree: numbered root slides, each
// expansion as a lens node, and its children beneath.
func FormatOutline(o contract.Outline) string {
	if len(o.Slides) == 0 {
		return Dim("No deck generated yet.") + "\n"
	}

	var items []TreeItem
	expansions := 0
	var walk func(nodes []contract.OutlineNode, level int, numbered bool)
	walk = func(nodes []contract.OutlineNode, level int, numbered bool) {
		for i, n := range nodes {
			title := n.Slide.Title
			if numbered {
				title = fmt.Sprintf("%d. %s", i+1, title)
			}
			items = append(items, TreeItem{
				Title:  title,
				Level:  level,
				IsLast: i == len(nodes)-1,
				Status: n.Slide.VisualStatus,
			})
			for j, exp := range n.Expansions {
				expansions++
				items = append(items, TreeItem{
					Title:  fmt.Sprintf("%s (%s)", domain.Lens(exp.Lens).Label(), Plural(len(exp.Children), "slide")),
					Level:  level + 1,
					IsLast: j == len(n.Expansions)-1,
					Muted:  true,
				})
				walk(exp.Children, level+2, false)
			}
		}
	}
	walk(o.Slides, 0, true)

	var b strings.Builder
	b.WriteString(Header(o.DeckTitle) + "\n")
	b.WriteString(RenderTree(items))
	b.WriteString("\n" + Dim(fmt.Sprintf("%s, %s", Plural(o.Count(), "slide"), Plural(expansions, "expansion"))) + "\n")
	return b.String()
}

// FormatSlideCard renders one slide for presentation. width bounds the card;
// 0 lets it size to content.
func FormatSlideCard(s contract.SlideView, index, total, width int) string {
	var b strings.Builder
	title := Bold(s.Title)
	if s.Lens != "" {
		title += "  " + LensBadge(s.Lens)
	}
	b.WriteString(title + "\n\n")

	for _, p := range s.BulletPoints {
		b.WriteString(StyleYellow.Render("• ") + p + "\n")
	}
	if len(s.BulletPoints) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(visualLine(s) + "\n")
	if s.VisualHint != "" {
		b.WriteString(Dim("Visual suggestion: "+s.VisualHint) + "\n")
	}
	footer := fmt.Sprintf("slide %d of %d", index+1, total)
	if s.Expanded {
		footer += " · expanded"
	}
	b.WriteString("\n" + Dim(footer))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(1, 2)
	if width > 4 {
		box = box.Width(width - 2)
	}
	return box.Render(b.String())
}

func visualLine(s contract.SlideView) string {
	switch domain.VisualStatus(s.VisualStatus) {
	case domain.VisualReady:
		return VisualIndicator(s.VisualStatus) + " " + Dim("visual "+s.VisualRef)
	case domain.VisualFailed:
		return VisualIndicator(s.VisualStatus) + " " + StyleRed.Render("visual failed: "+s.VisualError)
	default:
		return VisualIndicator(s.VisualStatus) + " " + Dim("visual pending")
	}
}

// FormatBreadcrumb renders "Main deck › Parent › Child [Lens]".
func FormatBreadcrumb(crumbs []contract.Crumb) string {
	parts := []string{Dim("Main deck")}
	for _, c := range crumbs {
		part := c.Title
		if c.Lens != "" {
			part += " " + LensBadge(c.Lens)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, Dim(" › "))
}

// FormatFillSummary renders the outcome of a visual fill batch.
func FormatFillSummary(sum *contract.FillSummary) string {
	if sum == nil {
		return ""
	}
	line := StyleGreen.Render(fmt.Sprintf("%d of %d visuals ready", sum.Succeeded, sum.Total))
	if sum.Failed > 0 {
		line += ", " + StyleRed.Render(fmt.Sprintf("%d failed", sum.Failed))
	}
	if sum.Stopped {
		line += Dim(" (stopped)")
	}
	return line
}

// FormatError renders a fatal operation error with its phase.
func FormatError(e *contract.ErrorView) string {
	if e == nil {
		return ""
	}
	phase := e.Phase
	if phase == "" {
		phase = "error"
	}
	return StyleRed.Render(fmt.Sprintf("✖ %s failed: %s", phase, e.Message))
}
