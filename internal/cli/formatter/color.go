package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// Banana-and-slate palette.
var (
	ColorGreen  = lipgloss.Color("#a3be8c")
	ColorYellow = lipgloss.Color("#ffd866")
	ColorRed    = lipgloss.Color("#ff6188")
	ColorBlue   = lipgloss.Color("#78dce8")
	ColorPurple = lipgloss.Color("#ab9df2")
	ColorOrange = lipgloss.Color("#fc9867")
	ColorDim    = lipgloss.Color("#727072")
	ColorFg     = lipgloss.Color("#fcfcfa")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleOrange = lipgloss.NewStyle().Foreground(ColorOrange)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// LensColor returns the style for an expansion lens.
func LensColor(lens domain.Lens) lipgloss.Style {
	switch lens {
	case domain.LensTechnical:
		return StyleBlue
	case domain.LensBusiness:
		return StyleGreen
	case domain.LensExamples:
		return StyleOrange
	case domain.LensQuestions:
		return StylePurple
	default:
		return StyleDim
	}
}

// LensBadge renders a lens as "[Technical]" in its color, or "" for none.
func LensBadge(lens string) string {
	if lens == "" {
		return ""
	}
	l := domain.Lens(lens)
	return LensColor(l).Render("[" + l.Label() + "]")
}

// VisualIndicator returns a one-glyph marker for a slide's visual status.
func VisualIndicator(status string) string {
	switch domain.VisualStatus(status) {
	case domain.VisualReady:
		return StyleGreen.Render("●")
	case domain.VisualFailed:
		return StyleRed.Render("✖")
	default:
		return StyleDim.Render("○")
	}
}

// Header renders an upper-cased heading with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
