package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/bananadeck/internal/contract"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

func clampBar(pct float64, width int) (float64, int, int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	return pct, filled, width - filled
}

// RenderProgress renders a bar like [████░░░░]  50%.
func RenderProgress(pct float64, width int) string {
	pct, filled, empty := clampBar(pct, width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, empty)
	return fmt.Sprintf("[%s] %3.0f%%", StyleYellow.Render(bar), pct*100)
}

// RenderCompactBar renders the bar alone, without brackets or percentage.
func RenderCompactBar(pct float64, width int, dim bool) string {
	_, filled, empty := clampBar(pct, width)
	style := StyleYellow
	if dim {
		style = StyleDim
	}
	return style.Render(strings.Repeat(filledBlock, filled)) + StyleDim.Render(strings.Repeat(emptyBlock, empty))
}

// ProgressLine renders "Phase  [bar]  3 of 5", or the phase alone while the
// total is unknown.
func ProgressLine(p contract.ProgressView, width int) string {
	if p.Phase == "" {
		return ""
	}
	if p.Total == 0 {
		return StyleYellow.Render(p.Phase) + Dim("...")
	}
	return fmt.Sprintf("%s  %s  %s", StyleYellow.Render(p.Phase), RenderCompactBar(p.Fraction(), width, false), Dim(p.Label()))
}
