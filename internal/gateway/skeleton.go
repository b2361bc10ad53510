package gateway

import (
	"regexp"
	"strings"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

var (
	slideHeader  = regexp.MustCompile(`(?i)^##\s*(?:final\s+)?slide(?:\s+[\w-]+)?\s*:\s*(.+)$`)
	visualPrefix = regexp.MustCompile(`(?i)^(?:[-*]\s*)?\*\*visual suggestion:\*\*\s*`)
)

// ParseSkeleton reads the markdown outline format:
//
//	# Deck title
//	## Slide 1: Title
//	- bullet
//	- **Visual suggestion:** description
//
// Text outside slide sections is ignored.
func ParseSkeleton(markdown string) (string, []domain.SlideSpec) {
	var (
		title   string
		specs   []domain.SlideSpec
		current *domain.SlideSpec
	)
	flush := func() {
		if current != nil {
			specs = append(specs, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "# "):
			if title == "" {
				title = strings.TrimSpace(line[2:])
			}
		case slideHeader.MatchString(line):
			flush()
			m := slideHeader.FindStringSubmatch(line)
			current = &domain.SlideSpec{Title: strings.TrimSpace(m[1])}
		case current == nil:
		case visualPrefix.MatchString(line):
			current.VisualHint = strings.TrimSpace(visualPrefix.ReplaceAllString(line, ""))
		case strings.HasPrefix(line, "##"):
			// Unrecognized section heading ends the current slide.
			flush()
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			if p := strings.TrimSpace(line[2:]); p != "" {
				current.BulletPoints = append(current.BulletPoints, p)
			}
		}
	}
	flush()
	return title, specs
}
