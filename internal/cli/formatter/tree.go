package formatter

import "strings"

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Status string // visual status; "" draws no marker
	Muted  bool
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree draws items with box-drawing connectors. Items are given in
// depth-first order.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for _, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			prefix.WriteString(strings.Repeat(treePipe, item.Level-1))
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		title := item.Title
		if item.Muted {
			title = Dim(title)
		}
		marker := ""
		if item.Status != "" {
			marker = VisualIndicator(item.Status) + " "
		}
		b.WriteString(StyleDim.Render(prefix.String()) + marker + title + "\n")
	}
	return b.String()
}
