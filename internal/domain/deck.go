package domain

import "strings"

// SourceRef is an opaque reference to user-supplied material (path or URL).
type SourceRef struct {
	URI string
}

// Kind classifies the reference for prompt wording only.
func (r SourceRef) Kind() string {
	lower := strings.ToLower(r.URI)
	switch {
	case strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/"):
		return "video"
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return "url"
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	default:
		return "document"
	}
}

// Style is applied uniformly to every visual request of a batch.
type Style struct {
	Palette []string `json:"palette" yaml:"palette"`
	Font    string   `json:"font" yaml:"font"`
	Mood    string   `json:"mood,omitempty" yaml:"mood"`
}

// DefaultStyle is used when the model proposes none.
func DefaultStyle() Style {
	return Style{
		Palette: []string{"#1d3557", "#457b9d", "#f1faee", "#e63946"},
		Font:    "Inter",
		Mood:    "clean corporate",
	}
}

// IsZero reports whether no style attribute is set.
func (s Style) IsZero() bool {
	return len(s.Palette) == 0 && s.Font == "" && s.Mood == ""
}

// Merge fills unset attributes of s from fallback.
func (s Style) Merge(fallback Style) Style {
	out := Style{
		Palette: s.Palette,
		Font:    CoalesceStr(s.Font, fallback.Font),
		Mood:    CoalesceStr(s.Mood, fallback.Mood),
	}
	if len(out.Palette) == 0 {
		out.Palette = cloneStrings(fallback.Palette)
	}
	return out
}

type Deck struct {
	ID      string
	Title   string
	Style   Style
	Slides  []*Slide
	Sources []SourceRef
}

// SlideIDs returns the root slide ids in presentation order.
func (d *Deck) SlideIDs() []string {
	ids := make([]string, len(d.Slides))
	for i, s := range d.Slides {
		ids[i] = s.ID
	}
	return ids
}
