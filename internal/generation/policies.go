package generation

import (
	"fmt"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// Expansion batches always hold between MinExpansionChildren and
// MaxExpansionChildren slides.
const (
	MinExpansionChildren = 3
	MaxExpansionChildren = 4
)

// NormalizeExpansion drops specs without a title, truncates to
// MaxExpansionChildren and pads short results with "(Part n)" continuations
// of parent. An empty result stays empty.
func NormalizeExpansion(parent domain.SlideSpec, specs []domain.SlideSpec) []domain.SlideSpec {
	out := make([]domain.SlideSpec, 0, MaxExpansionChildren)
	for _, s := range specs {
		if s.Validate() != nil {
			continue
		}
		out = append(out, s)
		if len(out) == MaxExpansionChildren {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	for len(out) < MinExpansionChildren {
		cont := parent.Clone()
		cont.Title = fmt.Sprintf("%s (Part %d)", parent.Title, len(out)+1)
		out = append(out, cont)
	}
	return out
}

// usableSpecs keeps the specs that can become slides.
func usableSpecs(specs []domain.SlideSpec) []domain.SlideSpec {
	out := make([]domain.SlideSpec, 0, len(specs))
	for _, s := range specs {
		if s.Validate() == nil {
			out = append(out, s)
		}
	}
	return out
}
