package generation

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

var (
	// ErrNoInputs indicates GenerateDeck was called without source references.
	ErrNoInputs = errors.New("no source inputs")

	// ErrEmptyStructure indicates the gateway produced an outline without usable slides.
	ErrEmptyStructure = errors.New("structure contains no slides")

	// ErrEmptyExpansion indicates the gateway produced no usable child slides.
	ErrEmptyExpansion = errors.New("expansion produced no slides")

	// ErrNoArtifact indicates the gateway reported success without an artifact.
	ErrNoArtifact = errors.New("visual call returned no artifact")
)

// StructureGenerationError is fatal to GenerateDeck. No slide is produced.
type StructureGenerationError struct {
	Err error
}

func (e *StructureGenerationError) Error() string {
	return fmt.Sprintf("structure generation failed: %v", e.Err)
}

func (e *StructureGenerationError) Unwrap() error { return e.Err }

func (e *StructureGenerationError) Phase() string { return "structure" }

// InvalidExpansionTargetError rejects an expansion before the gateway is called.
type InvalidExpansionTargetError struct {
	SlideID string
	Reason  string
}

func (e *InvalidExpansionTargetError) Error() string {
	return fmt.Sprintf("cannot expand slide %q: %s", e.SlideID, e.Reason)
}

func (e *InvalidExpansionTargetError) Phase() string { return "expansion" }

// ExpansionGenerationError is fatal to one expansion; nothing is registered.
type ExpansionGenerationError struct {
	SlideID string
	Lens    domain.Lens
	Err     error
}

func (e *ExpansionGenerationError) Error() string {
	return fmt.Sprintf("%s expansion of slide %q failed: %v", e.Lens, e.SlideID, e.Err)
}

func (e *ExpansionGenerationError) Unwrap() error { return e.Err }

func (e *ExpansionGenerationError) Phase() string { return "expansion" }

// PhaseOf names the operation phase of a fatal orchestrator error, or "" for other errors.
func PhaseOf(err error) string {
	var p interface{ Phase() string }
	if errors.As(err, &p) {
		return p.Phase()
	}
	return ""
}
