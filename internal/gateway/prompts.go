package gateway

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// structureSystemPrompt asks for a deck outline with a shared style.
const structureSystemPrompt = `You are a professional presentation designer.
You will receive a list of source materials. Create a presentation outline that communicates their key information.

You must output ONLY a JSON object with these fields:
- title: the presentation title
- style: object with
  - palette: array of 3-5 hex colors (e.g. "#1d3557")
  - font: a single font family name
  - mood: 2-4 words describing the visual tone
- slides: array of 5-12 objects, each with
  - title: short slide title
  - bullet_points: array of 2-5 concise points, in presentation order
  - visual_hint: a specific description of a chart, diagram or image that supports the slide (optional)

RULES:
1. The first slide introduces the topic; the last slide summarizes key takeaways
2. Keep bullet points under 15 words
3. Use strict JSON, no comments, no trailing commas
4. Output ONLY the JSON object, no markdown, no explanation

If you cannot produce JSON, use this markdown format instead:
# [Presentation Title]
## Slide 1: [Title]
- [Point]
- **Visual suggestion:** [description]`

// expansionSystemPrompt asks for child slides of a single slide.
const expansionSystemPrompt = `You are a professional presentation designer.
You will receive a single slide and an expansion angle. Expand the slide into 3 or 4 new slides that cover it in more depth from that angle.

You must output ONLY a JSON object with this field:
- slides: array of 3-4 objects, each with
  - title: short slide title (do not repeat the original title verbatim)
  - bullet_points: array of 3-5 detailed points
  - visual_hint: a specific visual description (optional)

RULES:
1. Maintain logical flow and progression across the new slides
2. Each slide must be substantial and meaningful on its own
3. Output ONLY the JSON object, no markdown, no explanation

If you cannot produce JSON, use this markdown format instead:
## Slide 1: [Title]
- [Point]
- **Visual suggestion:** [description]`

var lensInstructions = map[domain.Lens]string{
	domain.LensTechnical: "Technical deep dive: explain mechanisms, architecture, data flow and implementation details.",
	domain.LensBusiness:  "Business impact: cover value, costs, risks, market context and decisions for stakeholders.",
	domain.LensExamples:  "Concrete examples: illustrate each idea with real-world cases, scenarios or worked examples.",
	domain.LensQuestions: "Probing questions: raise the questions an audience would ask and answer each one.",
}

// LensInstruction returns the angle description sent for lens.
func LensInstruction(lens domain.Lens) string {
	return lensInstructions[lens]
}

func structureUserPrompt(inputs []domain.SourceRef) string {
	var b strings.Builder
	b.WriteString("Source materials:\n")
	for i, in := range inputs {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, in.Kind(), in.URI)
	}
	return b.String()
}

func expansionUserPrompt(spec domain.SlideSpec, lens domain.Lens) string {
	var b strings.Builder
	b.WriteString("ORIGINAL SLIDE:\n")
	fmt.Fprintf(&b, "Title: %s\n", spec.Title)
	b.WriteString("Content:\n")
	for _, p := range spec.BulletPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if spec.VisualHint != "" {
		fmt.Fprintf(&b, "Visual: %s\n", spec.VisualHint)
	}
	fmt.Fprintf(&b, "\nEXPANSION ANGLE (%s):\n%s\n", lens, LensInstruction(lens))
	return b.String()
}

var designRules = []string{
	"Ensure all text is clearly legible and properly positioned",
	"Use clean typography with good spacing between elements",
	"Avoid cluttered layouts; keep it clean and focused",
	"Display the slide title prominently at the top",
	"Position bullet points clearly with a visual hierarchy of text sizes",
	"Ensure proper contrast between text and background",
}

// BuildImagePrompt describes one slide for the image model.
func BuildImagePrompt(spec domain.SlideSpec, style domain.Style, vctx VisualContext) string {
	var b strings.Builder
	b.WriteString("Create a professional presentation slide with high-fidelity text rendering, 16:9 aspect ratio.\n\n")
	if vctx.Total > 0 {
		fmt.Fprintf(&b, "This is slide %d of %d", vctx.Index+1, vctx.Total)
		if vctx.DeckTitle != "" {
			fmt.Fprintf(&b, " in the presentation '%s'", vctx.DeckTitle)
		}
		if vctx.ParentTitle != "" {
			fmt.Fprintf(&b, ", expanding on '%s'", vctx.ParentTitle)
		}
		b.WriteString(".\n\n")
	}
	fmt.Fprintf(&b, "The slide title is: '%s'\n\n", spec.Title)
	if len(spec.BulletPoints) > 0 {
		b.WriteString("The slide contains the following bullet points:\n")
		for i, p := range spec.BulletPoints {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
		b.WriteString("\n")
	}
	if spec.VisualHint != "" {
		fmt.Fprintf(&b, "Visual elements to include: %s\n\n", spec.VisualHint)
	}

	b.WriteString("Design specifications:\n")
	if len(style.Palette) > 0 {
		fmt.Fprintf(&b, "- Use this color palette: %s\n", strings.Join(style.Palette, ", "))
	}
	if style.Font != "" {
		fmt.Fprintf(&b, "- Set all text in %s\n", style.Font)
	}
	if style.Mood != "" {
		fmt.Fprintf(&b, "- Overall mood: %s\n", style.Mood)
	}
	for _, r := range designRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}
