package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSkeleton(t *testing.T) {
	md := `Here is your presentation:

# Renewable Energy

## Slide 1: Introduction
- Energy demand is rising
- Renewables are cheaper than ever

## Slide 2: Solar
- Panels convert light
* Storage smooths output
- **Visual suggestion:** rooftop array at dusk

## Final Slide: Takeaways
- Invest early
**Visual suggestion:** upward trend chart

## Notes
- not a slide bullet
`
	title, specs := ParseSkeleton(md)

	assert.Equal(t, "Renewable Energy", title)
	require.Len(t, specs, 3)

	assert.Equal(t, "Introduction", specs[0].Title)
	assert.Equal(t, []string{"Energy demand is rising", "Renewables are cheaper than ever"}, specs[0].BulletPoints)
	assert.Empty(t, specs[0].VisualHint)

	assert.Equal(t, "Solar", specs[1].Title)
	assert.Equal(t, []string{"Panels convert light", "Storage smooths output"}, specs[1].BulletPoints)
	assert.Equal(t, "rooftop array at dusk", specs[1].VisualHint)

	assert.Equal(t, "Takeaways", specs[2].Title)
	assert.Equal(t, []string{"Invest early"}, specs[2].BulletPoints)
	assert.Equal(t, "upward trend chart", specs[2].VisualHint)
}

func TestParseSkeleton_LetterNumberedHeaders(t *testing.T) {
	_, specs := ParseSkeleton("## Slide X: Alpha\n- a\n## Slide Y: Beta\n- b")
	require.Len(t, specs, 2)
	assert.Equal(t, "Alpha", specs[0].Title)
	assert.Equal(t, "Beta", specs[1].Title)
}

func TestParseSkeleton_NoSlides(t *testing.T) {
	title, specs := ParseSkeleton("just prose\n- stray bullet")
	assert.Empty(t, title)
	assert.Empty(t, specs)
}
