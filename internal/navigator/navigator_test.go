package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/testutil"
)

type fakeCollections struct {
	main     []*domain.Slide
	children map[string][]*domain.Slide
}

func (f *fakeCollections) MainDeck() []*domain.Slide { return f.main }

func (f *fakeCollections) ChildrenOf(id string) []*domain.Slide { return f.children[id] }

func newFixture() (*fakeCollections, *Navigator) {
	root := []*domain.Slide{testutil.NewTestSlide("a"), testutil.NewTestSlide("b"), testutil.NewTestSlide("c")}
	src := &fakeCollections{
		main: root,
		children: map[string][]*domain.Slide{
			root[1].ID: {
				testutil.NewTestSlide("b1", testutil.WithParent(root[1], domain.LensTechnical)),
				testutil.NewTestSlide("b2", testutil.WithParent(root[1], domain.LensTechnical)),
			},
		},
	}
	return src, New(src)
}

func TestNavigator_InitialState(t *testing.T) {
	src, nav := newFixture()

	assert.Equal(t, ViewState{Kind: MainDeck}, nav.State())
	assert.False(t, nav.Walkthrough().Active)
	assert.Equal(t, src.main, nav.Visible())
}

func TestNavigator_WrapAround(t *testing.T) {
	_, nav := newFixture()
	require.NoError(t, nav.StartWalkthrough())
	require.NoError(t, nav.Advance())
	require.NoError(t, nav.Advance())
	require.Equal(t, 2, nav.Walkthrough().Index)

	require.NoError(t, nav.Advance())
	assert.Equal(t, 0, nav.Walkthrough().Index, "advance past last wraps to first")

	require.NoError(t, nav.Retreat())
	assert.Equal(t, 2, nav.Walkthrough().Index, "retreat before first wraps to last")
}

func TestNavigator_CurrentFollowsCursor(t *testing.T) {
	src, nav := newFixture()
	_, ok := nav.Current()
	assert.False(t, ok)

	require.NoError(t, nav.StartWalkthrough())
	require.NoError(t, nav.Retreat())
	cur, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, src.main[2].ID, cur.ID)
}

func TestNavigator_StepRequiresActiveWalkthrough(t *testing.T) {
	_, nav := newFixture()
	assert.ErrorIs(t, nav.Advance(), ErrWalkthroughInactive)
	assert.ErrorIs(t, nav.Retreat(), ErrWalkthroughInactive)

	require.NoError(t, nav.StartWalkthrough())
	nav.CloseWalkthrough()
	assert.ErrorIs(t, nav.Advance(), ErrWalkthroughInactive)
}

func TestNavigator_StartWalkthroughOnEmptyCollection(t *testing.T) {
	nav := New(&fakeCollections{})
	assert.ErrorIs(t, nav.StartWalkthrough(), ErrEmptyCollection)
	assert.False(t, nav.Walkthrough().Active)

	_, nav = newFixture()
	require.NoError(t, nav.EnterExpansion("no-children", domain.LensBusiness))
	assert.ErrorIs(t, nav.StartWalkthrough(), ErrEmptyCollection)
}

func TestNavigator_StepAfterCollectionEmptied(t *testing.T) {
	src, nav := newFixture()
	require.NoError(t, nav.StartWalkthrough())
	src.main = nil

	assert.ErrorIs(t, nav.Advance(), ErrEmptyCollection)
	assert.False(t, nav.Walkthrough().Active)
}

func TestNavigator_EnterExpansionShowsChildren(t *testing.T) {
	src, nav := newFixture()
	parent := src.main[1]
	require.NoError(t, nav.StartWalkthrough())

	require.NoError(t, nav.EnterExpansion(parent.ID, domain.LensTechnical))

	assert.Equal(t, ViewState{Kind: ExpandedView, ParentID: parent.ID, Lens: domain.LensTechnical}, nav.State())
	assert.Len(t, nav.Visible(), 2)
	assert.False(t, nav.Walkthrough().Active, "switching views closes the walkthrough")
}

func TestNavigator_EnterExpansionValidates(t *testing.T) {
	_, nav := newFixture()
	assert.ErrorIs(t, nav.EnterExpansion("", domain.LensTechnical), ErrInvalidView)
	assert.ErrorIs(t, nav.EnterExpansion("x", domain.Lens("nope")), ErrInvalidView)
	assert.True(t, nav.State().IsMain())
}

func TestNavigator_GoBackAlwaysReturnsToMainDeck(t *testing.T) {
	src, nav := newFixture()
	b := src.main[1]
	b1 := src.children[b.ID][0]

	require.NoError(t, nav.EnterExpansion(b.ID, domain.LensTechnical))
	require.NoError(t, nav.EnterExpansion(b1.ID, domain.LensExamples))
	require.NoError(t, nav.EnterExpansion("deeper", domain.LensQuestions))

	nav.GoBack()
	assert.Equal(t, ViewState{Kind: MainDeck}, nav.State(), "no intermediate expansion level")

	nav.GoBack()
	assert.Equal(t, ViewState{Kind: MainDeck}, nav.State(), "go back from main deck is a no-op")
}

func TestNavigator_GoBackFromMainKeepsWalkthrough(t *testing.T) {
	_, nav := newFixture()
	require.NoError(t, nav.StartWalkthrough())
	require.NoError(t, nav.Advance())

	nav.GoBack()
	assert.Equal(t, Walkthrough{Active: true, Index: 1}, nav.Walkthrough())
}
