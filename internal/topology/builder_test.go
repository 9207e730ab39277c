package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

func span(id string, x0, y0, x1, y1 float64) model.Span {
	return model.Span{
		ID:    id,
		Start: model.Point2D{X: x0, Y: y0},
		End:   model.Point2D{X: x1, Y: y1},
	}
}

func groupIDs(groups []model.BeamGroup) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.MemberIDs()
	}
	return out
}

// TestBuildGraph_CollinearChain tests that touching collinear spans form
// one ordered group with the leftmost span as anchor.
func TestBuildGraph_CollinearChain(t *testing.T) {
	b := NewBuilder(config.Default())
	spans := []model.Span{
		span("mid", 4500, 0, 9000, 0),
		span("left", 0, 0, 4500, 0),
		span("right", 9000, 0, 13500, 0),
	}

	groups := SplitIntoGroups(b.BuildGraph(spans, nil))
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"left", "mid", "right"}, groups[0].MemberIDs(),
		"ordered by primary coordinate regardless of input order")

	anchor, ok := groups[0].Anchor()
	require.True(t, ok)
	assert.Equal(t, "left", anchor.ID)
}

// TestBuildGraph_Tolerances tests the collinearity and connection
// tolerance boundaries.
func TestBuildGraph_Tolerances(t *testing.T) {
	s := config.Default() // collinear 500, connect 1000
	b := NewBuilder(s)

	t.Run("small offsets still chain", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 4800, 300, 9000, 300), // 300 off-axis, 424 gap
		}
		groups := SplitIntoGroups(b.BuildGraph(spans, nil))
		assert.Len(t, groups, 1)
	})

	t.Run("off-axis beyond tolerance splits", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 4500, 600, 9000, 600),
		}
		groups := SplitIntoGroups(b.BuildGraph(spans, nil))
		assert.Len(t, groups, 2)
	})

	t.Run("gap beyond tolerance splits", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 5600, 0, 9000, 0),
		}
		groups := SplitIntoGroups(b.BuildGraph(spans, nil))
		assert.Len(t, groups, 2)
	})

	t.Run("perpendicular spans never chain", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 4500, 0, 4500, 4000),
		}
		groups := SplitIntoGroups(b.BuildGraph(spans, nil))
		assert.Len(t, groups, 2)
	})
}

// TestBuildGraph_PriorLinks tests that persisted identities override
// geometric re-derivation in both directions.
func TestBuildGraph_PriorLinks(t *testing.T) {
	b := NewBuilder(config.Default())

	t.Run("prior link keeps distant spans together", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 20000, 0, 24500, 0), // far out of connect tolerance
		}
		prior := map[string]string{"a": "G-1", "b": "G-1"}
		groups := SplitIntoGroups(b.BuildGraph(spans, prior))
		require.Len(t, groups, 1)
		assert.Equal(t, []string{"a", "b"}, groups[0].MemberIDs())
	})

	t.Run("prior-linked span never merges geometrically", func(t *testing.T) {
		spans := []model.Span{
			span("a", 0, 0, 4500, 0),
			span("b", 4500, 0, 9000, 0), // touching, but claimed elsewhere
		}
		prior := map[string]string{"b": "G-other"}
		groups := SplitIntoGroups(b.BuildGraph(spans, prior))
		assert.Len(t, groups, 2)
	})
}

// TestBuildGraph_NodeAnnotations tests parent pointers and group indices.
func TestBuildGraph_NodeAnnotations(t *testing.T) {
	b := NewBuilder(config.Default())
	nodes := b.BuildGraph([]model.Span{
		span("a", 0, 0, 4500, 0),
		span("b", 4500, 0, 9000, 0),
		span("solo", 0, 9000, 4500, 9000),
	}, nil)

	byID := make(map[string]SpanNode)
	for _, nd := range nodes {
		byID[nd.Span.ID] = nd
	}

	assert.Empty(t, byID["a"].ParentID, "anchor has no parent")
	assert.Equal(t, 0, byID["a"].GroupIndex)
	assert.Equal(t, "a", byID["b"].ParentID)
	assert.Equal(t, 1, byID["b"].GroupIndex)
	assert.Empty(t, byID["solo"].ParentID, "single span anchors its own group")
}

// TestSplitIntoGroups_Deterministic tests group ordering by anchor ID.
func TestSplitIntoGroups_Deterministic(t *testing.T) {
	b := NewBuilder(config.Default())
	spans := []model.Span{
		span("z", 0, 5000, 4500, 5000),
		span("a", 0, 0, 4500, 0),
	}
	groups := SplitIntoGroups(b.BuildGraph(spans, nil))
	assert.Equal(t, [][]string{{"a"}, {"z"}}, groupIDs(groups))
}

// TestValidateLink tests cycle refusal on the parent graph.
func TestValidateLink(t *testing.T) {
	parentOf := map[string]string{"b": "a", "c": "b"}

	assert.NoError(t, ValidateLink(parentOf, "d", "c"), "extending a chain is fine")

	err := ValidateLink(parentOf, "a", "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkCycle, "a -> c -> b -> a loops")

	assert.ErrorIs(t, ValidateLink(parentOf, "a", "a"), ErrLinkCycle)
	assert.Error(t, ValidateLink(parentOf, "", "a"))

	// A pre-existing loop in the chain fails closed.
	looped := map[string]string{"x": "y", "y": "x"}
	assert.ErrorIs(t, ValidateLink(looped, "child", "x"), ErrLinkCycle)
}
