// Package topology turns a bag of span entities into ordered beam
// groups.
//
// Two spans join the same group when they are collinear within the
// configured tolerance and their endpoints meet within the connection
// tolerance. Adjacency is transitively closed into components; each
// component is ordered by primary coordinate and the first span becomes
// the anchor ("star topology": the rest are its children). Persisted
// prior links take precedence over geometric re-derivation so healing
// never silently re-groups spans a user arranged deliberately.
package topology

import (
	"math"
	"sort"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// SpanNode is a span annotated with its place in the group graph.
type SpanNode struct {
	Span model.Span
	// ParentID is the anchor span's ID; empty for the anchor itself.
	ParentID string
	// GroupIndex orders the node within its group, anchor first.
	GroupIndex int

	component int
}

// Builder derives beam groups from span geometry.
type Builder struct {
	settings config.Settings
}

// NewBuilder creates a Builder with the given tolerances.
func NewBuilder(s config.Settings) *Builder {
	return &Builder{settings: s}
}

// BuildGraph computes adjacency over the candidate spans and returns
// one node per span with parent and ordering assigned.
//
// priorGroups maps span ID to a persisted group identifier; spans
// sharing a prior identifier are kept together regardless of geometry,
// and a prior-linked span is never merged into a geometric component.
func (b *Builder) BuildGraph(spans []model.Span, priorGroups map[string]string) []SpanNode {
	n := len(spans)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, c int) {
		ra, rc := find(a), find(c)
		if ra != rc {
			parent[rc] = ra
		}
	}

	// Prior links first: same persisted identifier means same group.
	byPrior := make(map[string][]int)
	for i, sp := range spans {
		if gid := priorGroups[sp.ID]; gid != "" {
			byPrior[gid] = append(byPrior[gid], i)
		}
	}
	for _, idxs := range byPrior {
		for _, i := range idxs[1:] {
			union(idxs[0], i)
		}
	}

	// Geometric adjacency only between spans with no prior link.
	for i := 0; i < n; i++ {
		if priorGroups[spans[i].ID] != "" {
			continue
		}
		for j := i + 1; j < n; j++ {
			if priorGroups[spans[j].ID] != "" {
				continue
			}
			if b.adjacent(spans[i], spans[j]) {
				union(i, j)
			}
		}
	}

	nodes := make([]SpanNode, n)
	for i, sp := range spans {
		nodes[i] = SpanNode{Span: sp, component: find(i)}
	}
	assignOrder(nodes)
	return nodes
}

// adjacent reports whether two spans chain: collinear on the same
// primary axis within the collinearity tolerance, with endpoints within
// the connection tolerance of each other.
func (b *Builder) adjacent(a, c model.Span) bool {
	if a.IsXPrimary() != c.IsXPrimary() {
		return false
	}
	if math.Abs(a.OffAxisCoord()-c.OffAxisCoord()) > b.settings.CollinearTolerance {
		return false
	}
	return endpointGap(a, c) <= b.settings.ConnectTolerance
}

// endpointGap returns the smallest distance between any endpoint pair
// of the two spans.
func endpointGap(a, c model.Span) float64 {
	best := math.Inf(1)
	for _, p := range []model.Point2D{a.Start, a.End} {
		for _, q := range []model.Point2D{c.Start, c.End} {
			d := math.Hypot(p.X-q.X, p.Y-q.Y)
			if d < best {
				best = d
			}
		}
	}
	return best
}

// assignOrder sorts each component by primary coordinate and fixes
// anchor-first parent pointers.
func assignOrder(nodes []SpanNode) {
	byComp := make(map[int][]int)
	for i, nd := range nodes {
		byComp[nd.component] = append(byComp[nd.component], i)
	}
	for _, idxs := range byComp {
		sort.SliceStable(idxs, func(a, c int) bool {
			pa := nodes[idxs[a]].Span.PrimaryCoord()
			pc := nodes[idxs[c]].Span.PrimaryCoord()
			if pa != pc {
				return pa < pc
			}
			return nodes[idxs[a]].Span.ID < nodes[idxs[c]].Span.ID
		})
		anchorID := nodes[idxs[0]].Span.ID
		for rank, i := range idxs {
			nodes[i].GroupIndex = rank
			if rank == 0 {
				nodes[i].ParentID = ""
			} else {
				nodes[i].ParentID = anchorID
			}
		}
	}
}

// SplitIntoGroups partitions the annotated nodes into beam groups,
// each a maximal connected, collinear, left-to-right ordered chain.
// A single unlinked span yields a valid one-member group. Group order
// is deterministic (by anchor span ID).
func SplitIntoGroups(nodes []SpanNode) []model.BeamGroup {
	byComp := make(map[int][]SpanNode)
	for _, nd := range nodes {
		byComp[nd.component] = append(byComp[nd.component], nd)
	}

	groups := make([]model.BeamGroup, 0, len(byComp))
	for _, members := range byComp {
		sort.SliceStable(members, func(a, c int) bool {
			return members[a].GroupIndex < members[c].GroupIndex
		})
		g := model.BeamGroup{Type: model.GroupBeam}
		for _, nd := range members {
			g.Spans = append(g.Spans, nd.Span)
		}
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(a, c int) bool {
		return groups[a].Spans[0].ID < groups[c].Spans[0].ID
	})
	return groups
}
