package topology

import "fmt"

// ErrLinkCycle is wrapped by ValidateLink when accepting a link would
// make a span its own ancestor.
var ErrLinkCycle = fmt.Errorf("link would create a cycle")

// ValidateLink checks that linking child under parent keeps the parent
// graph acyclic. parentOf maps each span ID to its current parent ID
// (empty or absent for roots).
//
// Detection walks the parent chain from the proposed parent with a
// visited set and fails closed: on a cycle, or on a pre-existing loop
// in the chain, the link is refused rather than risking an unbounded
// walk later.
func ValidateLink(parentOf map[string]string, child, parent string) error {
	if child == "" || parent == "" {
		return fmt.Errorf("link requires both span IDs")
	}
	if child == parent {
		return fmt.Errorf("span %s: %w (self-link)", child, ErrLinkCycle)
	}

	visited := map[string]bool{child: true}
	cur := parent
	for cur != "" {
		if visited[cur] {
			return fmt.Errorf("span %s -> %s: %w", child, parent, ErrLinkCycle)
		}
		visited[cur] = true
		cur = parentOf[cur]
	}
	return nil
}
