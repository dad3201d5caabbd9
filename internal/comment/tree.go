package comment

// Node is a comment with its replies resolved, for display grouping.
// The flat storage form stays authoritative; this view is rebuilt on read.
type Node struct {
	*Comment
	Children []*Node `json:"children,omitempty"`
}

// childrenIndex builds a parent-id → child-ids adjacency map in one pass
// over the flat collection, so descendant walks don't rescan it per level.
func childrenIndex(comments []*Comment) map[string][]string {
	idx := make(map[string][]string, len(comments))
	for _, c := range comments {
		if c.ParentID != nil {
			idx[*c.ParentID] = append(idx[*c.ParentID], c.ID)
		}
	}
	return idx
}

// collectSubtree returns rootID plus every transitive descendant, using an
// explicit worklist so stack usage stays flat regardless of reply depth.
// The walk is bounded by the collection size even if the stored data were
// ever corrupted into a cycle.
func collectSubtree(comments []*Comment, rootID string) []string {
	idx := childrenIndex(comments)

	collected := make([]string, 0, 1)
	seen := make(map[string]bool, len(comments))
	work := []string{rootID}

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		collected = append(collected, id)
		work = append(work, idx[id]...)
	}

	return collected
}

// BuildForest turns the flat collection into a nested view. Roots and
// sibling groups keep the input order. A comment whose parent is missing
// from the collection is treated as a root rather than dropped.
func BuildForest(comments []*Comment) []*Node {
	nodes := make(map[string]*Node, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &Node{Comment: c}
	}

	var roots []*Node
	for _, c := range comments {
		n := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	return roots
}
