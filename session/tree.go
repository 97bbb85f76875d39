package session

// TreeNode holds one message id's structural position: its children, in
// arrival order, whether it is a root because its parent was absent
// (orphan=false) or present-but-unresolved (orphan=true), and whether the
// message itself was marked as a sidechain (content.Message.IsSidechain).
type TreeNode struct {
	ID          string
	Children    []string
	Orphan      bool
	IsSidechain bool
}

// Tree is the parent/child graph over a session's messages. Zero or more
// roots exist: true roots (no parent declared), orphans (parent id
// declared but not present in the session), and nodes promoted to roots by
// cycle-breaking.
type Tree struct {
	Nodes map[string]*TreeNode
	Roots []string
}

// treeWarning is a structural anomaly surfaced during construction.
type treeWarning struct {
	Reason string
	ID     string
}

// buildTree constructs the conversation tree from message ids, parent
// links, and sidechain flags, in arrival order. Records sharing an id with
// an earlier record are ignored here (the parser keeps them in Messages
// but the tree keeps only the first occurrence). Returns the tree and any
// structural warnings.
func buildTree(ids []string, parentIDs map[string]*string, sidechain map[string]bool) (*Tree, []treeWarning) {
	var warnings []treeWarning

	// first occurrence only
	seen := make(map[string]bool, len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			warnings = append(warnings, treeWarning{ID: id, Reason: "duplicate id, kept first occurrence in tree"})
			continue
		}
		seen[id] = true
		order = append(order, id)
	}

	index := make(map[string]bool, len(order))
	for _, id := range order {
		index[id] = true
	}

	parentOf := make(map[string]string, len(order))
	orphan := make(map[string]bool, len(order))
	for _, id := range order {
		p := parentIDs[id]
		if p == nil || *p == "" {
			continue
		}
		if !index[*p] {
			orphan[id] = true
			warnings = append(warnings, treeWarning{ID: id, Reason: "parent id not found, treated as orphan root"})
			continue
		}
		parentOf[id] = *p
	}

	// Cycle detection: parentOf defines a functional graph (out-degree <=
	// 1 per node). Walk each node's parent chain, coloring nodes gray as
	// we go; hitting an already-gray node means the chain loops back on
	// itself, so we cut that node's outgoing parent edge and promote it
	// to a root.
	const white, gray, black = 0, 1, 2
	color := make(map[string]int, len(order))
	for _, start := range order {
		if color[start] != white {
			continue
		}
		var path []string
		cur := start
		for cur != "" {
			switch color[cur] {
			case gray:
				delete(parentOf, cur)
				warnings = append(warnings, treeWarning{ID: cur, Reason: "cycle detected, promoted to root"})
				color[cur] = black
				cur = ""
				continue
			case black:
				cur = ""
				continue
			}
			color[cur] = gray
			path = append(path, cur)
			next, ok := parentOf[cur]
			if !ok {
				cur = ""
				continue
			}
			cur = next
		}
		for _, p := range path {
			if color[p] == gray {
				color[p] = black
			}
		}
	}

	tree := &Tree{Nodes: make(map[string]*TreeNode, len(order))}
	for _, id := range order {
		tree.Nodes[id] = &TreeNode{ID: id, Orphan: orphan[id], IsSidechain: sidechain[id]}
	}
	for _, id := range order {
		parent, ok := parentOf[id]
		if !ok {
			tree.Roots = append(tree.Roots, id)
			continue
		}
		tree.Nodes[parent].Children = append(tree.Nodes[parent].Children, id)
	}

	return tree, warnings
}

// PreOrder enumerates every id reachable from root in pre-order.
func (t *Tree) PreOrder(root string) []string {
	node, ok := t.Nodes[root]
	if !ok {
		return nil
	}
	out := []string{node.ID}
	for _, c := range node.Children {
		out = append(out, t.PreOrder(c)...)
	}
	return out
}

// Path returns the id chain from root to target, inclusive, or nil if
// target is not reachable from root.
func (t *Tree) Path(root, target string) []string {
	node, ok := t.Nodes[root]
	if !ok {
		return nil
	}
	if node.ID == target {
		return []string{node.ID}
	}
	for _, c := range node.Children {
		if sub := t.Path(c, target); sub != nil {
			return append([]string{node.ID}, sub...)
		}
	}
	return nil
}

// Leaves returns every node with no children, in node-map iteration order
// is not guaranteed; callers that need a stable order should sort by id or
// reuse PreOrder from a root.
func (t *Tree) Leaves() []string {
	var out []string
	for id, node := range t.Nodes {
		if len(node.Children) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Depth returns the distance from the nearest root to id (0 for a root),
// or -1 if id is unreachable from any declared root.
func (t *Tree) Depth(id string) int {
	for _, root := range t.Roots {
		if path := t.Path(root, id); path != nil {
			return len(path) - 1
		}
	}
	return -1
}

// MainChain returns the non-sidechain path from a root to the deepest
// reachable non-sidechain leaf: the longest root-to-leaf walk that never
// steps through a node with IsSidechain set. A sidechain root, and any
// subtree hanging off a sidechain node, is excluded entirely rather than
// truncated at the boundary, since a sidechain marks a side conversation,
// not a single skipped message. Returns nil if every root is a sidechain.
func (t *Tree) MainChain() []string {
	var best []string
	for _, root := range t.Roots {
		if chain := t.mainChainFrom(root); len(chain) > len(best) {
			best = chain
		}
	}
	return best
}

// mainChainFrom returns the longest non-sidechain path starting at id, or
// nil if id itself is a sidechain node.
func (t *Tree) mainChainFrom(id string) []string {
	node := t.Nodes[id]
	if node == nil || node.IsSidechain {
		return nil
	}
	best := []string{node.ID}
	for _, c := range node.Children {
		if sub := t.mainChainFrom(c); len(sub) > 0 {
			if candidate := append([]string{node.ID}, sub...); len(candidate) > len(best) {
				best = candidate
			}
		}
	}
	return best
}
