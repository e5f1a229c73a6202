package anchor

// Traversal colors for cycle detection. A back-edge into a gray node marks
// every node on the walk from that node onward as part of a cycle.
const (
	white = iota
	gray
	black
)

// Cycles returns the IDs of all objects that sit on a parent cycle.
// Each node has at most one outgoing edge, so every cycle is a simple loop
// at the end of a parent chain; the walk is iterative, not recursive.
func (g *Graph) Cycles() map[string]bool {
	color := make(map[string]int, len(g.nodes))
	cyclic := make(map[string]bool)

	for _, start := range g.order {
		if color[start] != white {
			continue
		}

		// Walk the parent chain, recording the path. closed is the node
		// the walk ran into if it reached an already-colored node via a
		// parent edge; empty when the chain ended at a root.
		var path []string
		closed := ""
		cur := start
		for {
			if color[cur] != white {
				closed = cur
				break
			}
			color[cur] = gray
			path = append(path, cur)
			next, ok := g.Parent(cur)
			if !ok {
				break
			}
			cur = next
		}

		// A gray terminus means the chain closed on itself: everything
		// from the first occurrence of that node onward is on the cycle.
		// A black terminus just merges into an already-finished chain.
		if closed != "" && color[closed] == gray {
			inCycle := false
			for _, id := range path {
				if id == closed {
					inCycle = true
				}
				if inCycle {
					cyclic[id] = true
				}
			}
		}

		for _, id := range path {
			color[id] = black
		}
	}
	return cyclic
}

// Unresolvable returns the IDs of all objects whose transform cannot be
// computed: cycle members plus every object whose ancestor chain passes
// through a cycle.
func (g *Graph) Unresolvable() map[string]bool {
	cyclic := g.Cycles()
	if len(cyclic) == 0 {
		return cyclic
	}

	blocked := make(map[string]bool, len(cyclic))
	for id := range cyclic {
		blocked[id] = true
	}

	// Every descendant of a blocked node is blocked. Worklist over the
	// derived children lists; cycle members reach each other first, then
	// the chains hanging off them.
	queue := make([]string, 0, len(blocked))
	for id := range blocked {
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range g.children[id] {
			if _, exists := g.nodes[child]; !exists {
				continue
			}
			if !blocked[child] {
				blocked[child] = true
				queue = append(queue, child)
			}
		}
	}
	return blocked
}
