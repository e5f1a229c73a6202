// Package anchor models the parent/anchor references of a layout as an
// explicit directed graph and provides the traversals the resolution engine
// needs: cycle detection, dangling-reference discovery, and a topological
// resolution order.
//
// Nodes are object identifiers; each node carries at most one outgoing edge
// pointing at its parent. The graph stores adjacency in index-free maps
// rather than embedded object references so cycle detection is safe and no
// ownership cycles can form.
//
// The zero value is not usable - use New to create a Graph. A Graph is not
// safe for concurrent use; the resolution engine builds one per call.
package anchor

import "errors"

var (
	// ErrInvalidObjectID is returned by [Graph.Add] when the object ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidObjectID = errors.New("object ID must not be empty")

	// ErrDuplicateObjectID is returned by [Graph.Add] when a node with the
	// same ID already exists in the graph. Object IDs must be unique.
	ErrDuplicateObjectID = errors.New("duplicate object ID")
)

// Node is one object in the reference graph.
type Node struct {
	ID     string // unique object identifier
	Parent string // parent object ID, empty for roots
}

// Graph is the parent-reference graph of one layout. Edges point from
// child to parent; children lists are derived for root-first traversal.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string // parentID -> child IDs, insertion order
	order    []string            // insertion order of node IDs
}

// New creates an empty reference graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
	}
}

// Add inserts an object with its declared parent reference.
// Returns ErrInvalidObjectID for an empty ID or ErrDuplicateObjectID if the
// ID is already present. The parent does not need to exist; references to
// missing parents are reported by Dangling.
func (g *Graph) Add(id, parent string) error {
	if id == "" {
		return ErrInvalidObjectID
	}
	if _, exists := g.nodes[id]; exists {
		return ErrDuplicateObjectID
	}
	g.nodes[id] = &Node{ID: id, Parent: parent}
	g.order = append(g.order, id)
	if parent != "" {
		g.children[parent] = append(g.children[parent], id)
	}
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of objects in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of parent references, dangling ones included.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.Parent != "" {
			count++
		}
	}
	return count
}

// Parent returns the parent ID of the node and whether that parent exists
// in the graph. A declared but missing parent yields ("", false) so callers
// treat the node as a root.
func (g *Graph) Parent(id string) (string, bool) {
	n, ok := g.nodes[id]
	if !ok || n.Parent == "" {
		return "", false
	}
	if _, exists := g.nodes[n.Parent]; !exists {
		return "", false
	}
	return n.Parent, true
}

// Children returns the IDs of objects anchored to the given node, in
// insertion order. The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.children[id] }

// Objects returns all node IDs in insertion order.
func (g *Graph) Objects() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Roots returns the IDs of objects with no effective parent: either no
// parent was declared, or the declared parent does not exist in the graph.
// Order follows insertion order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if _, ok := g.Parent(id); !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

// Dangling returns the IDs of objects whose declared parent does not exist
// in the graph, in insertion order.
func (g *Graph) Dangling() []string {
	var out []string
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Parent == "" {
			continue
		}
		if _, exists := g.nodes[n.Parent]; !exists {
			out = append(out, id)
		}
	}
	return out
}

// TopoOrder returns node IDs in resolution order: every parent before its
// children, roots first. Objects reported by Unresolvable are excluded,
// since their transforms cannot be computed.
//
// The traversal uses an explicit worklist rather than recursion so deep
// anchor chains cannot exhaust the stack.
func (g *Graph) TopoOrder() []string {
	blocked := g.Unresolvable()

	order := make([]string, 0, len(g.order))
	queue := make([]string, 0, len(g.order))
	for _, id := range g.Roots() {
		if !blocked[id] {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, child := range g.children[id] {
			if _, exists := g.nodes[child]; !exists {
				continue
			}
			if !blocked[child] {
				queue = append(queue, child)
			}
		}
	}
	return order
}
