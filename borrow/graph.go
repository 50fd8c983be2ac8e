package borrow

import (
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// Graph is a mapping from labels to lifetime nodes. Every
// operation that resolves an edge target or temp/global binding must find
// it in this map — that invariant is checked by CheckInvariants and by
// every mutator in this file.
type Graph struct {
	Nodes map[Label]*Node
}

// NewGraph creates an empty borrow graph.
func NewGraph() *Graph {
	return &Graph{Nodes: map[Label]*Node{}}
}

// NewNode inserts a node with a single location and no edges. It fails if
// label already exists, since every label must be created exactly once.
func (g *Graph) NewNode(label Label, loc MemLocation) error {
	if _, exists := g.Nodes[label]; exists {
		return fmt.Errorf("borrow: label %d already exists", label)
	}
	g.Nodes[label] = newNode(loc)
	return nil
}

// Node returns the node for label, panicking if absent: callers must have
// just created or looked up the label first.
func (g *Graph) Node(label Label) *Node {
	n, ok := g.Nodes[label]
	if !ok {
		panic(fmt.Sprintf("borrow: no node for label %d", label))
	}
	return n
}

// NodeMut is Node, documenting the caller's intent to mutate. Go makes no
// distinction between the two, unlike a borrow-checked host language.
func (g *Graph) NodeMut(label Label) *Node { return g.Node(label) }

// AddEdge inserts edge into parent's children and registers parent as one
// of edge.Target's parents.
func (g *Graph) AddEdge(parent Label, edge Edge) {
	g.Node(parent).Children = append(g.Node(parent).Children, edge)
	g.Node(edge.Target).Parents[parent] = struct{}{}
}

// Children returns label's outgoing edges. No ordering is guaranteed by the
// domain; callers that need determinism (diagnostics, tests) sort it
// themselves.
func (g *Graph) Children(label Label) []Edge {
	n, ok := g.Nodes[label]
	if !ok {
		return nil
	}
	return n.Children
}

// GroupedChildren flattens the children of every label in labels and groups
// them by edge kind, used by the safety walk to build hyper edges out of a
// hyper node.
func (g *Graph) GroupedChildren(labels []Label) map[EdgeKind][]Edge {
	grouped := map[EdgeKind][]Edge{}
	for _, l := range labels {
		for _, e := range g.Children(l) {
			grouped[e.Kind] = append(grouped[e.Kind], e)
		}
	}
	return grouped
}

// IsLeaf reports whether label has no outgoing edges.
func (g *Graph) IsLeaf(label Label) bool {
	n, ok := g.Nodes[label]
	return ok && n.IsLeaf()
}

// IsAncestor reports whether d is reachable from a through children,
// reflexively (a is its own ancestor) and transitively. The visited set is
// an intsets.Sparse over each label's int64 value, the natural
// representation for a set of labels explored by an explicit work stack.
func (g *Graph) IsAncestor(a, d Label) bool {
	if a == d {
		return true
	}
	var visited intsets.Sparse
	visited.Insert(int(a))
	stack := []Label{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Children(cur) {
			if e.Target == d {
				return true
			}
			if visited.Insert(int(e.Target)) {
				stack = append(stack, e.Target)
			}
		}
	}
	return false
}

// Roots returns the set of ancestors of label that have no parents
// (reflexive: label itself if it has no parents). Driven with an explicit
// work stack over an intsets.Sparse visited set to avoid recursion depth
// limits on deep graphs.
func (g *Graph) Roots(label Label) map[Label]struct{} {
	roots := map[Label]struct{}{}
	var visited intsets.Sparse
	stack := []Label{label}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.Insert(int(cur)) {
			continue
		}
		n, ok := g.Nodes[cur]
		if !ok {
			continue
		}
		if len(n.Parents) == 0 {
			roots[cur] = struct{}{}
			continue
		}
		for p := range n.Parents {
			stack = append(stack, p)
		}
	}
	return roots
}

// TransitiveChildren returns the reflexive closure of label's descendants.
func (g *Graph) TransitiveChildren(label Label) map[Label]struct{} {
	out := map[Label]struct{}{label: {}}
	var seen intsets.Sparse
	seen.Insert(int(label))
	stack := []Label{label}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Children(cur) {
			if seen.Insert(int(e.Target)) {
				out[e.Target] = struct{}{}
				stack = append(stack, e.Target)
			}
		}
	}
	return out
}

// HasMutEdges reports whether label has any outgoing edge with Mut.
func (g *Graph) HasMutEdges(label Label) bool {
	for _, e := range g.Children(label) {
		if e.Kind.IsMut() {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the structural invariants that must hold after
// every transformation and every join: every edge endpoint resolves, and
// parent/child backlinks agree in both directions.
func (g *Graph) CheckInvariants() error {
	for label, n := range g.Nodes {
		for _, e := range n.Children {
			child, ok := g.Nodes[e.Target]
			if !ok {
				return fmt.Errorf("borrow: edge from %d targets missing label %d", label, e.Target)
			}
			if _, ok := child.Parents[label]; !ok {
				return fmt.Errorf("borrow: %d lists %d as child but not vice versa", label, e.Target)
			}
		}
		for p := range n.Parents {
			parent, ok := g.Nodes[p]
			if !ok {
				return fmt.Errorf("borrow: label %d has missing parent %d", label, p)
			}
			found := false
			for _, e := range parent.Children {
				if e.Target == label {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("borrow: %d lists %d as parent but not vice versa", label, p)
			}
		}
	}
	return nil
}

func (g *Graph) clone() *Graph {
	out := &Graph{Nodes: make(map[Label]*Node, len(g.Nodes))}
	for l, n := range g.Nodes {
		out.Nodes[l] = n.clone()
	}
	return out
}
