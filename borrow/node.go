package borrow

// Node is a lifetime node: a nonempty set of memory locations (it only
// grows, via join), a set of outgoing edges, and a set of backlinks to
// parent labels. Parent links are pure label references, never owning
// pointers, since the graph can contain cycles.
type Node struct {
	Locations map[MemLocation]struct{}
	Children  []Edge
	Parents   map[Label]struct{}
}

func newNode(loc MemLocation) *Node {
	return &Node{
		Locations: map[MemLocation]struct{}{loc: {}},
		Parents:   map[Label]struct{}{},
	}
}

// HasLocation reports whether loc is one of the node's roots.
func (n *Node) HasLocation(loc MemLocation) bool {
	_, ok := n.Locations[loc]
	return ok
}

// IsLeaf reports whether the node has no outgoing edges.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

func (n *Node) clone() *Node {
	locs := make(map[MemLocation]struct{}, len(n.Locations))
	for l := range n.Locations {
		locs[l] = struct{}{}
	}
	parents := make(map[Label]struct{}, len(n.Parents))
	for p := range n.Parents {
		parents[p] = struct{}{}
	}
	return &Node{
		Locations: locs,
		Children:  append([]Edge(nil), n.Children...),
		Parents:   parents,
	}
}
