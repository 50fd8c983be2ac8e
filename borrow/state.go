package borrow

import "github.com/viant/moveref/ir"

// State is a borrow graph plus the two finite maps that say which locals
// and which storage resources currently denote a live graph node. The
// driver owns the State exclusively during transformation; nodes
// are owned by the Graph, and parent/child links are weak label references,
// so no part of State ever needs a destructor beyond ReleaseRef's explicit
// bookkeeping.
type State struct {
	Graph         *Graph
	TempToLabel   map[ir.TempIndex]Label
	GlobalToLabel map[ir.ResourceID]Label
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Graph:         NewGraph(),
		TempToLabel:   map[ir.TempIndex]Label{},
		GlobalToLabel: map[ir.ResourceID]Label{},
	}
}

// Clone deep-copies the state. The driver clones once per predecessor at
// a control-flow merge.
func (s *State) Clone() *State {
	out := &State{
		Graph:         s.Graph.clone(),
		TempToLabel:   make(map[ir.TempIndex]Label, len(s.TempToLabel)),
		GlobalToLabel: make(map[ir.ResourceID]Label, len(s.GlobalToLabel)),
	}
	for t, l := range s.TempToLabel {
		out.TempToLabel[t] = l
	}
	for r, l := range s.GlobalToLabel {
		out.GlobalToLabel[r] = l
	}
	return out
}

// LabelForTemp looks up temp's current label, if any.
func (s *State) LabelForTemp(temp ir.TempIndex) (Label, bool) {
	l, ok := s.TempToLabel[temp]
	return l, ok
}

// LabelForGlobal looks up resource's current root label, if any.
func (s *State) LabelForGlobal(res ir.ResourceID) (Label, bool) {
	l, ok := s.GlobalToLabel[res]
	return l, ok
}

// LabelForTempWithChildren looks up temp's label but only returns it when
// the node is non-leaf — used to decide "is this temp effectively
// borrowed?".
func (s *State) LabelForTempWithChildren(temp ir.TempIndex) (Label, bool) {
	l, ok := s.TempToLabel[temp]
	if !ok || s.Graph.IsLeaf(l) {
		return 0, false
	}
	return l, true
}

// Leaves groups temp indices by the label they currently point to.
func (s *State) Leaves() map[Label][]ir.TempIndex {
	out := map[Label][]ir.TempIndex{}
	for t, l := range s.TempToLabel {
		out[l] = append(out[l], t)
	}
	return out
}

// MakeTemp returns the existing label for temp if any; otherwise it creates
// a new node labeled (codeOffset, qualifier) with location Local(temp) if
// root, else Derived, registers it, and returns the new label.
func (s *State) MakeTemp(temp ir.TempIndex, codeOffset ir.CodeOffset, qualifier uint8, root bool) Label {
	if l, ok := s.TempToLabel[temp]; ok {
		return l
	}
	label := CodePositionLabel(codeOffset, qualifier)
	loc := DerivedLocation()
	if root {
		loc = LocalLocation(temp)
	}
	if _, exists := s.Graph.Nodes[label]; !exists {
		_ = s.Graph.NewNode(label, loc)
	} else {
		s.Graph.Node(label).Locations[loc] = struct{}{}
	}
	s.TempToLabel[temp] = label
	return label
}

// MakeGlobal is MakeTemp's analogue for storage resources: it returns the
// existing root label for res if any, otherwise allocates a Global(res)
// node.
func (s *State) MakeGlobal(res ir.ResourceID, codeOffset ir.CodeOffset, qualifier uint8) Label {
	if l, ok := s.GlobalToLabel[res]; ok {
		return l
	}
	label := CodePositionLabel(codeOffset, qualifier)
	loc := GlobalLocation(res)
	if _, exists := s.Graph.Nodes[label]; !exists {
		_ = s.Graph.NewNode(label, loc)
	} else {
		s.Graph.Node(label).Locations[loc] = struct{}{}
	}
	s.GlobalToLabel[res] = label
	return label
}

// ReplaceRef is used when a reference-typed temp is overwritten: it
// releases the current binding, discards any stale entry, allocates a
// fresh Derived node with a code-position label, registers it, and returns
// the new label.
func (s *State) ReplaceRef(temp ir.TempIndex, codeOffset ir.CodeOffset, qualifier uint8) Label {
	s.ReleaseRef(temp)
	delete(s.TempToLabel, temp)
	label := CodePositionLabel(codeOffset, qualifier)
	if _, exists := s.Graph.Nodes[label]; !exists {
		_ = s.Graph.NewNode(label, DerivedLocation())
	} else {
		s.Graph.Node(label).Locations[DerivedLocation()] = struct{}{}
	}
	s.TempToLabel[temp] = label
	return label
}

// ReleaseRef removes temp from the temp map and, if its former label
// becomes a leaf with no other in-use label pointing to it, recursively
// drops it and any parents that become droppable leaves in turn (the
// leaf drop rule). Driven with an explicit work stack to avoid recursion
// depth limits on deep graphs.
func (s *State) ReleaseRef(temp ir.TempIndex) {
	label, ok := s.TempToLabel[temp]
	if !ok {
		return
	}
	delete(s.TempToLabel, temp)
	s.dropIfLeaf(label)
}

func (s *State) inUseLabels() map[Label]struct{} {
	inUse := map[Label]struct{}{}
	for _, l := range s.TempToLabel {
		inUse[l] = struct{}{}
	}
	return inUse
}

func (s *State) dropIfLeaf(start Label) {
	stack := []Label{start}
	for len(stack) > 0 {
		label := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := s.Graph.Nodes[label]
		if !ok || !n.IsLeaf() {
			continue
		}
		if _, used := s.inUseLabels()[label]; used {
			continue
		}
		for p := range n.Parents {
			parent := s.Graph.Node(p)
			parent.Children = removeEdgesTo(parent.Children, label)
			stack = append(stack, p)
		}
		delete(s.Graph.Nodes, label)
		for loc := range n.Locations {
			s.purgeLocation(loc, label)
		}
	}
}

func (s *State) purgeLocation(loc MemLocation, droppedLabel Label) {
	switch loc.Kind {
	case Local:
		if cur, ok := s.TempToLabel[loc.Temp]; ok && cur == droppedLabel {
			delete(s.TempToLabel, loc.Temp)
		}
	case Global:
		if cur, ok := s.GlobalToLabel[loc.Resource]; ok && cur == droppedLabel {
			delete(s.GlobalToLabel, loc.Resource)
		}
	}
}

func removeEdgesTo(edges []Edge, target Label) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if e.Target != target {
			out = append(out, e)
		}
	}
	return out
}

// MoveRef relabels: dest takes src's label, and src is removed from the
// temp map.
func (s *State) MoveRef(dest, src ir.TempIndex) {
	label, ok := s.TempToLabel[src]
	if !ok {
		return
	}
	delete(s.TempToLabel, src)
	s.TempToLabel[dest] = label
}

// CopyRef points dest at src's label, so the two temps share one node.
func (s *State) CopyRef(dest, src ir.TempIndex) {
	label, ok := s.TempToLabel[src]
	if !ok {
		return
	}
	s.TempToLabel[dest] = label
}
