package borrow

import "github.com/viant/moveref/ir"

// JoinResult reports whether Join changed its left-hand argument. A forward
// worklist iterates to a fixpoint by re-queuing successors only when Join
// reports Changed.
type JoinResult uint8

const (
	Unchanged JoinResult = iota
	Changed
)

// Join merges other into s in place and reports whether s changed:
//
//  1. unify every label that denotes the same temp or the same global
//     resource in both states, renaming one side's label to the other's
//     wherever they disagree;
//  2. union the two graphs' nodes, edges and locations under the unified
//     labeling — the join never removes a node, edge or location, only
//     adds;
//  3. apply the resulting renaming transitively so edge targets and
//     parent/child backlinks stay internally consistent.
//
// Join runs at every control-flow merge point and must be idempotent
// (join(s, s) == Unchanged) and commutative up to renaming.
func (s *State) Join(other *State) JoinResult {
	rename := map[Label]Label{}
	unifyMaps(s.TempToLabel, other.TempToLabel, rename)
	unifyMapsGlobal(s.GlobalToLabel, other.GlobalToLabel, rename)

	renamed := other.Graph.renamed(rename)

	changed := s.Graph.absorb(renamed)
	if unifyTempLabels(s.TempToLabel, other.TempToLabel, rename) {
		changed = true
	}
	if unifyGlobalLabels(s.GlobalToLabel, other.GlobalToLabel, rename) {
		changed = true
	}
	if changed {
		return Changed
	}
	return Unchanged
}

// unifyMaps records, for every temp present in both maps, that other's
// label should be renamed to s's label (s is arbitrarily preferred as the
// surviving name so joins are deterministic given a fixed left-hand side).
func unifyMaps(left, right map[ir.TempIndex]Label, rename map[Label]Label) {
	for temp, rLabel := range right {
		if lLabel, ok := left[temp]; ok && lLabel != rLabel {
			resolveRename(rename, rLabel, lLabel)
		}
	}
}

func unifyMapsGlobal(left, right map[ir.ResourceID]Label, rename map[Label]Label) {
	for res, rLabel := range right {
		if lLabel, ok := left[res]; ok && lLabel != rLabel {
			resolveRename(rename, rLabel, lLabel)
		}
	}
}

// resolveRename records from -> to, first resolving to through any existing
// chain. Entries recorded earlier that point at from are not rewritten, so
// the map can hold longer chains; apply follows them to the end.
func resolveRename(rename map[Label]Label, from, to Label) {
	for {
		if existing, ok := rename[to]; ok && existing != to {
			to = existing
			continue
		}
		break
	}
	if from == to {
		return
	}
	rename[from] = to
}

// unifyTempLabels adds every temp binding present only on the right side
// (after renaming) into left, and reports whether left changed.
func unifyTempLabels(left, right map[ir.TempIndex]Label, rename map[Label]Label) bool {
	changed := false
	for temp, rLabel := range right {
		label := apply(rename, rLabel)
		if cur, ok := left[temp]; !ok || cur != label {
			left[temp] = label
			changed = true
		}
	}
	return changed
}

func unifyGlobalLabels(left, right map[ir.ResourceID]Label, rename map[Label]Label) bool {
	changed := false
	for res, rLabel := range right {
		label := apply(rename, rLabel)
		if cur, ok := left[res]; !ok || cur != label {
			left[res] = label
			changed = true
		}
	}
	return changed
}

func apply(rename map[Label]Label, label Label) Label {
	for {
		if to, ok := rename[label]; ok && to != label {
			label = to
			continue
		}
		return label
	}
}

// renamed returns a copy of g with every label (node key, edge target,
// parent key) rewritten through rename. Called once per Join on the
// right-hand operand so the left-hand graph's labels always win a
// collision.
func (g *Graph) renamed(rename map[Label]Label) *Graph {
	out := &Graph{Nodes: map[Label]*Node{}}
	for label, n := range g.Nodes {
		newLabel := apply(rename, label)
		target, ok := out.Nodes[newLabel]
		if !ok {
			target = &Node{
				Locations: map[MemLocation]struct{}{},
				Parents:   map[Label]struct{}{},
			}
			out.Nodes[newLabel] = target
		}
		for loc := range n.Locations {
			target.Locations[loc] = struct{}{}
		}
		for p := range n.Parents {
			target.Parents[apply(rename, p)] = struct{}{}
		}
		for _, e := range n.Children {
			e.Target = apply(rename, e.Target)
			target.Children = append(target.Children, e)
		}
	}
	return out
}

// absorb unions other's nodes into g: new labels are inserted wholesale,
// existing labels gain any locations, edges or parent backlinks they
// didn't already have. Returns whether g changed.
func (g *Graph) absorb(other *Graph) bool {
	changed := false
	for label, on := range other.Nodes {
		n, ok := g.Nodes[label]
		if !ok {
			g.Nodes[label] = on.clone()
			changed = true
			continue
		}
		for loc := range on.Locations {
			if !n.HasLocation(loc) {
				n.Locations[loc] = struct{}{}
				changed = true
			}
		}
		for p := range on.Parents {
			if _, has := n.Parents[p]; !has {
				n.Parents[p] = struct{}{}
				changed = true
			}
		}
		for _, e := range on.Children {
			if !hasEdge(n.Children, e) {
				n.Children = append(n.Children, e)
				changed = true
			}
		}
	}
	return changed
}

func hasEdge(edges []Edge, e Edge) bool {
	for _, existing := range edges {
		if existing.Kind == e.Kind && existing.Target == e.Target {
			return true
		}
	}
	return false
}
