package safety

import (
	"fmt"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/diag"
	"github.com/viant/moveref/ir"
)

// EdgeNamer resolves a temp index to a display name for hint text; callers
// without source-visible names may pass nil.
type EdgeNamer func(temp ir.TempIndex) string

func edgeKindLabel(k borrow.EdgeKind) string {
	if k.IsMut() {
		return "mutable " + k.Tag.String()
	}
	return k.Tag.String()
}

// BorrowInfoHints lists label's outgoing edges matching predicate (nil
// matches everything) as "previous {mutable }{kind} borrow" hints. When an
// edge's target is itself non-leaf, its own children are appended as
// "used by …" hints.
func BorrowInfoHints(g *borrow.Graph, label borrow.Label, predicate func(borrow.Edge) bool) []diag.Hint {
	var hints []diag.Hint
	for _, e := range g.Children(label) {
		if predicate != nil && !predicate(e) {
			continue
		}
		hints = append(hints, diag.Hint{
			Message:  fmt.Sprintf("previous %s", edgeKindLabel(e.Kind)),
			Location: e.Loc,
		})
		if !g.IsLeaf(e.Target) {
			for _, used := range g.Children(e.Target) {
				hints = append(hints, diag.Hint{
					Message:  fmt.Sprintf("used by %s", edgeKindLabel(used.Kind)),
					Location: used.Loc,
				})
			}
		}
	}
	return hints
}

// UsageInfoHints walks state's temp map for temps that are references,
// alive after offset, and on the same ancestor/descendant chain as label,
// and reports each later usage location as "conflicting reference […] used
// here". Only the deepest ancestor among the matching candidates survives.
func UsageInfoHints(target *ir.FunctionTarget, state *borrow.State, label borrow.Label, offset ir.CodeOffset, live ir.LiveVarAnnotation, namer EdgeNamer) []diag.Hint {
	type candidate struct {
		temp  ir.TempIndex
		label borrow.Label
		locs  []ir.Location
	}
	var candidates []candidate
	for temp, l := range state.TempToLabel {
		if !target.IsReference(temp) || !live.IsAliveAfter(offset, temp) {
			continue
		}
		if l != label && !state.Graph.IsAncestor(label, l) && !state.Graph.IsAncestor(l, label) {
			continue
		}
		locs := live.UsagesAfter(offset, temp)
		if len(locs) == 0 {
			continue
		}
		candidates = append(candidates, candidate{temp: temp, label: l, locs: locs})
	}

	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}
	for i, a := range candidates {
		for j, b := range candidates {
			if i == j || a.label == b.label {
				continue
			}
			if state.Graph.IsAncestor(a.label, b.label) {
				keep[i] = false
			}
		}
	}

	var hints []diag.Hint
	for i, c := range candidates {
		if !keep[i] {
			continue
		}
		display := fmt.Sprintf("temp %d", c.temp)
		if namer != nil {
			if n := namer(c.temp); n != "" {
				display = n
			}
		}
		for _, loc := range c.locs {
			hints = append(hints, diag.Hint{
				Message:  fmt.Sprintf("conflicting reference [%s] used here", display),
				Location: loc,
			})
		}
	}
	return hints
}
