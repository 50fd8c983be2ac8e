package safety

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/diag"
	"github.com/viant/moveref/ir"
	"golang.org/x/tools/container/intsets"
)

// TempPair is an unordered pair of temp indices, used to suppress
// derivative diagnostics against a pair already flagged once.
type TempPair [2]ir.TempIndex

func pairOf(a, b ir.TempIndex) TempPair {
	if a > b {
		a, b = b, a
	}
	return TempPair{a, b}
}

// Checker walks the borrow graph reachable from a set of reference-typed
// operands and reports every unsafe aliasing pattern among them, against a
// shared borrow state across the lifetime of one transformer pass. Reported
// accumulates temp pairs already flagged: an exclusive-access-duplicate
// error is reported once per pair of distinct temps, and later sites naming
// the same pair are suppressed. A direct duplicate records the pair (t, t),
// which never equals a pair of two distinct temps, so it does not suppress
// an exclusive-access-duplicate error.
type Checker struct {
	Target   *ir.FunctionTarget
	State    *borrow.State
	Live     ir.LiveVarAnnotation
	Namer    EdgeNamer
	Reported map[TempPair]bool
}

// NewChecker builds a Checker bound to one function's state and live-var
// annotation.
func NewChecker(target *ir.FunctionTarget, state *borrow.State, live ir.LiveVarAnnotation, namer EdgeNamer) *Checker {
	return &Checker{Target: target, State: state, Live: live, Namer: namer, Reported: map[TempPair]bool{}}
}

// Check validates temps (the ordered reference-typed operand list of the
// next instruction) against the current state, reporting diagnostics at
// location at.
func (c *Checker) Check(temps []ir.TempIndex, at ir.Location) []diag.Diagnostic {
	var out []diag.Diagnostic
	out = append(out, c.checkDirectDuplicates(temps, at)...)

	tempSet := map[ir.TempIndex]bool{}
	for _, t := range temps {
		tempSet[t] = true
	}

	filteredLeaves := map[borrow.Label][]ir.TempIndex{}
	for label, ts := range c.State.Leaves() {
		var matched []ir.TempIndex
		for _, t := range ts {
			if tempSet[t] {
				matched = append(matched, t)
			}
		}
		if len(matched) > 0 {
			filteredLeaves[label] = matched
		}
	}

	frontier := map[string][]borrow.Label{}
	for label := range filteredLeaves {
		for root := range c.State.Graph.Roots(label) {
			frontier[hyperKey([]borrow.Label{root})] = []borrow.Label{root}
		}
	}

	queue := make([][]borrow.Label, 0, len(frontier))
	keys := make([]string, 0, len(frontier))
	for k := range frontier {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		queue = append(queue, frontier[k])
	}

	visited := map[string]bool{}
	reportedEdgePairs := map[uint64]bool{}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		key := hyperKey(h)
		if visited[key] {
			continue
		}
		visited[key] = true

		grouped := c.State.Graph.GroupedChildren(h)

		out = append(out, c.checkDiverging(grouped, reportedEdgePairs)...)

		kinds := make([]borrow.EdgeKind, 0, len(grouped))
		for k := range grouped {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kindLess(kinds[i], kinds[j]) })

		// Each hyper edge (one edge-kind group) pushes its own targets as a
		// new hyper node, rather than merging every kind's targets into one
		// shared node — two edges of unrelated kinds (e.g. distinct-field
		// borrows) must not be fused into a single node that later looks
		// like one aliasing path.
		for _, k := range kinds {
			edges := grouped[k]
			if k.IsMut() {
				out = append(out, c.checkExclusiveAccess(edges, filteredLeaves, at)...)
			}
			var nextLabels intsets.Sparse
			for _, e := range edges {
				nextLabels.Insert(int(e.Target))
			}
			if nextLabels.IsEmpty() {
				continue
			}
			next := make([]borrow.Label, 0, nextLabels.Len())
			for _, l := range nextLabels.AppendTo(nil) {
				next = append(next, borrow.Label(l))
			}
			if nk := hyperKey(next); !visited[nk] {
				queue = append(queue, next)
			}
		}
	}

	return out
}

func (c *Checker) checkDirectDuplicates(temps []ir.TempIndex, at ir.Location) []diag.Diagnostic {
	var out []diag.Diagnostic
	seen := map[ir.TempIndex]bool{}
	for _, t := range temps {
		if seen[t] {
			c.Reported[pairOf(t, t)] = true
			out = append(out, diag.Diagnostic{
				Severity: diag.Error,
				Primary:  at,
				Message:  fmt.Sprintf("same mutable reference used again in argument list (temp %d)", t),
			})
			continue
		}
		seen[t] = true
	}
	return out
}

// checkDiverging implements the diverging-edge condition: two distinct
// edges out of the same hyper node whose kinds are incompatible (at least
// one is mutable and the two overlap) and whose targets share no transitive
// descendant.
func (c *Checker) checkDiverging(grouped map[borrow.EdgeKind][]borrow.Edge, reportedEdgePairs map[uint64]bool) []diag.Diagnostic {
	var out []diag.Diagnostic
	var all []borrow.Edge
	for _, edges := range grouped {
		all = append(all, edges...)
	}
	sort.Slice(all, func(i, j int) bool { return edgeLess(all[i], all[j]) })

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			e1, e2 := all[i], all[j]
			if e1.Target == e2.Target {
				continue
			}
			k1, k2 := e1.Kind, e2.Kind
			if !(k1.IsMut() || k2.IsMut()) || !k1.Overlaps(k2) {
				continue
			}
			key, err := diag.PairKey(edgeRef(e1), edgeRef(e2))
			if err != nil || reportedEdgePairs[key] {
				continue
			}
			if !disjoint(c.State.Graph.TransitiveChildren(e1.Target), c.State.Graph.TransitiveChildren(e2.Target)) {
				continue
			}
			reportedEdgePairs[key] = true
			offending, earlier := e1, e2
			if laterLocation(e2.Loc, e1.Loc) {
				offending, earlier = e2, e1
			}
			out = append(out, diag.Diagnostic{
				Severity: diag.Error,
				Primary:  offending.Loc,
				Message:  fmt.Sprintf("%s conflicts with earlier %s on overlapping memory", edgeKindLabel(offending.Kind), edgeKindLabel(earlier.Kind)),
				Hints: []diag.Hint{{
					Message:  fmt.Sprintf("previous %s here", edgeKindLabel(earlier.Kind)),
					Location: earlier.Loc,
				}},
			})
		}
	}
	return out
}

// checkExclusiveAccess implements the exclusive-access-borrow and
// exclusive-access-duplicate conditions for one mutable hyper edge.
func (c *Checker) checkExclusiveAccess(edges []borrow.Edge, filteredLeaves map[borrow.Label][]ir.TempIndex, at ir.Location) []diag.Diagnostic {
	var out []diag.Diagnostic
	mappedTemps := map[ir.TempIndex]bool{}
	for _, e := range edges {
		for _, t := range filteredLeaves[e.Target] {
			mappedTemps[t] = true
		}
		if len(filteredLeaves[e.Target]) > 0 && !c.State.Graph.IsLeaf(e.Target) {
			out = append(out, diag.Diagnostic{
				Severity: diag.Error,
				Primary:  e.Loc,
				Message:  "mutable reference has additional outgoing borrows",
				Hints:    BorrowInfoHints(c.State.Graph, e.Target, nil),
			})
		}
	}
	if len(mappedTemps) > 1 {
		temps := make([]ir.TempIndex, 0, len(mappedTemps))
		for t := range mappedTemps {
			temps = append(temps, t)
		}
		sort.Ints(temps)
		pair := pairOf(temps[0], temps[1])
		if !c.Reported[pair] {
			c.Reported[pair] = true
			out = append(out, diag.Diagnostic{
				Severity: diag.Error,
				Primary:  at,
				Message:  fmt.Sprintf("same mutable reference reaches multiple argument slots (temps %v)", temps),
			})
		}
	}
	return out
}

func edgeRef(e borrow.Edge) diag.EdgeRef {
	return diag.EdgeRef{
		Kind:    e.Kind.Tag.String(),
		Mut:     e.Kind.IsMut(),
		FieldID: e.Kind.FieldID,
		Target:  uint64(e.Target),
		Line:    e.Loc.LineNumber,
		Column:  e.Loc.ColumnStart,
	}
}

func disjoint(a, b map[borrow.Label]struct{}) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for l := range small {
		if _, ok := big[l]; ok {
			return false
		}
	}
	return true
}

func laterLocation(a, b ir.Location) bool {
	if a.LineNumber != b.LineNumber {
		return a.LineNumber > b.LineNumber
	}
	return a.ColumnStart > b.ColumnStart
}

func edgeLess(a, b borrow.Edge) bool {
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	if a.Kind.Tag != b.Kind.Tag {
		return a.Kind.Tag < b.Kind.Tag
	}
	return a.Kind.FieldID < b.Kind.FieldID
}

func kindLess(a, b borrow.EdgeKind) bool {
	if a.Tag != b.Tag {
		return a.Tag < b.Tag
	}
	if a.Mut != b.Mut {
		return !a.Mut
	}
	if a.FieldID != b.FieldID {
		return a.FieldID < b.FieldID
	}
	return a.Call.Name < b.Call.Name
}

func hyperKey(labels []borrow.Label) string {
	sorted := append([]borrow.Label(nil), labels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var b strings.Builder
	for _, l := range sorted {
		fmt.Fprintf(&b, "%d,", l)
	}
	return b.String()
}
