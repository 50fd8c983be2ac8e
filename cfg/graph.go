package cfg

import (
	"sort"

	"github.com/viant/moveref/ir"
)

// Graph is a forward control-flow graph over instruction offsets: an
// adjacency map plus an entry offset. It never needs to change once built,
// so construction takes the full edge set up front, the same shape used
// for dependency graphs over packages or modules, scaled down to a single
// function's code unit.
type Graph struct {
	entry       ir.CodeOffset
	offsets     []ir.CodeOffset
	successors  map[ir.CodeOffset][]ir.CodeOffset
	predecessors map[ir.CodeOffset][]ir.CodeOffset
}

// NewGraph builds a Graph from an explicit successor map. offsets lists
// every block/instruction offset that participates in the graph (including
// ones with no successors, e.g. a Ret block) so traversal order is total
// and deterministic.
func NewGraph(entry ir.CodeOffset, offsets []ir.CodeOffset, successors map[ir.CodeOffset][]ir.CodeOffset) *Graph {
	g := &Graph{
		entry:        entry,
		offsets:      append([]ir.CodeOffset(nil), offsets...),
		successors:   map[ir.CodeOffset][]ir.CodeOffset{},
		predecessors: map[ir.CodeOffset][]ir.CodeOffset{},
	}
	sort.Slice(g.offsets, func(i, j int) bool { return g.offsets[i] < g.offsets[j] })
	for _, off := range g.offsets {
		succs := append([]ir.CodeOffset(nil), successors[off]...)
		sort.Slice(succs, func(i, j int) bool { return succs[i] < succs[j] })
		g.successors[off] = succs
		for _, s := range succs {
			g.predecessors[s] = append(g.predecessors[s], off)
		}
	}
	for off := range g.predecessors {
		preds := g.predecessors[off]
		sort.Slice(preds, func(i, j int) bool { return preds[i] < preds[j] })
	}
	return g
}

// Entry returns the function's single entry offset.
func (g *Graph) Entry() ir.CodeOffset { return g.entry }

// Offsets returns every offset in the graph, in ascending order.
func (g *Graph) Offsets() []ir.CodeOffset { return g.offsets }

// Successors returns off's successors, in ascending order.
func (g *Graph) Successors(off ir.CodeOffset) []ir.CodeOffset { return g.successors[off] }

// Predecessors returns off's predecessors, in ascending order.
func (g *Graph) Predecessors(off ir.CodeOffset) []ir.CodeOffset { return g.predecessors[off] }

// ReversePostorder returns the graph's offsets in reverse-postorder from the
// entry, the standard visitation order for a forward dataflow worklist: it
// guarantees every offset is visited after at least one of its predecessors
// (loop back-edges aside) has already propagated its state.
func (g *Graph) ReversePostorder() []ir.CodeOffset {
	visited := map[ir.CodeOffset]bool{}
	var post []ir.CodeOffset
	var visit func(ir.CodeOffset)
	visit = func(off ir.CodeOffset) {
		if visited[off] {
			return
		}
		visited[off] = true
		for _, s := range g.successors[off] {
			visit(s)
		}
		post = append(post, off)
	}
	visit(g.entry)
	// Any offset unreachable from entry (dead code) is still appended so the
	// driver computes a state for it; order among those does not affect
	// fixpoint correctness.
	for _, off := range g.offsets {
		visit(off)
	}
	rpo := make([]ir.CodeOffset, len(post))
	for i, off := range post {
		rpo[len(post)-1-i] = off
	}
	return rpo
}
