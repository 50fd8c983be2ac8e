package moveref

import (
	"sort"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/ir"
)

// OffsetLifetime records the borrow state immediately before and after one
// instruction, plus which temps are bound in Before but not in After
// (dropped by either release pass, or moved away by an Assign).
type OffsetLifetime struct {
	Before   *borrow.State  `yaml:"before"`
	After    *borrow.State  `yaml:"after"`
	Released []ir.TempIndex `yaml:"released,omitempty"`
}

// LifetimeAnnotation is the full result of analyzing one function: the
// converged before/after borrow state at every reachable code offset. It
// carries no diagnostics of its own — those live on the FunctionTarget's
// Environment, queried through HasErrors/Diagnostics.
type LifetimeAnnotation struct {
	Offsets map[ir.CodeOffset]*OffsetLifetime `yaml:"offsets"`
}

// releasedTemps returns, sorted, every temp present in before's temp map
// but absent from after's — the temps this instruction's release passes
// dropped or its Assign moved away.
func releasedTemps(before, after *borrow.State) []ir.TempIndex {
	var out []ir.TempIndex
	for t := range before.TempToLabel {
		if _, ok := after.TempToLabel[t]; !ok {
			out = append(out, t)
		}
	}
	sort.Ints(out)
	return out
}
