package transform

import (
	"fmt"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/diag"
	"github.com/viant/moveref/ir"
	"github.com/viant/moveref/safety"
)

// ReadMode decides which outgoing edges on a temp's node make it unsafe to
// consume at a read site.
type ReadMode uint8

const (
	// ReadMove is fatal on any outgoing edge at all.
	ReadMove ReadMode = iota
	// ReadCopy and ReadArgument are fatal only on a mutable outgoing edge.
	ReadCopy
	ReadArgument
)

func (m ReadMode) verb() string {
	switch m {
	case ReadMove:
		return "move"
	case ReadCopy:
		return "copy"
	default:
		return "use"
	}
}

// localNamer builds an EdgeNamer that resolves a temp to its declared local
// name, for the usage-info hints attached alongside the borrow-info ones.
func localNamer(target *ir.FunctionTarget) safety.EdgeNamer {
	return func(temp ir.TempIndex) string {
		if temp < 0 || temp >= len(target.Locals) {
			return ""
		}
		return target.Locals[temp].Name
	}
}

// checkReadable reports a diagnostic if temp currently holds a label whose
// outgoing edges make it unsafe to read under mode; nil otherwise.
func checkReadable(state *borrow.State, target *ir.FunctionTarget, live ir.LiveVarAnnotation, temp ir.TempIndex, mode ReadMode, offset ir.CodeOffset, loc ir.Location) *diag.Diagnostic {
	label, ok := state.LabelForTemp(temp)
	if !ok {
		return nil
	}
	namer := localNamer(target)
	switch mode {
	case ReadMove:
		if state.Graph.IsLeaf(label) {
			return nil
		}
		hints := safety.BorrowInfoHints(state.Graph, label, nil)
		hints = append(hints, safety.UsageInfoHints(target, state, label, offset, live, namer)...)
		return &diag.Diagnostic{
			Severity: diag.Error,
			Primary:  loc,
			Message:  fmt.Sprintf("cannot move local %d: still borrowed", temp),
			Hints:    hints,
		}
	default:
		if !state.Graph.HasMutEdges(label) {
			return nil
		}
		hints := safety.BorrowInfoHints(state.Graph, label, func(e borrow.Edge) bool { return e.Kind.IsMut() })
		hints = append(hints, safety.UsageInfoHints(target, state, label, offset, live, namer)...)
		return &diag.Diagnostic{
			Severity: diag.Error,
			Primary:  loc,
			Message:  fmt.Sprintf("cannot %s local %d: still mutably borrowed", mode.verb(), temp),
			Hints:    hints,
		}
	}
}

// checkWritable reports a diagnostic if temp's current node has any
// outgoing edges at all — writing through it would invalidate live
// derived references.
func checkWritable(state *borrow.State, target *ir.FunctionTarget, live ir.LiveVarAnnotation, temp ir.TempIndex, offset ir.CodeOffset, loc ir.Location, verb string) *diag.Diagnostic {
	label, ok := state.LabelForTemp(temp)
	if !ok || state.Graph.IsLeaf(label) {
		return nil
	}
	hints := safety.BorrowInfoHints(state.Graph, label, nil)
	hints = append(hints, safety.UsageInfoHints(target, state, label, offset, live, localNamer(target))...)
	return &diag.Diagnostic{
		Severity: diag.Error,
		Primary:  loc,
		Message:  fmt.Sprintf("cannot %s local %d: still borrowed", verb, temp),
		Hints:    hints,
	}
}
