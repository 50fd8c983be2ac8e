package transform

import (
	"fmt"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/diag"
	"github.com/viant/moveref/ir"
	"github.com/viant/moveref/safety"
)

// Transformer applies one bytecode instruction's effect to a borrow
// state. A Transformer is reused across every instruction of one
// function; Checker carries the cross-instruction suppression state for
// derivative duplicate diagnostics.
type Transformer struct {
	Target   *ir.FunctionTarget
	Live     ir.LiveVarAnnotation
	Checker  *safety.Checker
	NoSafety bool
}

// New builds a Transformer for one function target's analysis pass.
func New(target *ir.FunctionTarget, state *borrow.State, live ir.LiveVarAnnotation) *Transformer {
	return &Transformer{
		Target:  target,
		Live:    live,
		Checker: safety.NewChecker(target, state, live, nil),
	}
}

func (tr *Transformer) report(d *diag.Diagnostic) {
	if d == nil {
		return
	}
	tr.Target.Env.Report(*d)
}

func (tr *Transformer) reportAll(ds []diag.Diagnostic) {
	for _, d := range ds {
		tr.Target.Env.Report(d)
	}
}

// Step runs pre-step release, the pre-step safety check (where applicable),
// the per-opcode effect, and post-step release for one instruction. It
// mutates state in place.
func (tr *Transformer) Step(state *borrow.State, instr ir.Instruction) {
	tr.preStepRelease(state, instr.Offset)

	if refs := tr.safetyOperands(instr); refs != nil {
		tr.Checker.State = state
		tr.reportAll(tr.Checker.Check(refs, instr.Loc))
	}

	switch instr.Op {
	case ir.OpAssign:
		tr.assign(state, instr)
	case ir.OpBorrowLoc:
		tr.borrowLoc(state, instr)
	case ir.OpBorrowGlobal:
		tr.borrowGlobal(state, instr)
	case ir.OpBorrowField:
		tr.borrowField(state, instr)
	case ir.OpReadRef:
		tr.readRef(state, instr)
	case ir.OpWriteRef:
		tr.writeRef(state, instr)
	case ir.OpFreezeRef:
		tr.freezeRef(state, instr)
	case ir.OpMoveFrom:
		tr.moveFrom(state, instr)
	case ir.OpCall:
		tr.call(state, instr)
	case ir.OpRet:
		tr.ret(state, instr)
	case ir.OpOther:
		// No borrow effect; live-var release around it still applies.
	}

	tr.postStepRelease(state, instr.Offset)
}

// preStepRelease drops every tracked reference temp that is not alive
// before this offset, so the graph never accumulates out-of-scope state.
func (tr *Transformer) preStepRelease(state *borrow.State, offset ir.CodeOffset) {
	for temp := range state.TempToLabel {
		if tr.Target.IsReference(temp) && !tr.Live.IsAliveBefore(offset, temp) {
			state.ReleaseRef(temp)
		}
	}
}

// postStepRelease drops every tracked reference temp that is alive before
// this offset but not after it (i.e. the live-var transition killed it).
func (tr *Transformer) postStepRelease(state *borrow.State, offset ir.CodeOffset) {
	for temp := range state.TempToLabel {
		if tr.Target.IsReference(temp) && tr.Live.IsAliveBefore(offset, temp) && !tr.Live.IsAliveAfter(offset, temp) {
			state.ReleaseRef(temp)
		}
	}
}

// safetyOperands returns the ordered reference-typed operand list the
// pre-step safety check must validate for instr, or nil if instr carries
// no such operands.
func (tr *Transformer) safetyOperands(instr ir.Instruction) []ir.TempIndex {
	switch instr.Op {
	case ir.OpReadRef, ir.OpWriteRef:
		return tr.filterRefs([]ir.TempIndex{instr.Src})
	case ir.OpCall:
		return tr.filterRefs(instr.Srcs)
	case ir.OpRet:
		return tr.filterRefs(instr.Srcs)
	default:
		return nil
	}
}

func (tr *Transformer) filterRefs(temps []ir.TempIndex) []ir.TempIndex {
	var out []ir.TempIndex
	for _, t := range temps {
		if tr.Target.IsReference(t) {
			out = append(out, t)
		}
	}
	return out
}

// assign implements Assign(dest, src, kind).
func (tr *Transformer) assign(state *borrow.State, instr ir.Instruction) {
	dest, src := instr.Dest, instr.Src
	if tr.Target.IsReference(src) {
		kind := instr.AssignKind
		if kind == ir.AssignInferred {
			_, borrowed := state.LabelForTempWithChildren(src)
			aliveAfter := tr.Live.IsAliveAfter(instr.Offset, src)
			if !borrowed && !aliveAfter {
				kind = ir.AssignMove
			} else {
				kind = ir.AssignCopy
			}
		}
		switch kind {
		case ir.AssignMove:
			state.MoveRef(dest, src)
		case ir.AssignCopy:
			state.CopyRef(dest, src)
		case ir.AssignStore:
			tr.report(&diag.Diagnostic{
				Severity: diag.Error,
				Primary:  instr.Loc,
				Message:  fmt.Sprintf("unexpected Store assign kind on reference-typed temp %d", src),
			})
		}
		return
	}

	mode := ReadCopy
	if instr.AssignKind == ir.AssignMove {
		mode = ReadMove
	}
	tr.report(checkReadable(state, tr.Target, tr.Live, src, mode, instr.Offset, instr.Loc))
	tr.report(checkWritable(state, tr.Target, tr.Live, dest, instr.Offset, instr.Loc, "assign to"))
}

// borrowLoc implements BorrowLoc(dest, src).
func (tr *Transformer) borrowLoc(state *borrow.State, instr ir.Instruction) {
	root := state.MakeTemp(instr.Src, instr.Offset, 0, true)
	dest := state.ReplaceRef(instr.Dest, instr.Offset, 1)
	mut := tr.Target.IsMutableReference(instr.Dest)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowLocalKind(mut), Loc: instr.Loc, Target: dest})
}

// borrowGlobal implements BorrowGlobal(res, dest), symmetric with
// borrowLoc but rooted at a storage resource.
func (tr *Transformer) borrowGlobal(state *borrow.State, instr ir.Instruction) {
	root := state.MakeGlobal(instr.Resource, instr.Offset, 0)
	dest := state.ReplaceRef(instr.Dest, instr.Offset, 1)
	mut := tr.Target.IsMutableReference(instr.Dest)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowGlobalKind(mut), Loc: instr.Loc, Target: dest})
}

// borrowField implements BorrowField(res, field_offset, dest, src),
// rejecting a mutable field borrow taken through an already-immutable
// parent edge.
func (tr *Transformer) borrowField(state *borrow.State, instr ir.Instruction) {
	srcLabel := state.MakeTemp(instr.Src, instr.Offset, 0, false)
	mut := tr.Target.IsMutableReference(instr.Dest)

	if mut {
		for parent := range state.Graph.Node(srcLabel).Parents {
			for _, e := range state.Graph.Children(parent) {
				if e.Target == srcLabel && !e.Kind.IsMut() {
					tr.report(&diag.Diagnostic{
						Severity: diag.Error,
						Primary:  instr.Loc,
						Message:  "cannot mutably borrow field since immutable references exist",
						Hints: []diag.Hint{{
							Message:  fmt.Sprintf("previous %s here", e.Kind.Tag.String()),
							Location: e.Loc,
						}},
					})
					return
				}
			}
		}
	}

	dest := state.ReplaceRef(instr.Dest, instr.Offset, 1)
	state.Graph.AddEdge(srcLabel, borrow.Edge{Kind: borrow.BorrowFieldKind(mut, instr.FieldOffset), Loc: instr.Loc, Target: dest})
}

// readRef implements ReadRef(dest, src).
func (tr *Transformer) readRef(state *borrow.State, instr ir.Instruction) {
	tr.report(checkWritable(state, tr.Target, tr.Live, instr.Dest, instr.Offset, instr.Loc, "read into"))
	tr.report(checkReadable(state, tr.Target, tr.Live, instr.Src, ReadArgument, instr.Offset, instr.Loc))
}

// writeRef implements WriteRef(dest, src).
func (tr *Transformer) writeRef(state *borrow.State, instr ir.Instruction) {
	tr.report(checkReadable(state, tr.Target, tr.Live, instr.Src, ReadArgument, instr.Offset, instr.Loc))
	if label, ok := state.LabelForTemp(instr.Dest); ok && !state.Graph.IsLeaf(label) {
		hints := safety.BorrowInfoHints(state.Graph, label, nil)
		hints = append(hints, safety.UsageInfoHints(tr.Target, state, label, instr.Offset, tr.Live, localNamer(tr.Target))...)
		tr.report(&diag.Diagnostic{
			Severity: diag.Error,
			Primary:  instr.Loc,
			Message:  fmt.Sprintf("cannot write to reference %d: still borrowed", instr.Dest),
			Hints:    hints,
		})
	}
}

// freezeRef implements FreezeRef(dest, src).
func (tr *Transformer) freezeRef(state *borrow.State, instr ir.Instruction) {
	srcLabel := state.MakeTemp(instr.Src, instr.Offset, 0, false)
	dest := state.ReplaceRef(instr.Dest, instr.Offset, 1)
	state.Graph.AddEdge(srcLabel, borrow.Edge{Kind: borrow.FreezeKind(), Loc: instr.Loc, Target: dest})
}

// moveFrom implements MoveFrom(dest, res, src).
func (tr *Transformer) moveFrom(state *borrow.State, instr ir.Instruction) {
	tr.report(checkReadable(state, tr.Target, tr.Live, instr.Src, ReadArgument, instr.Offset, instr.Loc))
	tr.report(checkWritable(state, tr.Target, tr.Live, instr.Dest, instr.Offset, instr.Loc, "move into"))
	if label, ok := state.LabelForGlobal(instr.Resource); ok && !state.Graph.IsLeaf(label) {
		hints := safety.BorrowInfoHints(state.Graph, label, nil)
		hints = append(hints, safety.UsageInfoHints(tr.Target, state, label, instr.Offset, tr.Live, localNamer(tr.Target))...)
		tr.report(&diag.Diagnostic{
			Severity: diag.Error,
			Primary:  instr.Loc,
			Message:  "cannot extract resource: still borrowed",
			Hints:    hints,
		})
	}
}

// call implements Call(dests, oper, srcs). Destination labels
// get qualifiers 0..n_dests; source labels allocated fresh during the call
// (rare: a reference operand the driver has not yet tracked) continue the
// same qualifier sequence, keeping every label created at this offset
// disjoint.
func (tr *Transformer) call(state *borrow.State, instr ir.Instruction) {
	for _, src := range instr.Srcs {
		if tr.Target.IsReference(src) {
			tr.report(checkReadable(state, tr.Target, tr.Live, src, ReadArgument, instr.Offset, instr.Loc))
		}
	}
	for _, dest := range instr.Dests {
		if tr.Target.IsReference(dest) {
			tr.report(checkWritable(state, tr.Target, tr.Live, dest, instr.Offset, instr.Loc, "receive call result into"))
		}
	}

	qualifier := uint8(0)
	destLabels := make([]borrow.Label, len(instr.Dests))
	destIsRef := make([]bool, len(instr.Dests))
	for i, dest := range instr.Dests {
		if tr.Target.IsReference(dest) {
			destLabels[i] = state.ReplaceRef(dest, instr.Offset, qualifier)
			destIsRef[i] = true
			qualifier++
		}
	}

	srcLabels := make([]borrow.Label, len(instr.Srcs))
	srcIsRef := make([]bool, len(instr.Srcs))
	for i, src := range instr.Srcs {
		if !tr.Target.IsReference(src) {
			continue
		}
		srcIsRef[i] = true
		if l, ok := state.LabelForTemp(src); ok {
			srcLabels[i] = l
		} else {
			srcLabels[i] = state.MakeTemp(src, instr.Offset, qualifier, false)
			qualifier++
		}
	}

	for i := range srcLabels {
		if !srcIsRef[i] {
			continue
		}
		for j := range destLabels {
			if !destIsRef[j] {
				continue
			}
			mut := tr.Target.IsMutableReference(instr.Dests[j])
			state.Graph.AddEdge(srcLabels[i], borrow.Edge{
				Kind:   borrow.CallKind(mut, instr.Call, instr.Offset),
				Loc:    instr.Loc,
				Target: destLabels[j],
			})
		}
	}
}

// ret implements Ret(srcs): a reference may only escape the function if
// every root it derives from is External or Derived — never a global or a
// non-parameter local.
func (tr *Transformer) ret(state *borrow.State, instr ir.Instruction) {
	for _, src := range instr.Srcs {
		if !tr.Target.IsReference(src) {
			continue
		}
		label, ok := state.LabelForTemp(src)
		if !ok {
			continue
		}
		for root := range state.Graph.Roots(label) {
			for loc := range state.Graph.Node(root).Locations {
				switch loc.Kind {
				case borrow.Global:
					tr.report(&diag.Diagnostic{
						Severity: diag.Error,
						Primary:  instr.Loc,
						Message:  fmt.Sprintf("cannot return reference derived from global %s::%s", loc.Resource.Module, loc.Resource.Name),
					})
				case borrow.Local:
					if loc.Temp >= tr.Target.ParamCount {
						tr.report(&diag.Diagnostic{
							Severity: diag.Error,
							Primary:  instr.Loc,
							Message:  fmt.Sprintf("cannot return reference derived from non-parameter local %d", loc.Temp),
						})
					}
				}
			}
		}
	}
}
