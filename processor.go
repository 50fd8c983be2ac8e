// Package moveref computes reference-safety lifetime annotations for a
// single function's bytecode, and reports every aliasing violation it
// finds as a diagnostic on the function's environment.
package moveref

import (
	"fmt"

	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/cfg"
	"github.com/viant/moveref/ir"
	"github.com/viant/moveref/transform"
)

// Processor runs the borrow-graph dataflow analysis over one function at a
// time. It holds no per-function state, so a single Processor can be
// reused across every function of a module.
type Processor struct {
	noSafety  bool
	hintLimit int
}

// New builds a Processor from the given options.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the forward dataflow over target's bytecode along graph,
// using live as the precomputed live-variable annotation. It returns the
// converged before/after borrow state at every offset. Safety diagnostics
// are reported on target.Env as a side effect; Process itself only
// returns a non-nil error for a malformed target or graph, or if the
// dataflow fails to converge within its iteration bound.
func (p *Processor) Process(target *ir.FunctionTarget, graph *cfg.Graph, live ir.LiveVarAnnotation) (*LifetimeAnnotation, error) {
	if err := validate(target, graph); err != nil {
		return nil, err
	}
	if target.Env == nil {
		target.Env = ir.NewEnvironment(p.noSafety)
	}

	before, err := p.fixpoint(target, graph, live)
	if err != nil {
		return nil, err
	}

	// With WithNoSafety the final pass reports to a suppressed scratch
	// environment, so a caller-supplied Env receives no diagnostics either.
	final := target
	if p.noSafety {
		final = &ir.FunctionTarget{
			Name:       target.Name,
			Locals:     target.Locals,
			ParamCount: target.ParamCount,
			Code:       target.Code,
			Env:        ir.NewEnvironment(true),
		}
	}
	tr := transform.New(final, borrow.NewState(), live)
	annotation := &LifetimeAnnotation{Offsets: map[ir.CodeOffset]*OffsetLifetime{}}
	for _, off := range graph.Offsets() {
		beforeState, ok := before[off]
		if !ok {
			continue
		}
		state := beforeState.Clone()
		tr.Step(state, target.Code[off])
		annotation.Offsets[off] = &OffsetLifetime{
			Before:   beforeState,
			After:    state,
			Released: releasedTemps(beforeState, state),
		}
	}

	applyHintLimit(target, p.hintLimit)
	return annotation, nil
}

// fixpoint runs the forward worklist to a converged before-state at every
// reachable offset, against a throwaway suppressed environment so the
// convergence passes never themselves produce a visible diagnostic — only
// the single final pass in Process reports findings.
func (p *Processor) fixpoint(target *ir.FunctionTarget, graph *cfg.Graph, live ir.LiveVarAnnotation) (map[ir.CodeOffset]*borrow.State, error) {
	scratch := &ir.FunctionTarget{
		Name:       target.Name,
		Locals:     target.Locals,
		ParamCount: target.ParamCount,
		Code:       target.Code,
		Env:        ir.NewEnvironment(true),
	}

	order := graph.ReversePostorder()
	before := map[ir.CodeOffset]*borrow.State{graph.Entry(): initialState(target)}
	for _, off := range graph.Offsets() {
		if off == graph.Entry() {
			continue
		}
		if len(graph.Predecessors(off)) == 0 {
			// Unreachable from entry: still gets an (empty) state so the
			// final pass covers every offset graph.ReversePostorder lists.
			before[off] = borrow.NewState()
		}
	}

	maxIterations := (len(order)+1)*(len(order)+1) + 64
	for iteration := 0; ; iteration++ {
		if iteration > maxIterations {
			return nil, fmt.Errorf("moveref: borrow dataflow did not converge after %d iterations", iteration)
		}
		changed := false
		for _, off := range order {
			seed, ok := before[off]
			if !ok {
				continue
			}
			state := seed.Clone()
			tr := transform.New(scratch, state, live)
			tr.Step(state, target.Code[off])

			for _, succ := range graph.Successors(off) {
				if existing, ok := before[succ]; ok {
					if existing.Join(state.Clone()) == borrow.Changed {
						changed = true
					}
				} else {
					before[succ] = state.Clone()
					changed = true
				}
			}
		}
		if !changed {
			return before, nil
		}
	}
}

// initialState seeds function entry: every reference-typed parameter gets
// a counter-labeled node rooted at External, so a reference derived from
// it is allowed to escape through Ret while one derived from a plain
// local is not.
func initialState(target *ir.FunctionTarget) *borrow.State {
	state := borrow.NewState()
	for temp := 0; temp < target.ParamCount; temp++ {
		if !target.IsReference(temp) {
			continue
		}
		label := borrow.CounterLabel(uint32(temp))
		_ = state.Graph.NewNode(label, borrow.ExternalLocation())
		state.TempToLabel[temp] = label
	}
	return state
}

func validate(target *ir.FunctionTarget, graph *cfg.Graph) error {
	if target == nil {
		return fmt.Errorf("moveref: nil function target")
	}
	if graph == nil {
		return fmt.Errorf("moveref: nil control-flow graph")
	}
	if int(graph.Entry()) >= len(target.Code) {
		return fmt.Errorf("moveref: entry offset %d out of range for %d instructions", graph.Entry(), len(target.Code))
	}
	for _, off := range graph.Offsets() {
		if int(off) >= len(target.Code) {
			return fmt.Errorf("moveref: control-flow graph references offset %d beyond code length %d", off, len(target.Code))
		}
	}
	return nil
}

// applyHintLimit truncates every reported diagnostic's hint list to at
// most limit entries. limit <= 0 leaves diagnostics untouched.
func applyHintLimit(target *ir.FunctionTarget, limit int) {
	if limit <= 0 {
		return
	}
	diags := target.Env.Diagnostics()
	for i := range diags {
		if len(diags[i].Hints) > limit {
			diags[i].Hints = diags[i].Hints[:limit]
		}
	}
}
