package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/ir"
)

func newTarget(locals []ir.LocalType, paramCount int) *ir.FunctionTarget {
	return &ir.FunctionTarget{
		Name:       "f",
		Locals:     locals,
		ParamCount: paramCount,
		Env:        ir.NewEnvironment(false),
	}
}

// annotateAlive marks every temp in temps alive both before and after
// every offset in offsets, so a multi-step test's reference temps survive
// the pre/post-step release passes between steps.
func annotateAlive(offsets []ir.CodeOffset, temps []ir.TempIndex) ir.LiveVarAnnotation {
	anno := ir.LiveVarAnnotation{}
	for _, off := range offsets {
		before := map[ir.TempIndex]bool{}
		after := map[ir.TempIndex]bool{}
		for _, t := range temps {
			before[t] = true
			after[t] = true
		}
		anno[off] = ir.LiveVarInfo{Before: before, After: after}
	}
	return anno
}

func TestBorrowLocCreatesMutEdge(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Value("s"), ir.MutRef("r")}, 1)
	state := borrow.NewState()
	tr := New(target, state, ir.LiveVarAnnotation{})

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowLoc, Dest: 1, Src: 0})

	root, ok := state.LabelForTemp(0)
	assert.True(t, ok)
	assert.True(t, state.Graph.HasMutEdges(root))
	assert.Empty(t, target.Env.Diagnostics())
}

func TestWriteToBorrowedLocalRejected(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Value("x"), ir.Ref("r")}, 0)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{1})
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowLoc, Dest: 1, Src: 0})
	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpAssign, Dest: 0, Src: 0, AssignKind: ir.AssignStore})

	assert.True(t, target.Env.HasErrors())
}

func TestBorrowFieldMutabilityInversionRejected(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Value("s"), ir.Ref("r1"), ir.MutRef("r2")}, 1)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{1})
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowLoc, Dest: 1, Src: 0})
	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpBorrowField, Dest: 2, Src: 1, FieldOffset: 0})

	assert.True(t, target.Env.HasErrors())
	diags := target.Env.Diagnostics()
	assert.Contains(t, diags[len(diags)-1].Message, "cannot mutably borrow field")
}

func TestBorrowFieldDistinctFieldsAllowed(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Value("s"), ir.MutRef("r1"), ir.MutRef("r2")}, 1)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{1})
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowField, Dest: 1, Src: 0, FieldOffset: 1})
	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpBorrowField, Dest: 2, Src: 0, FieldOffset: 2})

	assert.False(t, target.Env.HasErrors())
}

func TestRetRejectsEscapeOfNonParameterLocal(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.MutRef("s"), ir.Value("local"), ir.MutRef("t")}, 1)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{2})
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowLoc, Dest: 2, Src: 1})
	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpRet, Srcs: []ir.TempIndex{2}})

	assert.True(t, target.Env.HasErrors())
	assert.Contains(t, target.Env.Diagnostics()[0].Message, "non-parameter local")
}

func TestRetAllowsEscapeOfParameterDerivedReference(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.MutRef("s"), ir.MutRef("t")}, 1)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{0, 1})
	tr := New(target, state, live)
	state.TempToLabel[0] = borrow.CounterLabel(0)
	assert.NoError(t, state.Graph.NewNode(borrow.CounterLabel(0), borrow.ExternalLocation()))

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpFreezeRef, Dest: 1, Src: 0})
	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpRet, Srcs: []ir.TempIndex{1}})

	assert.False(t, target.Env.HasErrors())
}

func TestDirectDuplicateCallArgumentRejected(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Value("x"), ir.MutRef("a")}, 0)
	state := borrow.NewState()
	live := annotateAlive([]ir.CodeOffset{1, 2}, []ir.TempIndex{1})
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpBorrowLoc, Dest: 1, Src: 0})
	tr.Step(state, ir.Instruction{
		Offset: 2,
		Op:     ir.OpCall,
		Srcs:   []ir.TempIndex{1, 1},
		Call:   ir.Call{Operation: ir.OpUserFunction, Name: "f"},
	})

	assert.True(t, target.Env.HasErrors())
}

func TestAssignInferredMovesWhenUnborrowedAndDead(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Ref("src"), ir.Ref("dest")}, 0)
	state := borrow.NewState()
	label := state.MakeTemp(0, 0, 0, true)
	live := ir.LiveVarAnnotation{
		1: ir.LiveVarInfo{Before: map[ir.TempIndex]bool{0: true}, After: map[ir.TempIndex]bool{}},
	}
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpAssign, Dest: 1, Src: 0, AssignKind: ir.AssignInferred})

	_, stillHasSrc := state.TempToLabel[0]
	assert.False(t, stillHasSrc)
	got, ok := state.LabelForTemp(1)
	assert.True(t, ok)
	assert.Equal(t, label, got)
}

func TestAssignInferredCopiesWhenBorrowed(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Ref("src"), ir.Ref("dest")}, 0)
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	child := state.ReplaceRef(9, 1, 0)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.FreezeKind(), Target: child})

	live := ir.LiveVarAnnotation{
		2: ir.LiveVarInfo{Before: map[ir.TempIndex]bool{0: true}, After: map[ir.TempIndex]bool{0: true}},
	}
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpAssign, Dest: 1, Src: 0, AssignKind: ir.AssignInferred})

	_, stillHasSrc := state.TempToLabel[0]
	assert.True(t, stillHasSrc)
}

func TestAssignInferredCopiesWhenBorrowedAndDead(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Ref("src"), ir.Ref("dest")}, 0)
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	child := state.ReplaceRef(9, 1, 0)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.FreezeKind(), Target: child})

	live := ir.LiveVarAnnotation{
		2: ir.LiveVarInfo{Before: map[ir.TempIndex]bool{0: true}, After: map[ir.TempIndex]bool{}},
	}
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 2, Op: ir.OpAssign, Dest: 1, Src: 0, AssignKind: ir.AssignInferred})

	// src is dead after this offset, so post-step release unbinds it once the
	// copy is made; dest keeps the borrowed root's label.
	_, stillHasSrc := state.TempToLabel[0]
	assert.False(t, stillHasSrc)
	got, ok := state.LabelForTemp(1)
	assert.True(t, ok)
	assert.Equal(t, root, got)
}

func TestAssignInferredCopiesWhenUnborrowedAndAlive(t *testing.T) {
	target := newTarget([]ir.LocalType{ir.Ref("src"), ir.Ref("dest")}, 0)
	state := borrow.NewState()
	state.MakeTemp(0, 0, 0, true)

	live := ir.LiveVarAnnotation{
		1: ir.LiveVarInfo{Before: map[ir.TempIndex]bool{0: true}, After: map[ir.TempIndex]bool{0: true}},
	}
	tr := New(target, state, live)

	tr.Step(state, ir.Instruction{Offset: 1, Op: ir.OpAssign, Dest: 1, Src: 0, AssignKind: ir.AssignInferred})

	_, stillHasSrc := state.TempToLabel[0]
	assert.True(t, stillHasSrc)
}
