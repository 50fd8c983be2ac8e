package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/moveref/borrow"
	"github.com/viant/moveref/ir"
)

func newTestTarget() *ir.FunctionTarget {
	return &ir.FunctionTarget{
		Name:       "test",
		Locals:     []ir.LocalType{ir.MutRef("s"), ir.Ref("r1"), ir.Ref("r2")},
		ParamCount: 1,
		Env:        ir.NewEnvironment(false),
	}
}

func TestDirectDuplicateDetected(t *testing.T) {
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	_ = root
	checker := NewChecker(newTestTarget(), state, ir.LiveVarAnnotation{}, nil)

	diags := checker.Check([]ir.TempIndex{1, 1}, ir.Location{})

	assert.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "same mutable reference used again")
}

func TestDisjointFieldBorrowsAccepted(t *testing.T) {
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	r1 := state.ReplaceRef(1, 1, 0)
	r2 := state.ReplaceRef(2, 2, 0)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowFieldKind(false, 1), Target: r1})
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowFieldKind(false, 2), Target: r2})

	checker := NewChecker(newTestTarget(), state, ir.LiveVarAnnotation{}, nil)
	diags := checker.Check([]ir.TempIndex{1, 2}, ir.Location{})

	assert.Empty(t, diags)
}

func TestSameFieldMutImmutDiverges(t *testing.T) {
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	r1 := state.ReplaceRef(1, 1, 0)
	r2 := state.ReplaceRef(2, 2, 0)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowFieldKind(true, 1), Loc: ir.Location{LineNumber: 1}, Target: r1})
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowFieldKind(false, 1), Loc: ir.Location{LineNumber: 2}, Target: r2})

	checker := NewChecker(newTestTarget(), state, ir.LiveVarAnnotation{}, nil)
	diags := checker.Check([]ir.TempIndex{1, 2}, ir.Location{})

	assert.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "conflicts with earlier")
}

func TestRejoinedBranchesSuppressDiverging(t *testing.T) {
	base := borrow.NewState()
	root := base.MakeTemp(0, 0, 0, true)

	thenBranch := base.Clone()
	thenLabel := thenBranch.ReplaceRef(1, 10, 0)
	thenBranch.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowLocalKind(true), Loc: ir.Location{LineNumber: 1}, Target: thenLabel})

	elseBranch := base.Clone()
	elseLabel := elseBranch.ReplaceRef(1, 20, 0)
	elseBranch.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowLocalKind(true), Loc: ir.Location{LineNumber: 2}, Target: elseLabel})

	thenBranch.Join(elseBranch)

	checker := NewChecker(newTestTarget(), thenBranch, ir.LiveVarAnnotation{}, nil)
	diags := checker.Check([]ir.TempIndex{1}, ir.Location{})

	assert.Empty(t, diags)
	assert.NoError(t, thenBranch.Graph.CheckInvariants())
}

func TestExclusiveAccessDuplicateDetected(t *testing.T) {
	state := borrow.NewState()
	root := state.MakeTemp(0, 0, 0, true)
	shared := state.ReplaceRef(3, 9, 0)
	r1 := state.ReplaceRef(1, 1, 0)
	r2 := state.ReplaceRef(2, 2, 0)
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowLocalKind(true), Target: r1})
	state.Graph.AddEdge(root, borrow.Edge{Kind: borrow.BorrowLocalKind(true), Target: r2})
	state.Graph.AddEdge(r1, borrow.Edge{Kind: borrow.FreezeKind(), Target: shared})
	state.Graph.AddEdge(r2, borrow.Edge{Kind: borrow.FreezeKind(), Target: shared})

	checker := NewChecker(newTestTarget(), state, ir.LiveVarAnnotation{}, nil)
	diags := checker.Check([]ir.TempIndex{1, 2}, ir.Location{})

	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "multiple argument slots") {
			found = true
		}
	}
	assert.True(t, found)
}
