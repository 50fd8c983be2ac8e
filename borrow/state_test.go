package borrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/moveref/ir"
)

func TestMakeTempIsIdempotent(t *testing.T) {
	s := NewState()
	l1 := s.MakeTemp(0, 10, 0, true)
	l2 := s.MakeTemp(0, 20, 1, true)
	assert.Equal(t, l1, l2)
	assert.NoError(t, s.Graph.CheckInvariants())
}

func TestMakeGlobalIdempotent(t *testing.T) {
	s := NewState()
	res := ir.ResourceID{Module: "0x1::m", Name: "Counter"}
	l1 := s.MakeGlobal(res, 5, 0)
	l2 := s.MakeGlobal(res, 9, 0)
	assert.Equal(t, l1, l2)
}

func TestReleaseRefDropsUnusedLeaf(t *testing.T) {
	s := NewState()
	root := s.MakeTemp(0, 0, 0, true)
	child := s.ReplaceRef(1, 1, 0)
	s.Graph.AddEdge(root, Edge{Kind: BorrowLocalKind(true), Target: child})

	s.ReleaseRef(1)

	_, exists := s.Graph.Nodes[child]
	assert.False(t, exists)
	_, stillTemp := s.TempToLabel[1]
	assert.False(t, stillTemp)
	assert.NoError(t, s.Graph.CheckInvariants())
}

func TestReleaseRefKeepsNodeWhenStillReferenced(t *testing.T) {
	s := NewState()
	root := s.MakeTemp(0, 0, 0, true)
	child := s.ReplaceRef(1, 1, 0)
	s.Graph.AddEdge(root, Edge{Kind: BorrowLocalKind(true), Target: child})
	s.CopyRef(2, 1)

	s.ReleaseRef(1)

	_, exists := s.Graph.Nodes[child]
	assert.True(t, exists)
}

func TestReleaseRefCascadesThroughAncestors(t *testing.T) {
	s := NewState()
	root := s.MakeTemp(0, 0, 0, true)
	mid := s.ReplaceRef(1, 1, 0)
	leaf := s.ReplaceRef(2, 2, 0)
	s.Graph.AddEdge(root, Edge{Kind: BorrowLocalKind(true), Target: mid})
	s.Graph.AddEdge(mid, Edge{Kind: BorrowFieldKind(true, 0), Target: leaf})

	s.ReleaseRef(1)
	s.ReleaseRef(2)

	assert.True(t, s.Graph.IsLeaf(root))
	assert.NoError(t, s.Graph.CheckInvariants())
}

func TestMoveRefTransfersLabel(t *testing.T) {
	s := NewState()
	label := s.MakeTemp(0, 0, 0, true)
	s.MoveRef(1, 0)

	_, ok := s.TempToLabel[0]
	assert.False(t, ok)
	got, ok := s.LabelForTemp(1)
	assert.True(t, ok)
	assert.Equal(t, label, got)
}

func TestCopyRefSharesLabel(t *testing.T) {
	s := NewState()
	label := s.MakeTemp(0, 0, 0, true)
	s.CopyRef(1, 0)

	got0, _ := s.LabelForTemp(0)
	got1, _ := s.LabelForTemp(1)
	assert.Equal(t, label, got0)
	assert.Equal(t, label, got1)
}

func TestLabelForTempWithChildrenRequiresNonLeaf(t *testing.T) {
	s := NewState()
	root := s.MakeTemp(0, 0, 0, true)
	_, ok := s.LabelForTempWithChildren(0)
	assert.False(t, ok)

	child := s.ReplaceRef(1, 1, 0)
	s.Graph.AddEdge(root, Edge{Kind: BorrowLocalKind(true), Target: child})

	label, ok := s.LabelForTempWithChildren(0)
	assert.True(t, ok)
	assert.Equal(t, root, label)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewState()
	s.MakeTemp(0, 0, 0, true)
	clone := s.Clone()
	clone.MakeTemp(1, 1, 0, true)

	_, onOriginal := s.TempToLabel[1]
	assert.False(t, onOriginal)
}
