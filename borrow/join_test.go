package borrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinIdempotent(t *testing.T) {
	s := NewState()
	s.MakeTemp(0, 0, 0, true)
	snapshot := s.Clone()

	result := s.Join(snapshot)

	assert.Equal(t, Unchanged, result)
}

func TestJoinMergesDisjointBranches(t *testing.T) {
	left := NewState()
	root := left.MakeTemp(0, 0, 0, true)
	leftChild := left.ReplaceRef(1, 1, 0)
	left.Graph.AddEdge(root, Edge{Kind: BorrowFieldKind(false, 1), Target: leftChild})

	right := left.Clone()
	right.ReleaseRef(1)
	delete(right.TempToLabel, 1)
	rightChild := right.ReplaceRef(1, 2, 0)
	right.Graph.AddEdge(root, Edge{Kind: BorrowFieldKind(false, 2), Target: rightChild})

	result := left.Join(right)

	assert.Equal(t, Changed, result)
	assert.NoError(t, left.Graph.CheckInvariants())
	assert.True(t, left.Graph.IsAncestor(root, leftChild))
	// temp 1 names leftChild on the left and rightChild on the right, so the
	// join renames rightChild to leftChild: root keeps both field edges.
	assert.Len(t, left.Graph.Children(root), 2)
}

func TestJoinUnifiesTempLabels(t *testing.T) {
	left := NewState()
	left.MakeTemp(0, 0, 0, true)

	right := NewState()
	right.MakeTemp(0, 99, 0, true)

	result := left.Join(right)

	assert.Equal(t, Changed, result)
	leftLabel, _ := left.LabelForTemp(0)
	rightLabel, _ := right.LabelForTemp(0)
	_ = rightLabel
	assert.NotEqual(t, Label(0), leftLabel)
	assert.NoError(t, left.Graph.CheckInvariants())
}

func TestJoinNeverRemovesNodes(t *testing.T) {
	left := NewState()
	left.MakeTemp(0, 0, 0, true)
	before := len(left.Graph.Nodes)

	right := NewState()
	right.MakeTemp(1, 5, 0, true)

	left.Join(right)

	assert.GreaterOrEqual(t, len(left.Graph.Nodes), before)
}
