package borrow

import "github.com/viant/moveref/ir"

// EdgeTag is the closed taxonomy of ways a child reference can be derived
// from its parent, encoded as a tagged sum type rather than an extensible
// interface hierarchy so every dispatch site stays an exhaustive switch.
type EdgeTag uint8

const (
	TagBorrowLocal EdgeTag = iota
	TagBorrowGlobal
	TagBorrowField
	TagCall
	TagFreeze
)

func (t EdgeTag) String() string {
	switch t {
	case TagBorrowLocal:
		return "local borrow"
	case TagBorrowGlobal:
		return "global borrow"
	case TagBorrowField:
		return "field borrow"
	case TagCall:
		return "call borrow"
	case TagFreeze:
		return "freeze"
	default:
		return "unknown borrow"
	}
}

// EdgeKind is the full label on a borrow edge. Freeze never carries a
// mutability flag — IsMut always reports false for it.
type EdgeKind struct {
	Tag     EdgeTag
	Mut     bool
	FieldID ir.FieldID // meaningful when Tag == TagBorrowField
	Call    ir.Call    // meaningful when Tag == TagCall
	Offset  ir.CodeOffset
}

// IsMut reports whether this edge grants mutable access to its target.
func (k EdgeKind) IsMut() bool {
	return k.Tag != TagFreeze && k.Mut
}

// Overlaps reports whether k and other can alias the same memory region:
// true unless both are field borrows on distinct fields.
func (k EdgeKind) Overlaps(other EdgeKind) bool {
	if k.Tag != TagBorrowField || other.Tag != TagBorrowField {
		return true
	}
	return k.FieldID == other.FieldID
}

// BorrowLocalKind, BorrowGlobalKind, BorrowFieldKind, CallKind, and
// FreezeKind are the single source of truth for constructing each edge
// kind; the transform package builds every edge through these rather than
// EdgeKind literals.
func BorrowLocalKind(mut bool) EdgeKind  { return EdgeKind{Tag: TagBorrowLocal, Mut: mut} }
func BorrowGlobalKind(mut bool) EdgeKind { return EdgeKind{Tag: TagBorrowGlobal, Mut: mut} }
func BorrowFieldKind(mut bool, fieldID ir.FieldID) EdgeKind {
	return EdgeKind{Tag: TagBorrowField, Mut: mut, FieldID: fieldID}
}
func CallKind(mut bool, op ir.Call, offset ir.CodeOffset) EdgeKind {
	return EdgeKind{Tag: TagCall, Mut: mut, Call: op, Offset: offset}
}
func FreezeKind() EdgeKind { return EdgeKind{Tag: TagFreeze} }
