package borrow

import "github.com/viant/moveref/ir"

// Edge is a directed, parent->child borrow edge.
type Edge struct {
	Kind   EdgeKind
	Loc    ir.Location
	Target Label
}
