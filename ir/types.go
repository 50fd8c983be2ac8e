package ir

import "github.com/viant/moveref/diag"

// CodeOffset indexes a bytecode instruction within a function's code unit.
type CodeOffset = uint16

// TempIndex names a local slot (parameter, local variable, or compiler
// temporary) within a function frame.
type TempIndex = int

// FieldID identifies a struct field within its declaring resource type.
type FieldID = int

// ResourceID identifies a typed global storage resource (a Move-like
// `struct` living in global storage, addressed by its type).
type ResourceID struct {
	Module string
	Name   string
}

// Location is a source location attached to a bytecode instruction or edge,
// used only for diagnostics. It is the same shape as diag.CodeLocation: the
// analyzer never needs to do anything with a location other than report it.
type Location = diag.CodeLocation

// Operation names the closed-ish set of built-in and user operations that
// can appear as a Call instruction's callee. User function calls carry the
// function's qualified name; built-ins use one of the constants below.
type Operation string

const (
	OpUserFunction Operation = "" // Name field carries the qualified function name
	OpVectorBorrow Operation = "VectorBorrow"
	OpVectorPush   Operation = "VectorPush"
	OpVectorPop    Operation = "VectorPop"
)

// Call describes the callee of a Call instruction.
type Call struct {
	Operation Operation
	Name      string // qualified function name when Operation == OpUserFunction
}
