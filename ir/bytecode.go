package ir

// Opcode identifies the shape of an Instruction. The taxonomy is closed —
// every variant the transformer (package transform) and the safety checker
// (package safety) need is listed here.
type Opcode uint8

const (
	OpAssign Opcode = iota
	OpBorrowLoc
	OpBorrowGlobal
	OpBorrowField
	OpReadRef
	OpWriteRef
	OpFreezeRef
	OpMoveFrom
	OpCall
	OpRet
	// OpOther covers instructions the reference-safety analyzer does not
	// give special treatment to (arithmetic, branches, labels, ...): they
	// still participate in live-variable release but have no borrow effect.
	OpOther
)

// Instruction is one bytecode instruction of a function's code unit.
// Only the fields relevant to Op are populated; the rest are left at their
// zero value (mirrors the Move stackless-bytecode IR's Bytecode enum,
// flattened into a single struct for a simpler Go representation).
type Instruction struct {
	Offset CodeOffset
	Loc    Location
	Op     Opcode

	// Dest is the single destination temp for Assign, BorrowLoc,
	// BorrowGlobal, BorrowField, ReadRef, WriteRef (the reference written
	// through), FreezeRef, MoveFrom.
	Dest TempIndex
	// Src is the single source temp for Assign, BorrowLoc, BorrowField,
	// ReadRef, WriteRef, FreezeRef, MoveFrom.
	Src TempIndex
	// AssignKind applies to Assign only.
	AssignKind AssignKind

	// Resource applies to BorrowGlobal and MoveFrom.
	Resource ResourceID
	// FieldOffset applies to BorrowField.
	FieldOffset FieldID

	// Dests/Srcs apply to Call (zero or more of each) and to Ret (Srcs only).
	Dests []TempIndex
	Srcs  []TempIndex
	// Call describes the callee of a Call instruction.
	Call Call
}
