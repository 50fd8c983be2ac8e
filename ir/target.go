package ir

// FunctionTarget is the analyzer's primary input: the bytecode stream,
// the parameter list, local types, source locations per instruction, and
// a handle onto the global environment.
type FunctionTarget struct {
	Name string
	// Locals holds every local slot's type, parameters first.
	Locals []LocalType
	// ParamCount is the number of leading Locals entries that are formal
	// parameters (needed by the Ret check: a local-derived reference may
	// only escape if it is derived from a parameter).
	ParamCount int
	Code       []Instruction
	Env        *Environment
}

// IsReference reports whether temp names a reference-typed local.
func (f *FunctionTarget) IsReference(temp TempIndex) bool {
	if temp < 0 || temp >= len(f.Locals) {
		return false
	}
	return f.Locals[temp].IsReference()
}

// IsMutableReference reports whether temp names a mutable-reference local.
func (f *FunctionTarget) IsMutableReference(temp TempIndex) bool {
	if temp < 0 || temp >= len(f.Locals) {
		return false
	}
	return f.Locals[temp].IsMutableReference()
}

// IsParameter reports whether temp is one of the function's formal
// parameters (as opposed to a local variable or compiler temp).
func (f *FunctionTarget) IsParameter(temp TempIndex) bool {
	return temp >= 0 && temp < f.ParamCount
}
