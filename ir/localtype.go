package ir

// LocalType describes the static type of a local slot, to the extent the
// analyzer needs it: whether it is a reference at all, and if so whether it
// is mutable. No type checking beyond these two queries is in scope.
type LocalType struct {
	// Name is the display name, used only in diagnostics/tests.
	Name string
	// Reference is true for any reference type (&T or &mut T).
	Reference bool
	// Mutable is only meaningful when Reference is true.
	Mutable bool
}

// IsReference reports whether the local holds a reference of any kind.
func (t LocalType) IsReference() bool { return t.Reference }

// IsMutableReference reports whether the local holds a mutable reference.
func (t LocalType) IsMutableReference() bool { return t.Reference && t.Mutable }

// Ref constructs an immutable reference local type.
func Ref(name string) LocalType { return LocalType{Name: name, Reference: true} }

// MutRef constructs a mutable reference local type.
func MutRef(name string) LocalType { return LocalType{Name: name, Reference: true, Mutable: true} }

// Value constructs a non-reference local type.
func Value(name string) LocalType { return LocalType{Name: name} }
