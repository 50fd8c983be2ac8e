package ir

// AssignKind distinguishes how an Assign instruction's source is consumed.
type AssignKind uint8

const (
	// AssignMove consumes src; src's binding is released.
	AssignMove AssignKind = iota
	// AssignCopy duplicates src; both dest and src remain bound.
	AssignCopy
	// AssignInferred lets the transformer pick Move or Copy based on whether
	// src is currently borrowed and whether it is alive after this offset.
	AssignInferred
	// AssignStore on a non-reference src is checked like a copy; on a
	// reference-typed src the transformer reports it as an unexpected
	// assign kind diagnostic.
	AssignStore
)

func (k AssignKind) String() string {
	switch k {
	case AssignMove:
		return "Move"
	case AssignCopy:
		return "Copy"
	case AssignInferred:
		return "Inferred"
	case AssignStore:
		return "Store"
	default:
		return "Unknown"
	}
}
