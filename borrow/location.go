package borrow

import "github.com/viant/moveref/ir"

// LocationKind tags the root a MemLocation describes.
type LocationKind uint8

const (
	// Global is a typed storage resource identity.
	Global LocationKind = iota
	// Local is a stack slot.
	Local
	// External is memory reachable from a reference parameter.
	External
	// Derived means the node has no direct root: it is the result of a
	// field select, call, or freeze.
	Derived
)

// MemLocation is a tagged value attached to a node describing one root it
// represents. A node can accumulate several after joins, so MemLocation
// must be comparable for use as a map key / set element.
type MemLocation struct {
	Kind     LocationKind
	Resource ir.ResourceID // meaningful when Kind == Global
	Temp     ir.TempIndex  // meaningful when Kind == Local
}

// GlobalLocation builds a Global root for the given resource.
func GlobalLocation(res ir.ResourceID) MemLocation {
	return MemLocation{Kind: Global, Resource: res}
}

// LocalLocation builds a Local root for the given temp.
func LocalLocation(temp ir.TempIndex) MemLocation {
	return MemLocation{Kind: Local, Temp: temp}
}

// ExternalLocation builds the singleton External root.
func ExternalLocation() MemLocation {
	return MemLocation{Kind: External}
}

// DerivedLocation builds the singleton Derived root.
func DerivedLocation() MemLocation {
	return MemLocation{Kind: Derived}
}
