package ir

import "github.com/viant/moveref/diag"

// Environment is the global environment handle a FunctionTarget carries:
// the diagnostic sink every analyzer finding is appended to, plus whatever
// struct/field metadata resolution the analyzer needs. It is append-only
// from the analyzer's perspective, never read back by the analyzer itself.
type Environment struct {
	sink   *diag.Sink
	fields map[ResourceID][]FieldID
}

// NewEnvironment creates an Environment. suppressed disables safety
// checking: diagnostics are computed as normal but dropped at the sink
// rather than being reported.
func NewEnvironment(suppressed bool) *Environment {
	return &Environment{sink: diag.NewSink(suppressed), fields: map[ResourceID][]FieldID{}}
}

// Report appends a diagnostic to the sink (a no-op when suppressed).
func (e *Environment) Report(d diag.Diagnostic) {
	e.sink.Report(d)
}

// HasErrors is the driver's sole pass/fail signal.
func (e *Environment) HasErrors() bool {
	return e.sink.HasErrors()
}

// Diagnostics returns every diagnostic reported so far.
func (e *Environment) Diagnostics() []diag.Diagnostic {
	return e.sink.Diagnostics()
}

// DefineFields registers the field ids declared by a resource type, so
// later passes (not this analyzer, which only needs field identity, not
// field types) can resolve BorrowField targets.
func (e *Environment) DefineFields(res ResourceID, fields []FieldID) {
	e.fields[res] = fields
}

// Fields returns the field ids declared by a resource type.
func (e *Environment) Fields(res ResourceID) []FieldID {
	return e.fields[res]
}
