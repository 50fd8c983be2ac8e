package diag

// Severity classifies a Diagnostic. The reference-safety analyzer only ever
// emits Error: a function either aliases references unsafely or it does not.
// The type stays open so callers comparing diagnostics across passes do not
// need a second type.
type Severity string

const (
	Error Severity = "Error"
)
