package diag

// Diagnostic is the sole unit of analyzer output that is visible to the
// user: a primary location, a message, and a hint list. No diagnostic
// aborts analysis; the driver keeps transforming the
// function after emitting one so the caller sees every problem in a
// single pass.
type Diagnostic struct {
	Severity Severity     `yaml:"severity"`
	Primary  CodeLocation `yaml:"primary"`
	Message  string       `yaml:"message"`
	Hints    []Hint       `yaml:"hints,omitempty"`
}

// Sink collects diagnostics. It is append-only from the analyzer's point of
// view: the analyzer never reads back what it has already reported.
type Sink struct {
	suppressed  bool
	diagnostics []Diagnostic
}

// NewSink creates a diagnostic sink. When suppressed is true, Report keeps
// silently discarding diagnostics; this is how disabling safety checking
// is threaded through.
func NewSink(suppressed bool) *Sink {
	return &Sink{suppressed: suppressed}
}

// Report appends a diagnostic unless suppression is active.
func (s *Sink) Report(d Diagnostic) {
	if s.suppressed {
		return
	}
	s.diagnostics = append(s.diagnostics, d)
}

// HasErrors reports whether any diagnostic has been recorded. This is the
// only pass/fail signal the driver exposes — no diagnostic is ever
// returned as a Go error.
func (s *Sink) HasErrors() bool {
	return len(s.diagnostics) > 0
}

// Diagnostics returns the diagnostics recorded so far, in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diagnostics
}
