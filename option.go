package moveref

// Option configures a Processor at construction time. Following the same
// functional-options pattern used elsewhere in this module's ancestry,
// every non-functional knob is threaded explicitly through New rather than
// read from a package-level global.
type Option func(*Processor)

// WithNoSafety disables diagnostic reporting: the borrow graph is still
// built and joined as usual, but Process never reports a diagnostic for
// the analyzed function. Used for callers that only want the computed
// LifetimeAnnotation, not a pass/fail verdict.
func WithNoSafety() Option {
	return func(p *Processor) { p.noSafety = true }
}

// WithHintLimit caps the number of hints attached to each reported
// diagnostic at n. A non-positive n (the default) leaves every hint in
// place.
func WithHintLimit(n int) Option {
	return func(p *Processor) { p.hintLimit = n }
}
