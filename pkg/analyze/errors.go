package analyze

import "fmt"

// TransportError reports that the search service was unreachable or
// returned a non-success status for one index pattern. Fatal for that
// pattern only; other patterns continue.
type TransportError struct {
	Pattern string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.Pattern, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError reports a structurally malformed mapping response for one
// index pattern.
type SchemaError struct {
	Pattern string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("malformed mapping for %s: %s", e.Pattern, e.Reason)
}

// SynthesisError reports an internal invariant violation: a candidate
// reached the synthesizer without a usable category. The candidate is
// dropped from the report; the run continues.
type SynthesisError struct {
	Path     string
	Category Category
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("cannot synthesize query for %s: category %q", e.Path, e.Category)
}
