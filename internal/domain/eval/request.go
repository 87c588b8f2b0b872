package eval

import "fmt"

// Request describes one instrumented source unit to evaluate.
//
// The instrumentation step (rewriting user source so that running it prints
// traces of intermediate results) happens upstream; the request carries its
// output verbatim. A Request is immutable once constructed and owned by a
// single evaluation.
type Request struct {
	ID         string
	EntryPoint string
	Source     string
	Classpath  []string
	WorkingDir string
	Limits     RunLimits
}

// Validate reports the first structural problem with the request.
func (r Request) Validate() error {
	if r.EntryPoint == "" {
		return fmt.Errorf("request %q: entry point must not be empty", r.ID)
	}
	if r.Source == "" {
		return fmt.Errorf("request %q: source must not be empty", r.ID)
	}
	return nil
}
