package eval

// Severity classifies a single compiler diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Position locates a diagnostic inside the materialized source file.
type Position struct {
	Line   int
	Column int
}

// Diagnostic is one compiler-reported message. Read-only once emitted.
type Diagnostic struct {
	Severity Severity
	Message  string
	Position *Position
}

// Artifact holds compiler output retained in memory instead of on disk.
type Artifact struct {
	Name string
	Data []byte
}

// CompilationReport collects every diagnostic emitted during one compile
// run, in emission order. Output is non-nil only when the compiler was
// configured without an explicit output directory and kept its artifact in
// memory; disk output needs no handle because the caller's search path
// already reaches it.
type CompilationReport struct {
	Diagnostics []Diagnostic
	Output      *Artifact
}

// HasErrors reports whether any diagnostic carries error severity. It is
// always derived from the diagnostics, never stored.
func (r *CompilationReport) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-severity diagnostics.
func (r *CompilationReport) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
