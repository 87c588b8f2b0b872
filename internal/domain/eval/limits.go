package eval

import "time"

// RunLimits describes optional resource boundaries for a single child run.
//
// A zero value RunLimits imposes no additional restrictions.
type RunLimits struct {
	// TimeLimit caps how long the child process is allowed to run. Zero means no limit.
	TimeLimit time.Duration
	// MemoryLimitBytes caps the child's memory usage in bytes. Zero means no
	// limit. Only backends that can enforce it (containers) honor it.
	MemoryLimitBytes int64
}
