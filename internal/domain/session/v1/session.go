// Package sessionv1 defines per-symbol trading-session status.
package sessionv1

// Status gates which operations a shard accepts for a symbol.
type Status string

const (
	// Open accepts all operations. This is the default for a symbol on
	// first reference.
	Open Status = "open"
	// Halted accepts only Cancel; New and Replace are rejected.
	Halted Status = "halted"
	// Closed accepts only Cancel; New and Replace are rejected.
	Closed Status = "closed"
)
