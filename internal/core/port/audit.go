package port

import "context"

// FindingEntry is one violation or warning, as written to the finding log.
type FindingEntry struct {
	Source      string
	Table       string
	Kind        string // "1NF", "2NF", "3NF" or "warning"
	Columns     []string
	Key         []string
	Determinant []string
	Heuristic   bool
	Message     string
}

// FindingRecorder records audit findings.
type FindingRecorder interface {
	Record(ctx context.Context, entry FindingEntry)
	Close() error
}
