package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/guillermoBallester/nfaudit/internal/core/port"
)

// fileEntry is the NDJSON-serializable form of a finding.
type fileEntry struct {
	Timestamp   string   `json:"ts"`
	Source      string   `json:"source"`
	Table       string   `json:"table"`
	Kind        string   `json:"kind"`
	Columns     []string `json:"columns,omitempty"`
	Key         []string `json:"key,omitempty"`
	Determinant []string `json:"determinant,omitempty"`
	Heuristic   bool     `json:"heuristic"`
	Message     string   `json:"message"`
}

// FindingLog appends findings as NDJSON (one JSON object per line) to a file.
type FindingLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewFindingLog opens (or creates) the file at path for append-only writing.
func NewFindingLog(path string) (*FindingLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FindingLog{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

func (l *FindingLog) Record(_ context.Context, entry port.FindingEntry) {
	fe := fileEntry{
		Timestamp:   l.now().UTC().Format(time.RFC3339),
		Source:      entry.Source,
		Table:       entry.Table,
		Kind:        entry.Kind,
		Columns:     entry.Columns,
		Key:         entry.Key,
		Determinant: entry.Determinant,
		Heuristic:   entry.Heuristic,
		Message:     entry.Message,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(fe) // best-effort; the report is the primary output
}

func (l *FindingLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// NoopRecorder discards all findings.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, port.FindingEntry) {}
func (NoopRecorder) Close() error                              { return nil }
