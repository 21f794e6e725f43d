package ledger

import "time"

// Status is the terminal outcome of a recorded run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation as stored in the runs table.
type Run struct {
	ID            string    `json:"id"`
	Input         string    `json:"input"`
	Output        string    `json:"output,omitempty"`
	SourceVersion string    `json:"source_version,omitempty"`
	TargetVersion string    `json:"target_version"`
	Status        Status    `json:"status"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	Message       string    `json:"message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Entry identifies a file version the watcher has handled. A file is
// considered changed, and therefore eligible again, when its size or
// modification time differs from the stored entry.
type Entry struct {
	Path        string
	Size        int64
	ModTime     time.Time
	RunID       string
	ProcessedAt time.Time
}
