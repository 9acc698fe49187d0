package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/contentcheck/internal/report"
)

// RunStatus represents the state of a queued validation run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunRecord tracks one run submitted through the report server.
type RunRecord struct {
	mu sync.Mutex

	ID     string    `json:"run_id"`
	Status RunStatus `json:"status"`
	Strict bool      `json:"strict"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Internal: not serialized directly.
	report *report.Report
	err    string
}

func NewRunRecord(id string, strict bool) *RunRecord {
	now := time.Now()
	return &RunRecord{
		ID:        id,
		Status:    StatusQueued,
		Strict:    strict,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates run status atomically.
func (r *RunRecord) SetStatus(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = time.Now()
}

// Complete stores the report of a finished run.
func (r *RunRecord) Complete(rep *report.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = rep
	r.Status = StatusCompleted
	r.UpdatedAt = time.Now()
	r.FinishedAt = r.UpdatedAt
}

// Fail records a fatal run error. Failed runs carry no report.
func (r *RunRecord) Fail(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.Status = StatusFailed
	r.UpdatedAt = time.Now()
	r.FinishedAt = r.UpdatedAt
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID         string         `json:"run_id"`
	Status     RunStatus      `json:"status"`
	Strict     bool           `json:"strict"`
	Passed     *bool          `json:"passed,omitempty"`
	Error      string         `json:"error,omitempty"`
	Report     *report.Report `json:"report,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// Snapshot returns a JSON-safe copy of the run state. The report is
// included only once the run has completed.
func (r *RunRecord) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := RunSnapshot{
		ID:        r.ID,
		Status:    r.Status,
		Strict:    r.Strict,
		Error:     r.err,
		Report:    r.report,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.report != nil {
		passed := !r.report.Failed(r.Strict)
		snap.Passed = &passed
	}
	if !r.FinishedAt.IsZero() {
		snap.DurationMs = r.FinishedAt.Sub(r.CreatedAt).Milliseconds()
	}
	return snap
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*RunRecord
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// List returns snapshots of all runs, newest first.
func (s *RunStore) List() []RunSnapshot {
	s.mu.Lock()
	runs := make([]*RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.Unlock()

	out := make([]RunSnapshot, 0, len(runs))
	for _, r := range runs {
		snap := r.Snapshot()
		snap.Report = nil
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		updated := run.UpdatedAt
		run.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.runs, id)
		}
	}
}
