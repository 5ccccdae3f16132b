package api

import (
	"sync"
	"time"

	"github.com/JakeFAU/paper-harvester/internal/clock/system"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// Run states reported by /v1/status.
const (
	RunIdle     = "idle"
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// PeriodStatus is the progress of one period.
type PeriodStatus struct {
	Period    int            `json:"period"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Done      bool           `json:"done"`
	Summary   *paper.Summary `json:"summary,omitempty"`
}

// Status is a point-in-time view of a harvest run.
type Status struct {
	RunID      string         `json:"run_id,omitempty"`
	State      string         `json:"state"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	Periods    []PeriodStatus `json:"periods"`
}

// Tracker records orchestrator progress for the status endpoint. It satisfies
// harvest.Progress and is safe for concurrent readers.
type Tracker struct {
	mu     sync.RWMutex
	clock  crawler.Clock
	status Status
	index  map[int]int
}

// NewTracker returns an idle Tracker. A nil clock uses the system clock.
func NewTracker(clock crawler.Clock) *Tracker {
	if clock == nil {
		clock = system.New()
	}
	return &Tracker{
		clock:  clock,
		status: Status{State: RunIdle, Periods: []PeriodStatus{}},
		index:  make(map[int]int),
	}
}

// Begin marks the start of a run.
func (t *Tracker) Begin(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.status = Status{RunID: runID, State: RunRunning, StartedAt: &now, Periods: []PeriodStatus{}}
	t.index = make(map[int]int)
}

// End marks the run finished, or failed when err is non-nil.
func (t *Tracker) End(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.status.FinishedAt = &now
	t.status.State = RunFinished
	if err != nil {
		t.status.State = RunFailed
		t.status.Error = err.Error()
	}
}

// StartPeriod registers a period with its task count.
func (t *Tracker) StartPeriod(period, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index[period] = len(t.status.Periods)
	t.status.Periods = append(t.status.Periods, PeriodStatus{Period: period, Total: total})
}

// TaskDone updates the completion count of a period.
func (t *Tracker) TaskDone(period, completed, _ int, _ paper.Record, _ bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[period]; ok {
		t.status.Periods[i].Completed = completed
	}
}

// FinishPeriod stores the final summary of a period.
func (t *Tracker) FinishPeriod(period int, summary paper.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[period]; ok {
		s := summary
		t.status.Periods[i].Done = true
		t.status.Periods[i].Summary = &s
	}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.status
	out.Periods = make([]PeriodStatus, len(t.status.Periods))
	copy(out.Periods, t.status.Periods)
	return out
}
