package progress

import (
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// Reporter receives orchestrator progress. The orchestrator calls it from a
// single goroutine.
type Reporter interface {
	StartPeriod(period, total int)
	TaskDone(period, completed, total int, rec paper.Record, ok bool)
	FinishPeriod(period int, summary paper.Summary)
}

// Hub forwards every update to its reporters synchronously, preserving the
// order the orchestrator produced.
type Hub struct {
	reporters []Reporter
}

// NewHub builds a Hub, skipping nil reporters.
func NewHub(reporters ...Reporter) *Hub {
	h := &Hub{}
	for _, r := range reporters {
		if r != nil {
			h.reporters = append(h.reporters, r)
		}
	}
	return h
}

// StartPeriod forwards to every reporter.
func (h *Hub) StartPeriod(period, total int) {
	for _, r := range h.reporters {
		r.StartPeriod(period, total)
	}
}

// TaskDone forwards to every reporter.
func (h *Hub) TaskDone(period, completed, total int, rec paper.Record, ok bool) {
	for _, r := range h.reporters {
		r.TaskDone(period, completed, total, rec, ok)
	}
}

// FinishPeriod forwards to every reporter.
func (h *Hub) FinishPeriod(period int, summary paper.Summary) {
	for _, r := range h.reporters {
		r.FinishPeriod(period, summary)
	}
}
