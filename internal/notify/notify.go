// Package notify announces finished periods to downstream consumers.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/clock/system"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// EventPeriodFinished is the only event type emitted today.
const EventPeriodFinished = "period.finished"

// Event describes one checkpointed period.
type Event struct {
	Type       string        `json:"type"`
	RunID      string        `json:"run_id,omitempty"`
	Period     int           `json:"period"`
	Papers     int           `json:"papers"`
	Summary    paper.Summary `json:"summary"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Publisher delivers events and returns the broker-assigned message ID.
type Publisher interface {
	Publish(ctx context.Context, event Event) (string, error)
}

// Notifier adapts a Publisher to the orchestrator's checkpoint hook.
type Notifier struct {
	publisher Publisher
	runID     string
	clock     crawler.Clock
	logger    *zap.Logger
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithRunID stamps events with the run identifier.
func WithRunID(id string) Option {
	return func(n *Notifier) { n.runID = id }
}

// WithClock replaces the wall clock.
func WithClock(c crawler.Clock) Option {
	return func(n *Notifier) {
		if c != nil {
			n.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNotifier builds a Notifier.
func NewNotifier(p Publisher, opts ...Option) *Notifier {
	n := &Notifier{publisher: p, clock: system.New(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SavePeriod publishes a period.finished event for pc.
func (n *Notifier) SavePeriod(ctx context.Context, pc paper.PeriodCollection) error {
	ev := Event{
		Type:       EventPeriodFinished,
		RunID:      n.runID,
		Period:     pc.Period,
		Papers:     len(pc.Records),
		Summary:    pc.Summary,
		FinishedAt: n.clock.Now(),
	}
	id, err := n.publisher.Publish(ctx, ev)
	if err != nil {
		return fmt.Errorf("notify period %d: %w", pc.Period, err)
	}
	n.logger.Info("period event published", zap.Int("period", pc.Period), zap.String("message_id", id))
	return nil
}
