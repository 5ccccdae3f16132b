package harvest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/metrics"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// ErrEmptyTitle marks a detail page that parsed but yielded no title.
var ErrEmptyTitle = errors.New("extracted record has no title")

// TaskState is the lifecycle state of one detail-page task.
type TaskState int

// Task states. A task only moves forward: Pending, Fetching, then Parsed or Failed.
const (
	StatePending TaskState = iota
	StateFetching
	StateParsed
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateParsed:
		return "parsed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// outcome is the single message a task emits to the collector.
type outcome struct {
	location string
	state    TaskState
	record   paper.Record
	err      error
	duration time.Duration
}

type task struct {
	period   int
	location string
	state    TaskState
	logger   *zap.Logger
}

func (t *task) transition(next TaskState) {
	t.logger.Debug("task transition",
		zap.String("url", t.location),
		zap.Stringer("from", t.state),
		zap.Stringer("state", next),
	)
	t.state = next
}

// runTask fetches, parses, and extracts one detail page. It never touches
// shared state; everything it learns goes into the returned outcome.
func (o *Orchestrator) runTask(ctx context.Context, period int, location string) outcome {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "harvest.task", trace.WithAttributes(
		attribute.Int("period", period),
		attribute.String("url", location),
	))
	defer span.End()

	t := &task{
		period:   period,
		location: location,
		state:    StatePending,
		logger:   o.logger.With(zap.Int("period", period)),
	}
	fail := func(err error) outcome {
		t.transition(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, StateFailed.String())
		return outcome{location: location, state: StateFailed, err: err, duration: time.Since(start)}
	}

	t.transition(StateFetching)
	resp, err := o.fetcher.Fetch(ctx, crawler.FetchRequest{URL: location})
	if err != nil {
		return fail(fmt.Errorf("fetch detail page: %w", err))
	}
	metrics.ObserveBytes(location, len(resp.Body))
	o.archivePage(ctx, t, resp)

	doc, err := parseDocument(resp.Body, location)
	if err != nil {
		return fail(err)
	}
	rec := o.extractor.Extract(doc, period, location)
	if !rec.Valid() {
		return fail(ErrEmptyTitle)
	}

	t.transition(StateParsed)
	return outcome{location: location, state: StateParsed, record: rec, duration: time.Since(start)}
}

// archivePage stores the raw page when an archive is configured. Archive
// failures are logged and never fail the task.
func (o *Orchestrator) archivePage(ctx context.Context, t *task, resp crawler.FetchResponse) {
	if o.archive == nil || o.hasher == nil {
		return
	}
	hash, err := o.hasher.Hash(resp.Body)
	if err != nil {
		t.logger.Warn("hash page failed", zap.String("url", t.location), zap.Error(err))
		return
	}
	blobPath := o.buildBlobPath(t.period, hash)
	uri, err := o.archive.PutObject(ctx, blobPath, "text/html; charset=utf-8", resp.Body)
	if err != nil {
		t.logger.Warn("archive page failed", zap.String("url", t.location), zap.Error(err))
		return
	}
	t.logger.Debug("page archived", zap.String("url", t.location), zap.String("uri", uri))
}

func (o *Orchestrator) buildBlobPath(period int, hash string) string {
	parts := []string{strings.Trim(o.archivePath, "/"), o.runID, strconv.Itoa(period), hash + ".html"}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}
