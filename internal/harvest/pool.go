package harvest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/metrics"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

const maxTitleDisplay = 60

// runTasks fans the locations out to a fixed pool of workers. Workers only
// send outcomes; this goroutine is the sole writer of pc and appends in
// completion order, pausing TaskDelay after each collected result.
func (o *Orchestrator) runTasks(ctx context.Context, period int, locations []string, pc *paper.PeriodCollection) {
	tasks := make(chan string)
	outcomes := make(chan outcome, len(locations))

	workers := o.cfg.Concurrency
	if workers > len(locations) {
		workers = len(locations)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range tasks {
				metrics.IncActiveWorkers()
				outcomes <- o.runTask(ctx, period, loc)
				metrics.DecActiveWorkers()
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, loc := range locations {
			select {
			case tasks <- loc:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for out := range outcomes {
		completed++
		o.collect(period, completed, len(locations), out, pc)
		if ctx.Err() == nil {
			// pacing only; a canceled context just drains the remaining outcomes
			_ = o.sleep(ctx, o.cfg.TaskDelay)
		}
	}
	// locations never dispatched before cancellation count as failed so that
	// Listed always equals Parsed+Failed
	if skipped := len(locations) - completed; skipped > 0 {
		for i := 0; i < skipped; i++ {
			pc.Fail()
		}
		o.logger.Warn("tasks skipped after cancellation",
			zap.Int("period", period), zap.Int("skipped", skipped))
	}
}

func (o *Orchestrator) collect(period, completed, total int, out outcome, pc *paper.PeriodCollection) {
	metrics.ObserveTask(period, out.state.String(), out.duration)
	progress := fmt.Sprintf("%d/%d", completed, total)

	if out.state != StateParsed {
		pc.Fail()
		o.logger.Warn("task failed",
			zap.Int("period", period),
			zap.String("progress", progress),
			zap.String("url", out.location),
			zap.Stringer("state", out.state),
			zap.Error(out.err),
		)
		o.progress.TaskDone(period, completed, total, paper.Record{}, false)
		return
	}

	pc.Add(out.record)
	o.logger.Info("paper parsed",
		zap.Int("period", period),
		zap.String("progress", progress),
		zap.String("title", DisplayTitle(out.record.Title)),
		zap.String("resources", ResourceStatus(out.record)),
	)
	o.progress.TaskDone(period, completed, total, out.record, true)
}

// DisplayTitle shortens long titles for progress output.
func DisplayTitle(title string) string {
	r := []rune(title)
	if len(r) <= maxTitleDisplay {
		return title
	}
	return string(r[:maxTitleDisplay]) + "..."
}

// ResourceStatus renders the resource kinds of rec as "[PDF, Slides]".
func ResourceStatus(rec paper.Record) string {
	labels := rec.ResourceLabels()
	if len(labels) == 0 {
		return "[No resources]"
	}
	return "[" + strings.Join(labels, ", ") + "]"
}
