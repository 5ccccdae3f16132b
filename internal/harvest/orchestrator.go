package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/clock/system"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/extract"
	"github.com/JakeFAU/paper-harvester/internal/listing"
	"github.com/JakeFAU/paper-harvester/internal/metrics"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// DefaultConcurrency is the worker pool size used when none is configured.
const DefaultConcurrency = 8

const tracerName = "github.com/JakeFAU/paper-harvester/internal/harvest"

// Config controls a crawl.
type Config struct {
	Targets       []paper.Target
	DetailPattern string
	Concurrency   int
	TaskDelay     time.Duration
	PeriodDelay   time.Duration
}

// Checkpointer persists a finished period so partial progress survives a
// later failure.
type Checkpointer interface {
	SavePeriod(ctx context.Context, pc paper.PeriodCollection) error
}

// Progress receives per-period and per-task progress notifications. Calls
// are made from the collector only, never concurrently.
type Progress interface {
	StartPeriod(period, total int)
	TaskDone(period, completed, total int, rec paper.Record, ok bool)
	FinishPeriod(period int, summary paper.Summary)
}

// Orchestrator runs the crawl described by Config.
type Orchestrator struct {
	cfg         Config
	fetcher     crawler.Fetcher
	resolver    *listing.Resolver
	extractor   *extract.Extractor
	logger      *zap.Logger
	checkpoints []Checkpointer
	progress    Progress
	archive     crawler.BlobStore
	hasher      crawler.Hasher
	archivePath string
	clock       crawler.Clock
	runID       string
	sleep       func(ctx context.Context, d time.Duration) error
	tracer      trace.Tracer
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCheckpointers registers sinks called after every non-empty period.
func WithCheckpointers(cps ...Checkpointer) Option {
	return func(o *Orchestrator) {
		for _, cp := range cps {
			if cp != nil {
				o.checkpoints = append(o.checkpoints, cp)
			}
		}
	}
}

// WithProgress sets the progress hook.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithPageArchive stores every fetched detail page under prefix, keyed by
// content hash.
func WithPageArchive(store crawler.BlobStore, hasher crawler.Hasher, prefix string) Option {
	return func(o *Orchestrator) {
		o.archive = store
		o.hasher = hasher
		o.archivePath = prefix
	}
}

// WithClock replaces the wall clock.
func WithClock(c crawler.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRunID tags log lines and archived pages with id.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}

// WithTracerProvider traces the crawl, each period, and each task with tp
// instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithSleeper replaces the pacing sleep, mainly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// New builds an Orchestrator. Retries, rate limiting, and timeouts are the
// fetcher's concern.
func New(cfg Config, fetcher crawler.Fetcher, extractor *extract.Extractor, logger *zap.Logger, opts ...Option) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if extractor == nil {
		extractor = extract.New(extract.DefaultRules())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		resolver:  listing.NewResolver(cfg.DetailPattern),
		extractor: extractor,
		logger:    logger,
		progress:  noopProgress{},
		clock:     system.New(),
		sleep:     crawler.Sleep,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID != "" {
		o.logger = o.logger.With(zap.String("run_id", o.runID))
	}
	return o
}

// Crawl processes every target in order, one period at a time. Task and
// listing failures are absorbed into the summaries; an error is returned only
// when ctx ends, together with the periods finished so far.
func (o *Orchestrator) Crawl(ctx context.Context) (combined paper.Combined, err error) {
	ctx, span := o.tracer.Start(ctx, "harvest.crawl", trace.WithAttributes(
		attribute.String("run_id", o.runID),
		attribute.Int("periods", len(o.cfg.Targets)),
	))
	defer func() {
		span.SetAttributes(attribute.Int("papers", combined.Total()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for i, target := range o.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return combined, fmt.Errorf("crawl canceled before period %d: %w", target.Period, err)
		}
		combined.Append(o.crawlPeriod(ctx, target))
		if err := ctx.Err(); err != nil {
			return combined, fmt.Errorf("crawl canceled during period %d: %w", target.Period, err)
		}
		if i < len(o.cfg.Targets)-1 {
			if err := o.sleep(ctx, o.cfg.PeriodDelay); err != nil {
				return combined, fmt.Errorf("crawl canceled after period %d: %w", target.Period, err)
			}
		}
	}
	return combined, nil
}

func (o *Orchestrator) crawlPeriod(ctx context.Context, target paper.Target) paper.PeriodCollection {
	pc := paper.NewPeriodCollection(target.Period)
	logger := o.logger.With(zap.Int("period", target.Period))
	started := o.clock.Now()

	ctx, span := o.tracer.Start(ctx, "harvest.period", trace.WithAttributes(
		attribute.Int("period", target.Period),
		attribute.String("listing_url", target.ListingURL),
	))
	defer func() {
		span.SetAttributes(
			attribute.Int("listed", pc.Summary.Listed),
			attribute.Int("parsed", pc.Summary.Parsed),
			attribute.Int("failed", pc.Summary.Failed),
		)
		span.End()
	}()

	locations, err := o.resolveListing(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		pc.Summary.ListingFailed = true
		pc.Finalize()
		metrics.ObserveListing(target.Period, "failed")
		logger.Error("listing fetch failed; skipping period",
			zap.String("url", target.ListingURL), zap.Error(err))
		return pc
	}
	pc.Summary.Listed = len(locations)
	if len(locations) == 0 {
		pc.Finalize()
		metrics.ObserveListing(target.Period, "empty")
		logger.Warn("listing has no detail pages", zap.String("url", target.ListingURL))
		return pc
	}
	metrics.ObserveListing(target.Period, "ok")
	logger.Info("listing resolved",
		zap.Int("papers", len(locations)), zap.Int("workers", o.cfg.Concurrency))

	o.progress.StartPeriod(target.Period, len(locations))
	o.runTasks(ctx, target.Period, locations, &pc)
	summary := pc.Finalize()
	o.progress.FinishPeriod(target.Period, summary)

	logger.Info("period finished",
		zap.Int("parsed", summary.Parsed),
		zap.Int("listed", summary.Listed),
		zap.Int("failed", summary.Failed),
		zap.Int("with_abstract", summary.WithAbstract),
		zap.Int("with_pdf", summary.WithPDF),
		zap.Int("with_slides", summary.WithSlides),
		zap.Int("with_video", summary.WithVideo),
		zap.Duration("elapsed", o.clock.Now().Sub(started)),
	)
	o.checkpoint(ctx, pc, logger)
	return pc
}

func (o *Orchestrator) resolveListing(ctx context.Context, target paper.Target) ([]string, error) {
	resp, err := o.fetcher.Fetch(ctx, crawler.FetchRequest{URL: target.ListingURL})
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	base := resp.URL
	if base == "" {
		base = target.ListingURL
	}
	doc, err := parseDocument(resp.Body, base)
	if err != nil {
		return nil, err
	}
	return o.resolver.Resolve(doc), nil
}

// checkpoint hands pc to every sink. Sinks run detached from cancellation so an
// interrupted period still lands its partial results.
func (o *Orchestrator) checkpoint(ctx context.Context, pc paper.PeriodCollection, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	for _, cp := range o.checkpoints {
		if err := cp.SavePeriod(ctx, pc); err != nil {
			logger.Error("checkpoint failed", zap.String("sink", fmt.Sprintf("%T", cp)), zap.Error(err))
		}
	}
}

// parseDocument builds a goquery document whose URL is location, so relative
// links can be resolved.
func parseDocument(body []byte, location string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	if u, err := url.Parse(location); err == nil {
		doc.Url = u
	}
	return doc, nil
}

type noopProgress struct{}

func (noopProgress) StartPeriod(int, int)                       {}
func (noopProgress) TaskDone(int, int, int, paper.Record, bool) {}
func (noopProgress) FinishPeriod(int, paper.Summary)            {}

