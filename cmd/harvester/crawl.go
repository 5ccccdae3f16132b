package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/api"
	"github.com/JakeFAU/paper-harvester/internal/config"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/extract"
	collyfetcher "github.com/JakeFAU/paper-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/paper-harvester/internal/fetcher/headless"
	restyfetcher "github.com/JakeFAU/paper-harvester/internal/fetcher/resty"
	"github.com/JakeFAU/paper-harvester/internal/harvest"
	"github.com/JakeFAU/paper-harvester/internal/hash/sha256"
	"github.com/JakeFAU/paper-harvester/internal/id/uuid"
	"github.com/JakeFAU/paper-harvester/internal/metrics"
	"github.com/JakeFAU/paper-harvester/internal/notify"
	pubsubnotify "github.com/JakeFAU/paper-harvester/internal/notify/pubsub"
	"github.com/JakeFAU/paper-harvester/internal/policy/ratelimit"
	"github.com/JakeFAU/paper-harvester/internal/progress"
	"github.com/JakeFAU/paper-harvester/internal/report"
	"github.com/JakeFAU/paper-harvester/internal/storage"
	"github.com/JakeFAU/paper-harvester/internal/storage/postgres"
	"github.com/JakeFAU/paper-harvester/internal/telemetry"
)

type crawlOptions struct {
	periods     []int
	showBar     bool
	runID       string
	archivePage bool
}

func newCrawlCmd(a *app) *cobra.Command {
	var opts crawlOptions
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest paper metadata for the configured periods",
		Long: `Processes every configured period in order: resolves the listing page,
fetches detail pages with a bounded worker pool, checkpoints each finished
period, and writes the combined reports. Interrupting the run still writes
the periods finished so far.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), a, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().IntSliceVar(&opts.periods, "period", nil, "only crawl these periods (repeatable)")
	cmd.Flags().BoolVar(&opts.showBar, "progress", false, "draw a progress bar instead of per-paper lines")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run identifier (UUID); generated when empty")
	cmd.Flags().BoolVar(&opts.archivePage, "archive-pages", false, "store raw detail pages (overrides storage.archive_pages)")
	return cmd
}

func runCrawl(ctx context.Context, a *app, opts crawlOptions, stdout, stderr io.Writer) error {
	cfg, err := a.cfg.SelectPeriods(opts.periods)
	if err != nil {
		return err
	}
	runID, err := resolveRunID(opts.runID)
	if err != nil {
		return err
	}
	logger := a.logger.With(zap.String("run_id", runID))

	store, closeStore, err := storage.Open(ctx, storage.Config{
		Backend:   cfg.Storage.Backend,
		BaseDir:   cfg.Storage.BaseDir,
		GCSBucket: cfg.Storage.GCSBucket,
		Prefix:    cfg.Storage.Prefix,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Warn("close storage failed", zap.Error(cerr))
		}
	}()

	writer := report.NewWriter(store, cfg.Output.Basename,
		report.WithFormats(cfg.OutputFormats()...),
		report.WithMarkdownOptions(report.MarkdownOptions{Venue: cfg.Output.Venue, Topic: cfg.Classify.Topic}),
		report.WithLogger(logger),
	)
	checkpointers := []harvest.Checkpointer{writer}

	if cfg.DB.DSN != "" {
		pg, err := openPaperStore(ctx, cfg.DB, runID, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		checkpointers = append(checkpointers, pg)
	}

	if cfg.Notify.PubSubTopic != "" {
		pub, err := pubsubnotify.Open(ctx, pubsubnotify.Config{
			Project: cfg.Notify.PubSubProject,
			Topic:   cfg.Notify.PubSubTopic,
		})
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		checkpointers = append(checkpointers, notify.NewNotifier(pub,
			notify.WithRunID(runID), notify.WithLogger(logger.Named("notify"))))
	}

	var orchOpts []harvest.Option
	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
			Enabled:     true,
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
		}, logger)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.WithoutCancel(ctx)) }()
		orchOpts = append(orchOpts, harvest.WithTracerProvider(tp))
	}

	tracker := api.NewTracker(nil)
	if cfg.Metrics.Addr != "" {
		metrics.Init()
		serverCtx, cancelServer := context.WithCancel(ctx)
		defer cancelServer()
		srv := api.NewServer(tracker, logger.Named("api"))
		go func() {
			if err := srv.ListenAndServe(serverCtx, cfg.Metrics.Addr); err != nil {
				logger.Error("operator server failed", zap.Error(err))
			}
		}()
	}

	var display progress.Reporter = progress.NewLines(stdout, cfg.Output.Venue)
	if opts.showBar {
		display = progress.NewBar(stderr, cfg.Output.Venue)
	}

	orchOpts = append(orchOpts,
		harvest.WithCheckpointers(checkpointers...),
		harvest.WithProgress(progress.NewHub(tracker, display)),
		harvest.WithRunID(runID),
	)
	if cfg.Storage.ArchivePages || opts.archivePage {
		orchOpts = append(orchOpts, harvest.WithPageArchive(store, sha256.New(), cfg.Storage.ArchivePrefix))
	}

	fetcher, releaseFetcher, err := buildFetcher(cfg.HTTP, logger)
	if err != nil {
		return err
	}
	defer func() { _ = releaseFetcher() }()

	orch := harvest.New(harvest.Config{
		Targets:       cfg.Harvest.Periods,
		DetailPattern: cfg.Harvest.DetailPathPattern,
		Concurrency:   cfg.Harvest.Concurrency,
		TaskDelay:     cfg.Harvest.TaskDelay,
		PeriodDelay:   cfg.Harvest.PeriodDelay,
	}, fetcher, extract.New(cfg.Extract), logger, orchOpts...)

	tracker.Begin(runID)
	combined, crawlErr := orch.Crawl(ctx)
	tracker.End(crawlErr)

	// partial results are still written after an interrupt
	writeCtx := context.WithoutCancel(ctx)
	uris, err := writer.WriteHarvest(writeCtx, combined)
	if err != nil {
		return errors.Join(crawlErr, fmt.Errorf("write reports: %w", err))
	}

	fmt.Fprintf(stdout, "\nHarvested %d papers across %d periods (run %s)\n", combined.Total(), len(combined.Periods), runID)
	report.RenderHarvestSummary(stdout, combined)
	for _, uri := range uris {
		fmt.Fprintf(stdout, "  wrote %s\n", uri)
	}
	return crawlErr
}

func resolveRunID(flagValue string) (string, error) {
	if flagValue != "" {
		if !uuid.Valid(flagValue) {
			return "", fmt.Errorf("--run-id %q is not a UUID", flagValue)
		}
		return flagValue, nil
	}
	return uuid.New().NewID()
}

func openPaperStore(ctx context.Context, db config.DBConfig, runID string, logger *zap.Logger) (*postgres.PaperStore, error) {
	pg, err := postgres.NewPaperStore(ctx, postgres.Config{
		DSN:      db.DSN,
		Table:    db.Table,
		MaxConns: db.MaxConns,
	}, postgres.WithRunID(runID), postgres.WithLogger(logger.Named("postgres")))
	if err != nil {
		return nil, err
	}
	if db.AutoMigrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

// buildFetcher assembles transport, retry, rendering, and per-domain pacing.
// Colly and chromedp make one attempt per call and are wrapped in
// RetryingFetcher; resty retries natively. The returned func releases the
// browser when one was started.
func buildFetcher(cfg config.HTTPConfig, logger *zap.Logger) (crawler.Fetcher, func() error, error) {
	noop := func() error { return nil }
	retrying := func(next crawler.Fetcher) crawler.Fetcher {
		return crawler.NewRetryingFetcher(next,
			crawler.NewLinearRetryPolicy(cfg.MaxAttempts, cfg.Backoff),
			crawler.WithRetryLogger(logger.Named("fetch")),
			crawler.WithAttemptObserver(observeAttempt),
		)
	}

	var renderer *headless.Fetcher
	if cfg.Backend == config.BackendChromedp || cfg.Headless.Fallback {
		var err error
		renderer, err = headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: cfg.Timeout,
			WaitSelector:      cfg.Headless.WaitSelector,
			Settle:            cfg.Headless.Settle,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("start headless renderer: %w", err)
		}
	}

	var base crawler.Fetcher
	switch cfg.Backend {
	case config.BackendChromedp:
		base = retrying(renderer)
	case config.BackendResty:
		base = restyfetcher.New(restyfetcher.Config{
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.Timeout,
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
		}, restyfetcher.WithAttemptObserver(observeAttempt))
	default:
		base = retrying(collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.UserAgent,
			RespectRobots: cfg.RespectRobots,
			Timeout:       cfg.Timeout,
		}))
	}
	if cfg.Headless.Fallback && cfg.Backend != config.BackendChromedp {
		detector := headless.NewDetector(cfg.Headless.BodyThreshold, cfg.Headless.Markers...)
		base = headless.NewFallback(base, renderer, detector, logger.Named("headless"))
	}

	release := noop
	if renderer != nil {
		release = renderer.Close
	}
	if cfg.RateLimitRPS <= 0 {
		return base, release, nil
	}
	return ratelimit.Wrap(base, ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.RateLimitRPS,
		DefaultBurst: cfg.RateLimitBurst,
	})), release, nil
}

func observeAttempt(url string, _ int, err error) {
	metrics.ObserveFetchAttempt(url, err)
}
