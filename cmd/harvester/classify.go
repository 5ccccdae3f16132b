package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/report"
	"github.com/JakeFAU/paper-harvester/internal/storage"
)

const classifyTopN = 20

type classifyOptions struct {
	input string
}

func newClassifyCmd(a *app) *cobra.Command {
	var opts classifyOptions
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Filter a harvested collection by the configured keyword taxonomy",
		Long: `Reads a combined harvest JSON file, keeps the papers whose title or
abstract mentions any configured keyword, and writes the filtered papers with
per-period and per-keyword statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "harvest JSON to classify (default <storage.base_dir>/<output.basename>_all.json)")
	return cmd
}

func runClassify(ctx context.Context, a *app, opts classifyOptions, stdout io.Writer) error {
	cfg := a.cfg
	input := opts.input
	if input == "" {
		input = filepath.Join(cfg.Storage.BaseDir, cfg.Output.Basename+"_all.json")
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open harvest: %w", err)
	}
	combined, err := report.ReadHarvestJSON(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read harvest %s: %w", input, err)
	}

	taxonomy, err := classify.NewTaxonomy(cfg.Classify.Keywords)
	if err != nil {
		return err
	}
	res := classify.New(taxonomy, a.logger.Named("classify")).Classify(combined)

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
			a.logger.Warn("close storage failed", zap.Error(cerr))
		}
	}()

	writer := report.NewWriter(store, cfg.Output.Basename,
		report.WithFormats(cfg.OutputFormats()...),
		report.WithMarkdownOptions(report.MarkdownOptions{Venue: cfg.Output.Venue, Topic: cfg.Classify.Topic}),
		report.WithLogger(a.logger),
	)
	uris, err := writer.WriteClassification(ctx, res, cfg.Classify.Basename)
	if err != nil {
		return fmt.Errorf("write classification: %w", err)
	}

	fmt.Fprintf(stdout, "Classified %d papers from %s\n", res.Statistics.TotalPapers, input)
	report.RenderClassificationSummary(stdout, res, classifyTopN)
	for _, uri := range uris {
		fmt.Fprintf(stdout, "  wrote %s\n", uri)
	}
	return nil
}
