package report

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// Writer persists checkpoints and final reports to a blob store.
type Writer struct {
	store    crawler.BlobStore
	basename string
	formats  []Format
	markdown MarkdownOptions
	logger   *zap.Logger
}

// WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithFormats selects the formats WriteHarvest and WriteClassification emit.
func WithFormats(formats ...Format) WriterOption {
	return func(w *Writer) {
		if len(formats) > 0 {
			w.formats = formats
		}
	}
}

// WithMarkdownOptions sets the labels used in Markdown output.
func WithMarkdownOptions(opts MarkdownOptions) WriterOption {
	return func(w *Writer) {
		w.markdown = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter builds a Writer that names objects after basename.
func NewWriter(store crawler.BlobStore, basename string, opts ...WriterOption) *Writer {
	if basename == "" {
		basename = "papers"
	}
	w := &Writer{
		store:    store,
		basename: basename,
		formats:  DefaultFormats(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SavePeriod writes the checkpoint for one finished period as
// <basename>_<period>.json.
func (w *Writer) SavePeriod(ctx context.Context, pc paper.PeriodCollection) error {
	var buf bytes.Buffer
	if err := WriteHarvestJSON(&buf, map[int][]paper.Record{pc.Period: pc.Records}); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%d.json", w.basename, pc.Period)
	uri, err := w.store.PutObject(ctx, name, FormatJSON.ContentType(), buf.Bytes())
	if err != nil {
		return fmt.Errorf("save period %d: %w", pc.Period, err)
	}
	w.logger.Info("period checkpoint saved", zap.Int("period", pc.Period), zap.String("uri", uri))
	return nil
}

// WriteHarvest writes <basename>_all.<ext> for every configured format and
// returns the stored URIs.
func (w *Writer) WriteHarvest(ctx context.Context, combined paper.Combined) ([]string, error) {
	return w.writeAll(ctx, w.basename+"_all", func(buf *bytes.Buffer, f Format) error {
		switch f {
		case FormatJSON:
			return WriteHarvestJSON(buf, combined.ByPeriod())
		case FormatYAML:
			return WriteHarvestYAML(buf, combined.ByPeriod())
		case FormatCSV:
			return WriteHarvestCSV(buf, combined)
		case FormatMarkdown:
			return WriteHarvestMarkdown(buf, combined, w.markdown)
		}
		return fmt.Errorf("unsupported format %q", f)
	})
}

// WriteClassification writes <name>.<ext> for every configured format and
// returns the stored URIs.
func (w *Writer) WriteClassification(ctx context.Context, res classify.Result, name string) ([]string, error) {
	return w.writeAll(ctx, name, func(buf *bytes.Buffer, f Format) error {
		switch f {
		case FormatJSON:
			return WriteClassificationJSON(buf, res)
		case FormatYAML:
			return WriteClassificationYAML(buf, res)
		case FormatCSV:
			return WriteClassificationCSV(buf, res)
		case FormatMarkdown:
			return WriteClassificationMarkdown(buf, res, w.markdown)
		}
		return fmt.Errorf("unsupported format %q", f)
	})
}

func (w *Writer) writeAll(ctx context.Context, stem string, render func(*bytes.Buffer, Format) error) ([]string, error) {
	uris := make([]string, 0, len(w.formats))
	for _, f := range w.formats {
		var buf bytes.Buffer
		if err := render(&buf, f); err != nil {
			return uris, fmt.Errorf("render %s: %w", f, err)
		}
		name := path.Clean(stem + "." + f.Extension())
		uri, err := w.store.PutObject(ctx, name, f.ContentType(), buf.Bytes())
		if err != nil {
			return uris, fmt.Errorf("store %s: %w", name, err)
		}
		w.logger.Info("report written", zap.String("format", string(f)), zap.String("uri", uri))
		uris = append(uris, uri)
	}
	return uris, nil
}
