package headless

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/crawler"
)

// Fallback fetches with a plain transport and re-fetches through a renderer
// when the detector flags the result as an unrendered shell.
type Fallback struct {
	primary  crawler.Fetcher
	renderer crawler.Fetcher
	detector *Detector
	logger   *zap.Logger
}

// NewFallback wires a primary transport to a renderer.
func NewFallback(primary, renderer crawler.Fetcher, detector *Detector, logger *zap.Logger) *Fallback {
	if detector == nil {
		detector = NewDetector(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, renderer: renderer, detector: detector, logger: logger}
}

// Fetch implements crawler.Fetcher. Primary errors are returned as is; a
// renderer failure falls back to the primary response.
func (f *Fallback) Fetch(ctx context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	resp, err := f.primary.Fetch(ctx, req)
	if err != nil || !f.detector.NeedsRender(resp.StatusCode, resp.Body) {
		return resp, err
	}
	f.logger.Debug("rendering page in headless browser", zap.String("url", req.URL))
	rendered, rerr := f.renderer.Fetch(ctx, req)
	if rerr != nil {
		if ctx.Err() != nil {
			return crawler.FetchResponse{}, ctx.Err()
		}
		f.logger.Warn("headless render failed, using plain response", zap.String("url", req.URL), zap.Error(rerr))
		return resp, nil
	}
	rendered.Attempts += resp.Attempts
	return rendered, nil
}
