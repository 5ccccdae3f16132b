// Package harvest drives a crawl: for each configured period it resolves the
// listing page, fans detail-page tasks out to a fixed worker pool, collects
// outcomes through a single collector, and checkpoints the finished period.
package harvest
