package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

const (
	harvestListLimit        = 5
	harvestAbstractLimit    = 400
	classifyListLimit       = 3
	classifyAbstractLimit   = 500
	classifyTopKeywordLimit = 20
)

// MarkdownOptions labels the rendered documents.
type MarkdownOptions struct {
	// Venue prefixes period headings, e.g. "NDSS 2025".
	Venue string
	// Topic names the classification report, e.g. "Software Supply Chain".
	Topic string
}

func (o MarkdownOptions) withDefaults() MarkdownOptions {
	if o.Venue == "" {
		o.Venue = "NDSS"
	}
	if o.Topic == "" {
		o.Topic = "Relevant"
	}
	return o
}

type mdBuilder struct {
	strings.Builder
}

func (b *mdBuilder) line(format string, args ...any) {
	fmt.Fprintf(&b.Builder, format, args...)
	b.WriteByte('\n')
}

func (b *mdBuilder) blank() {
	b.WriteByte('\n')
}

// WriteHarvestMarkdown renders the full harvest, newest period first.
func WriteHarvestMarkdown(w io.Writer, combined paper.Combined, opts MarkdownOptions) error {
	opts = opts.withDefaults()
	var b mdBuilder
	b.line("# %s Papers", opts.Venue)
	b.blank()
	b.line("Total: **%d** papers collected", combined.Total())
	b.blank()

	for _, pc := range newestFirst(combined) {
		b.line("## %s %d (%d papers)", opts.Venue, pc.Period, len(pc.Records))
		b.blank()
		for i, r := range pc.Records {
			b.line("### %d. %s", i+1, r.Title)
			b.blank()
			if len(r.Authors) > 0 {
				authors := strings.Join(firstN(r.Authors, harvestListLimit), ", ")
				if len(r.Authors) > harvestListLimit {
					authors += fmt.Sprintf(" _et al. (%d total)_", len(r.Authors))
				}
				b.line("**Authors:** %s", authors)
				b.blank()
			}
			if len(r.Affiliations) > 0 {
				b.line("**Affiliations:** %s", strings.Join(firstN(r.Affiliations, harvestListLimit), "; "))
				b.blank()
			}
			if r.Abstract != "" {
				b.line("**Abstract:** %s", truncate(r.Abstract, harvestAbstractLimit))
				b.blank()
			}
			if links := resourceLinks(r, true); len(links) > 0 {
				b.line("**Resources:** %s", strings.Join(links, " · "))
				b.blank()
			}
			b.line("---")
			b.blank()
		}
	}
	return flush(w, &b)
}

// WriteClassificationMarkdown renders statistics followed by every relevant
// record, newest period first.
func WriteClassificationMarkdown(w io.Writer, res classify.Result, opts MarkdownOptions) error {
	opts = opts.withDefaults()
	stats := res.Statistics
	var b mdBuilder
	b.line("# %s Papers", opts.Topic)
	b.blank()
	b.line("## Statistics")
	b.blank()
	b.line("- **Total papers analyzed:** %d", stats.TotalPapers)
	b.line("- **Filtered papers:** %d", stats.FilteredPapers)
	b.line("- **Percentage:** %s", percent(stats.FilteredPapers, stats.TotalPapers))
	b.blank()

	periods := res.Periods()
	b.line("### By Year")
	b.blank()
	byPeriod := table.NewWriter()
	byPeriod.AppendHeader(table.Row{"Year", "Filtered", "Total", "Share"})
	for _, p := range periods {
		ps := stats.ByPeriod[p]
		byPeriod.AppendRow(table.Row{p, ps.Filtered, ps.Total, percent(ps.Filtered, ps.Total)})
	}
	b.WriteString(byPeriod.RenderMarkdown())
	b.blank()
	b.blank()

	b.line("### Top Matched Keywords")
	b.blank()
	for _, kc := range stats.TopKeywords(classifyTopKeywordLimit) {
		b.line("- **%s**: %d papers", kc.Keyword, kc.Count)
	}
	b.blank()
	b.line("---")
	b.blank()

	for _, p := range periods {
		records := res.Filtered[p]
		if len(records) == 0 {
			continue
		}
		b.line("## %s %d (%d papers)", opts.Venue, p, len(records))
		b.blank()
		for i, r := range records {
			b.line("### %d. %s", i+1, r.Title)
			b.blank()
			b.line("**Matched Keywords:** %s", strings.Join(r.MatchedKeywords, ", "))
			b.blank()
			if len(r.Authors) > 0 {
				authors := strings.Join(firstN(r.Authors, classifyListLimit), ", ")
				if len(r.Authors) > classifyListLimit {
					authors += fmt.Sprintf(" et al. (%d total)", len(r.Authors))
				}
				b.line("**Authors:** %s", authors)
				b.blank()
			}
			if len(r.Affiliations) > 0 {
				b.line("**Affiliations:** %s", strings.Join(firstN(r.Affiliations, classifyListLimit), "; "))
				b.blank()
			}
			if r.Abstract != "" {
				b.line("**Abstract:** %s", truncate(r.Abstract, classifyAbstractLimit))
				b.blank()
			}
			if links := resourceLinks(r.Record, false); len(links) > 0 {
				b.line("**Resources:** %s", strings.Join(links, " | "))
				b.blank()
			}
			b.line("---")
			b.blank()
		}
	}
	return flush(w, &b)
}

func resourceLinks(r paper.Record, withDetail bool) []string {
	var out []string
	if withDetail && r.DetailURL != "" {
		out = append(out, fmt.Sprintf("[Details](%s)", r.DetailURL))
	}
	for _, l := range []struct{ label, url string }{
		{"PDF", r.PDF}, {"Slides", r.Slides}, {"Video", r.Video}, {"Code", r.Code},
	} {
		if l.url != "" {
			out = append(out, fmt.Sprintf("[%s](%s)", l.label, l.url))
		}
	}
	return out
}

func newestFirst(combined paper.Combined) []paper.PeriodCollection {
	out := append([]paper.PeriodCollection(nil), combined.Periods...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

func flush(w io.Writer, b *mdBuilder) error {
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
