package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// RenderHarvestSummary prints per-period completeness counters.
func RenderHarvestSummary(w io.Writer, combined paper.Combined) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Period", "Listed", "Parsed", "Failed", "Authors", "Affiliations", "Abstract", "PDF", "Slides", "Video", "Code"})
	for _, pc := range combined.Periods {
		s := pc.Summary
		listed := any(s.Listed)
		if s.ListingFailed {
			listed = "listing failed"
		}
		t.AppendRow(table.Row{
			pc.Period, listed, s.Parsed, s.Failed,
			s.WithAuthors, s.WithAffiliations, s.WithAbstract,
			s.WithPDF, s.WithSlides, s.WithVideo, s.WithCode,
		})
	}
	total := combined.Summary()
	t.AppendFooter(table.Row{
		"Total", total.Listed, total.Parsed, total.Failed,
		percent(total.WithAuthors, total.Parsed), percent(total.WithAffiliations, total.Parsed),
		percent(total.WithAbstract, total.Parsed), percent(total.WithPDF, total.Parsed),
		percent(total.WithSlides, total.Parsed), percent(total.WithVideo, total.Parsed),
		percent(total.WithCode, total.Parsed),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderClassificationSummary prints per-period relevance counts and the top
// matched keywords.
func RenderClassificationSummary(w io.Writer, res classify.Result, topN int) {
	stats := res.Statistics
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Period", "Filtered", "Total", "Share"})
	for _, p := range res.Periods() {
		ps := stats.ByPeriod[p]
		t.AppendRow(table.Row{p, ps.Filtered, ps.Total, percent(ps.Filtered, ps.Total)})
	}
	t.AppendFooter(table.Row{"Total", stats.FilteredPapers, stats.TotalPapers, percent(stats.FilteredPapers, stats.TotalPapers)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	top := stats.TopKeywords(topN)
	if len(top) == 0 {
		return
	}
	kw := table.NewWriter()
	kw.SetOutputMirror(w)
	kw.AppendHeader(table.Row{"Keyword", "Papers"})
	for _, kc := range top {
		kw.AppendRow(table.Row{kc.Keyword, kc.Count})
	}
	kw.SetStyle(table.StyleRounded)
	kw.Render()
}
