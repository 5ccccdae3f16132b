package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// Extractor turns a parsed detail page into a paper.Record.
type Extractor struct {
	rules Rules
}

// New builds an Extractor with the given heuristics.
func New(rules Rules) *Extractor {
	return &Extractor{rules: rules.withDefaults()}
}

// Rules returns the effective heuristics.
func (e *Extractor) Rules() Rules {
	return e.rules
}

// Extract runs the heuristic passes in order. The period and location come
// from the caller and are never inferred from the page. If no content scope
// exists only the title is filled in.
func (e *Extractor) Extract(doc *goquery.Document, period int, location string) paper.Record {
	rec := paper.New(period, location)
	if doc == nil {
		return rec
	}

	rec.Title = title(doc)

	scope := contentScope(doc)
	if scope == nil {
		return rec
	}

	if authors, affiliations := e.authors(scope); len(authors) > 0 {
		rec.Authors = authors
		rec.Affiliations = affiliations
	}
	rec.Abstract = e.abstract(scope)
	rec.Links = e.links(scope)
	return rec
}

func title(doc *goquery.Document) string {
	for _, selector := range []string{"h1.entry-title", "h1"} {
		if h := doc.Find(selector).First(); h.Length() > 0 {
			return textOf(h)
		}
	}
	return ""
}

// contentScope locates the region holding the paper's own markup.
func contentScope(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"div.entry-content", "article"} {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}
