// Package paper defines the harvested paper records and their per-period aggregates.
package paper

import (
	"sort"
)

// Links holds the optional resource URLs found on a detail page.
type Links struct {
	PDF    string `json:"pdf_url" yaml:"pdf_url"`
	Slides string `json:"slides_url" yaml:"slides_url"`
	Video  string `json:"video_url" yaml:"video_url"`
	Code   string `json:"code_url" yaml:"code_url"`
}

// Record is the metadata extracted from one paper detail page.
type Record struct {
	Period       int      `json:"period" yaml:"period"`
	Title        string   `json:"title" yaml:"title"`
	Authors      []string `json:"authors" yaml:"authors"`
	Affiliations []string `json:"affiliations" yaml:"affiliations"`
	Abstract     string   `json:"abstract" yaml:"abstract"`
	Links        `yaml:",inline"`
	DetailURL    string `json:"detail_url" yaml:"detail_url"`
}

// New returns an empty record bound to a period and detail location.
func New(period int, detailURL string) Record {
	return Record{
		Period:       period,
		Authors:      []string{},
		Affiliations: []string{},
		DetailURL:    detailURL,
	}
}

// Valid reports whether the record carries a title and may be retained.
func (r Record) Valid() bool {
	return r.Title != ""
}

// ResourceLabels lists the resource kinds present on the record, in display order.
func (r Record) ResourceLabels() []string {
	var out []string
	if r.PDF != "" {
		out = append(out, "PDF")
	}
	if r.Slides != "" {
		out = append(out, "Slides")
	}
	if r.Video != "" {
		out = append(out, "Video")
	}
	if r.Code != "" {
		out = append(out, "Code")
	}
	return out
}

// Target names one period and the listing page enumerating its papers.
type Target struct {
	Period     int    `mapstructure:"period" json:"period" yaml:"period"`
	ListingURL string `mapstructure:"listing_url" json:"listing_url" yaml:"listing_url"`
}

// SortByDetailURL orders records by detail location for consumers that need a
// stable order independent of task completion.
func SortByDetailURL(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DetailURL < records[j].DetailURL
	})
}
