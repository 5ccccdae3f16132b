package paper

import "sort"

// Summary carries completeness counters for one period.
type Summary struct {
	Listed           int  `json:"listed" yaml:"listed"`
	Parsed           int  `json:"parsed" yaml:"parsed"`
	Failed           int  `json:"failed" yaml:"failed"`
	ListingFailed    bool `json:"listing_failed" yaml:"listing_failed"`
	WithAuthors      int  `json:"with_authors" yaml:"with_authors"`
	WithAffiliations int  `json:"with_affiliations" yaml:"with_affiliations"`
	WithAbstract     int  `json:"with_abstract" yaml:"with_abstract"`
	WithPDF          int  `json:"with_pdf" yaml:"with_pdf"`
	WithSlides       int  `json:"with_slides" yaml:"with_slides"`
	WithVideo        int  `json:"with_video" yaml:"with_video"`
	WithCode         int  `json:"with_code" yaml:"with_code"`
}

// Without returns how many parsed records lack a field counted by with.
func (s Summary) Without(with int) int {
	return s.Parsed - with
}

// Merge adds the counters of other into s.
func (s Summary) Merge(other Summary) Summary {
	s.Listed += other.Listed
	s.Parsed += other.Parsed
	s.Failed += other.Failed
	s.ListingFailed = s.ListingFailed || other.ListingFailed
	s.WithAuthors += other.WithAuthors
	s.WithAffiliations += other.WithAffiliations
	s.WithAbstract += other.WithAbstract
	s.WithPDF += other.WithPDF
	s.WithSlides += other.WithSlides
	s.WithVideo += other.WithVideo
	s.WithCode += other.WithCode
	return s
}

// PeriodCollection holds the records harvested for one period in the order
// their tasks completed.
type PeriodCollection struct {
	Period  int      `json:"period" yaml:"period"`
	Records []Record `json:"records" yaml:"records"`
	Summary Summary  `json:"summary" yaml:"summary"`
}

// NewPeriodCollection returns an empty collection for period.
func NewPeriodCollection(period int) PeriodCollection {
	return PeriodCollection{Period: period, Records: []Record{}}
}

// Add appends a retained record.
func (c *PeriodCollection) Add(r Record) {
	c.Records = append(c.Records, r)
	c.Summary.Parsed++
}

// Fail counts a task that produced no record.
func (c *PeriodCollection) Fail() {
	c.Summary.Failed++
}

// Finalize recomputes the per-field counters from the retained records.
func (c *PeriodCollection) Finalize() Summary {
	s := c.Summary
	s.Parsed = len(c.Records)
	s.WithAuthors, s.WithAffiliations, s.WithAbstract = 0, 0, 0
	s.WithPDF, s.WithSlides, s.WithVideo, s.WithCode = 0, 0, 0, 0
	for _, r := range c.Records {
		if len(r.Authors) > 0 {
			s.WithAuthors++
		}
		if len(r.Affiliations) > 0 {
			s.WithAffiliations++
		}
		if r.Abstract != "" {
			s.WithAbstract++
		}
		if r.PDF != "" {
			s.WithPDF++
		}
		if r.Slides != "" {
			s.WithSlides++
		}
		if r.Video != "" {
			s.WithVideo++
		}
		if r.Code != "" {
			s.WithCode++
		}
	}
	c.Summary = s
	return s
}

// Combined is the full harvest, one collection per configured period in
// iteration order.
type Combined struct {
	Periods []PeriodCollection `json:"periods" yaml:"periods"`
}

// Append adds a finished period collection.
func (c *Combined) Append(pc PeriodCollection) {
	c.Periods = append(c.Periods, pc)
}

// Get returns the collection for period.
func (c Combined) Get(period int) (PeriodCollection, bool) {
	for _, pc := range c.Periods {
		if pc.Period == period {
			return pc, true
		}
	}
	return PeriodCollection{}, false
}

// Total returns the number of retained records across periods.
func (c Combined) Total() int {
	n := 0
	for _, pc := range c.Periods {
		n += len(pc.Records)
	}
	return n
}

// Summary merges every period summary.
func (c Combined) Summary() Summary {
	var s Summary
	for _, pc := range c.Periods {
		s = s.Merge(pc.Summary)
	}
	return s
}

// ByPeriod flattens the harvest into the keyed shape written to disk.
func (c Combined) ByPeriod() map[int][]Record {
	out := make(map[int][]Record, len(c.Periods))
	for _, pc := range c.Periods {
		out[pc.Period] = pc.Records
	}
	return out
}

// FromByPeriod rebuilds a Combined from the keyed on-disk shape, newest period first.
func FromByPeriod(in map[int][]Record) Combined {
	periods := make([]int, 0, len(in))
	for p := range in {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(periods)))
	var c Combined
	for _, p := range periods {
		pc := NewPeriodCollection(p)
		for _, r := range in[p] {
			pc.Add(r)
		}
		pc.Summary.Listed = len(pc.Records)
		pc.Finalize()
		c.Append(pc)
	}
	return c
}

// Records returns every retained record, period by period.
func (c Combined) Records() []Record {
	out := make([]Record, 0, c.Total())
	for _, pc := range c.Periods {
		out = append(out, pc.Records...)
	}
	return out
}
