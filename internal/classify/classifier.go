package classify

import (
	"sort"

	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// TaggedRecord is a relevant record plus the keywords that selected it.
type TaggedRecord struct {
	paper.Record    `yaml:",inline"`
	MatchedKeywords []string `json:"matched_keywords" yaml:"matched_keywords"`
}

// PeriodStats summarizes one period.
type PeriodStats struct {
	Total    int            `json:"total" yaml:"total"`
	Filtered int            `json:"filtered" yaml:"filtered"`
	Keywords map[string]int `json:"keywords" yaml:"keywords"`
}

// Statistics summarizes a classification run.
type Statistics struct {
	TotalPapers      int                 `json:"total_papers" yaml:"total_papers"`
	FilteredPapers   int                 `json:"filtered_papers" yaml:"filtered_papers"`
	ByPeriod         map[int]PeriodStats `json:"by_period" yaml:"by_period"`
	KeywordFrequency map[string]int      `json:"keyword_frequency" yaml:"keyword_frequency"`
}

// KeywordCount is one row of a keyword frequency ranking.
type KeywordCount struct {
	Keyword string
	Count   int
}

// TopKeywords ranks keywords by frequency, ties broken alphabetically, and
// keeps at most n (all when n <= 0).
func (s Statistics) TopKeywords(n int) []KeywordCount {
	out := make([]KeywordCount, 0, len(s.KeywordFrequency))
	for kw, c := range s.KeywordFrequency {
		out = append(out, KeywordCount{Keyword: kw, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Result holds the relevant records per period and the run statistics.
type Result struct {
	Filtered   map[int][]TaggedRecord `json:"filtered_papers" yaml:"filtered_papers"`
	Statistics Statistics             `json:"statistics" yaml:"statistics"`
}

// Periods lists the periods of the result, newest first.
func (r Result) Periods() []int {
	out := make([]int, 0, len(r.Filtered))
	for p := range r.Filtered {
		out = append(out, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Classifier tags records with an injected Taxonomy.
type Classifier struct {
	taxonomy Taxonomy
	logger   *zap.Logger
}

// New builds a Classifier.
func New(taxonomy Taxonomy, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{taxonomy: taxonomy, logger: logger}
}

// Tag returns the sorted keywords matched in the record's title or abstract
// and whether any matched.
func (c *Classifier) Tag(rec paper.Record) ([]string, bool) {
	kws := c.taxonomy.Match(rec.Title, rec.Abstract)
	return kws, len(kws) > 0
}

// Classify tags every record of combined and keeps the relevant ones,
// preserving record order within each period.
func (c *Classifier) Classify(combined paper.Combined) Result {
	res := Result{
		Filtered: make(map[int][]TaggedRecord, len(combined.Periods)),
		Statistics: Statistics{
			ByPeriod:         make(map[int]PeriodStats, len(combined.Periods)),
			KeywordFrequency: make(map[string]int),
		},
	}
	for _, pc := range combined.Periods {
		ps := PeriodStats{Total: len(pc.Records), Keywords: make(map[string]int)}
		kept := []TaggedRecord{}
		for _, rec := range pc.Records {
			kws, relevant := c.Tag(rec)
			if !relevant {
				continue
			}
			kept = append(kept, TaggedRecord{Record: rec, MatchedKeywords: kws})
			ps.Filtered++
			for _, kw := range kws {
				ps.Keywords[kw]++
				res.Statistics.KeywordFrequency[kw]++
			}
		}
		res.Filtered[pc.Period] = kept
		res.Statistics.ByPeriod[pc.Period] = ps
		res.Statistics.TotalPapers += ps.Total
		res.Statistics.FilteredPapers += ps.Filtered
		c.logger.Info("period classified",
			zap.Int("period", pc.Period),
			zap.Int("total", ps.Total),
			zap.Int("filtered", ps.Filtered),
		)
	}
	return res
}
