// Package classify tags harvested papers against a keyword taxonomy and keeps
// the relevant subset together with match statistics.
package classify

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrEmptyTaxonomy is returned when a taxonomy would have no keywords.
var ErrEmptyTaxonomy = errors.New("taxonomy has no keywords")

// DefaultKeywords returns the software supply chain taxonomy.
func DefaultKeywords() []string {
	return []string{
		"software supply chain", "supply chain", "supply-chain",
		"package", "packages", "dependency", "dependencies", "library", "libraries",
		"npm", "pypi", "maven", "gradle",
		"build", "ci/cd", "cicd", "continuous integration", "continuous deployment",
		"pipeline", "artifact", "artifacts",
		"repository", "repositories", "github", "gitlab", "bitbucket", "git",
		"docker", "container", "registry",
		"open source", "open-source", "third-party", "third party", "code reuse",
		"software composition", "component", "components",
		"typosquatting", "dependency confusion", "malicious package", "backdoor",
		"supply chain attack",
	}
}

type term struct {
	keyword string
	pattern *regexp.Regexp
}

// Taxonomy is an immutable set of keywords, each matched case-insensitively
// on word boundaries.
type Taxonomy struct {
	terms []term
}

// NewTaxonomy compiles keywords. Blank and duplicate keywords are dropped.
func NewTaxonomy(keywords []string) (Taxonomy, error) {
	seen := make(map[string]struct{}, len(keywords))
	var terms []term
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		terms = append(terms, term{
			keyword: kw,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`),
		})
	}
	if len(terms) == 0 {
		return Taxonomy{}, ErrEmptyTaxonomy
	}
	return Taxonomy{terms: terms}, nil
}

// Keywords lists the taxonomy's keywords in configuration order.
func (t Taxonomy) Keywords() []string {
	out := make([]string, len(t.terms))
	for i, tm := range t.terms {
		out[i] = tm.keyword
	}
	return out
}

// Len reports the number of keywords.
func (t Taxonomy) Len() int {
	return len(t.terms)
}

// Match returns the sorted keywords found in any of texts. Each text is
// matched on its own so no keyword can straddle two fields.
func (t Taxonomy) Match(texts ...string) []string {
	found := make(map[string]struct{})
	for _, text := range texts {
		normalized := normalize(text)
		if normalized == "" {
			continue
		}
		for _, tm := range t.terms {
			if tm.pattern.MatchString(normalized) {
				found[tm.keyword] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(found))
	for kw := range found {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
