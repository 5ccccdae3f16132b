package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var parenthesized = regexp.MustCompile(`\(([^)]+)\)`)

// textRule is a named predicate over extracted text. Rule lists are evaluated
// in order and all must hold.
type textRule struct {
	name  string
	match func(text string) bool
}

// authorParagraphRules decide whether a paragraph is the author block.
func (e *Extractor) authorParagraphRules() []textRule {
	return []textRule{
		{name: "parenthesis-pair", match: hasParenPair},
		{name: "institution-keyword", match: func(text string) bool {
			return containsAny(text, e.rules.AuthorKeywords)
		}},
	}
}

// authorEntryRules decide whether one split fragment is kept as an author.
func (e *Extractor) authorEntryRules() []textRule {
	return []textRule{
		{name: "non-empty", match: func(entry string) bool { return entry != "" }},
		{name: "bounded-length", match: func(entry string) bool {
			return runeLen(entry) < e.rules.MaxAuthorLength
		}},
	}
}

// authors scans the first paragraphs of the scope for the author block and
// returns its entries plus the sorted, deduplicated affiliations.
func (e *Extractor) authors(scope *goquery.Selection) ([]string, []string) {
	paragraphRules := e.authorParagraphRules()
	entryRules := e.authorEntryRules()

	var (
		authors      []string
		affiliations []string
	)
	scope.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if i >= e.rules.AuthorScanLimit {
			return false
		}
		text := textOf(p)
		if !allMatch(paragraphRules, text) {
			return true
		}
		seen := make(map[string]struct{})
		for _, entry := range splitAuthors(text) {
			entry = strings.TrimSpace(entry)
			if !allMatch(entryRules, entry) {
				continue
			}
			authors = append(authors, entry)
			for _, m := range parenthesized.FindAllStringSubmatch(entry, -1) {
				seen[m[1]] = struct{}{}
			}
		}
		if len(authors) == 0 {
			return true
		}
		affiliations = make([]string, 0, len(seen))
		for aff := range seen {
			affiliations = append(affiliations, aff)
		}
		sort.Strings(affiliations)
		return false
	})
	return authors, affiliations
}

func allMatch(rules []textRule, text string) bool {
	for _, r := range rules {
		if !r.match(text) {
			return false
		}
	}
	return true
}

// splitAuthors breaks an author paragraph on semicolons and on commas that are
// followed (after optional whitespace) by an upper-case ASCII letter.
func splitAuthors(text string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ';':
			parts = append(parts, text[start:i])
			start = i + 1
		case ',':
			if capitalFollows(text[i+1:]) {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}

func capitalFollows(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\n\r\f\v")
	return rest != "" && rest[0] >= 'A' && rest[0] <= 'Z'
}
