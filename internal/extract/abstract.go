package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type verdict int

const (
	ignore verdict = iota
	skip
	accept
)

// candidate is one paragraph considered by the paper-data pass.
type candidate struct {
	text       string
	inEmphasis bool
}

// abstractRule pairs a predicate with the verdict it yields. The first rule
// that matches a candidate decides; no match means ignore.
type abstractRule struct {
	name    string
	verdict verdict
	match   func(accepted bool, c candidate) bool
}

func (e *Extractor) abstractRules() []abstractRule {
	return []abstractRule{
		{
			name:    "inside-emphasis",
			verdict: skip,
			match:   func(_ bool, c candidate) bool { return c.inEmphasis },
		},
		{
			name:    "leading-author-list",
			verdict: skip,
			match: func(accepted bool, c candidate) bool {
				return !accepted && e.looksLikeAuthorList(c.text)
			},
		},
		{
			name:    "prose",
			verdict: accept,
			match:   func(_ bool, c candidate) bool { return e.isProse(c.text) },
		},
	}
}

func (e *Extractor) looksLikeAuthorList(text string) bool {
	return hasParenPair(text) &&
		runeLen(text) < e.rules.AuthorListMaxLength &&
		containsAny(text, e.rules.AbstractSkipKeywords)
}

func (e *Extractor) isProse(text string) bool {
	return text != "" &&
		runeLen(text) > e.rules.MinAbstractLength &&
		!strings.HasPrefix(text, "http")
}

// abstract tries the paper-data block first, then the fallbacks.
func (e *Extractor) abstract(scope *goquery.Selection) string {
	if text := e.paperDataAbstract(scope); text != "" {
		return text
	}
	if text, ok := labelledAbstract(scope); ok {
		return text
	}
	return e.headingAbstract(scope)
}

func (e *Extractor) paperDataAbstract(scope *goquery.Selection) string {
	block := scope.Find("div.paper-data").First()
	if block.Length() == 0 {
		return ""
	}
	rules := e.abstractRules()
	var (
		parts    []string
		accepted bool
	)
	block.Find("p").Each(func(_ int, p *goquery.Selection) {
		c := candidate{
			text:       textOf(p),
			inEmphasis: p.ParentsFiltered("strong, b").Length() > 0,
		}
		if decide(rules, accepted, c) == accept {
			parts = append(parts, c.text)
			accepted = true
		}
	})
	return strings.Join(parts, " ")
}

func decide(rules []abstractRule, accepted bool, c candidate) verdict {
	for _, r := range rules {
		if r.match(accepted, c) {
			return r.verdict
		}
	}
	return ignore
}

// labelledAbstract reads a div or section whose class or id mentions
// "abstract". The second result reports whether such a container exists.
func labelledAbstract(scope *goquery.Selection) (string, bool) {
	box := scope.Find("div, section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		return strings.Contains(strings.ToLower(class), "abstract") ||
			strings.Contains(strings.ToLower(id), "abstract")
	}).First()
	if box.Length() == 0 {
		return "", false
	}
	text := textOf(box)
	text = strings.ReplaceAll(text, "Abstract:", "")
	text = strings.ReplaceAll(text, "ABSTRACT:", "")
	return strings.TrimSpace(text), true
}

// headingAbstract takes the first paragraph or container after a heading that
// mentions "abstract", provided it is long enough not to be the heading itself.
func (e *Extractor) headingAbstract(scope *goquery.Selection) string {
	var out string
	scope.Find("h2, h3, h4, strong").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(textOf(h)), "abstract") {
			return true
		}
		next := following(h.Get(0), "p", "div")
		if next == nil {
			return true
		}
		text := textOf(goquery.NewDocumentFromNode(next).Selection)
		if runeLen(text) > e.rules.MinHeadingAbstractLength {
			out = text
			return false
		}
		return true
	})
	return out
}
