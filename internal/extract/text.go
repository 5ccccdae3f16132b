package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textOf returns the selection's text with runs of whitespace collapsed.
func textOf(s *goquery.Selection) string {
	return normalizeSpace(s.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func hasParenPair(s string) bool {
	return strings.Contains(s, "(") && strings.Contains(s, ")")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// following walks the tree in document order starting right after from,
// including from's own descendants, and returns the first element matching tags.
func following(from *html.Node, tags ...string) *html.Node {
	for n := nextInDocument(from); n != nil; n = nextInDocument(n) {
		if n.Type != html.ElementNode {
			continue
		}
		for _, tag := range tags {
			if n.Data == tag {
				return n
			}
		}
	}
	return nil
}

func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}
