// Package listing resolves paper detail locations from a period's listing page.
package listing

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDetailPattern is the path segment identifying a paper detail page.
const DefaultDetailPattern = "/ndss-paper/"

// Resolver extracts detail-page locations from a parsed listing document.
type Resolver struct {
	pattern string
}

// NewResolver builds a Resolver matching hrefs that contain pattern.
func NewResolver(pattern string) *Resolver {
	if pattern == "" {
		pattern = DefaultDetailPattern
	}
	return &Resolver{pattern: pattern}
}

// Resolve returns the unique detail locations in document order. When the
// document carries a URL, relative hrefs are resolved against it. An empty
// result is a normal outcome.
func (r *Resolver) Resolve(doc *goquery.Document) []string {
	out := []string{}
	if doc == nil {
		return out
	}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.Contains(href, r.pattern) {
			return
		}
		loc := absolute(doc.Url, href)
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	})
	return out
}

func absolute(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
