package listing

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestResolveCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
<a href="https://www.ndss-symposium.org/ndss-paper/alpha/">Alpha</a>
<a href="https://www.ndss-symposium.org/ndss-paper/alpha/">Alpha again</a>
<a href="https://www.ndss-symposium.org/about/">About</a>
<a href="https://www.ndss-symposium.org/ndss-paper/alpha/">Alpha thrice</a>
</body></html>`)

	got := NewResolver("").Resolve(doc)
	assert.Equal(t, []string{"https://www.ndss-symposium.org/ndss-paper/alpha/"}, got)
}

func TestResolveKeepsFirstOccurrenceOrder(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div>
<a href="/ndss-paper/b/">B</a>
<a href="/ndss-paper/a/">A</a>
<a href="/ndss-paper/b/">B dup</a>
<a href="/ndss-paper/c/">C</a>
<a>no href</a>
</div>`)

	got := NewResolver("/ndss-paper/").Resolve(doc)
	assert.Equal(t, []string{"/ndss-paper/b/", "/ndss-paper/a/", "/ndss-paper/c/"}, got)
}

func TestResolveAgainstDocumentURL(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<a href="/ndss-paper/a/">A</a><a href="https://www.ndss-symposium.org/ndss-paper/a/">A abs</a>`)
	base, err := url.Parse("https://www.ndss-symposium.org/ndss2024/accepted-papers/")
	require.NoError(t, err)
	doc.Url = base

	got := NewResolver("").Resolve(doc)
	assert.Equal(t, []string{"https://www.ndss-symposium.org/ndss-paper/a/"}, got)
}

func TestResolveEmptyListing(t *testing.T) {
	t.Parallel()

	got := NewResolver("").Resolve(parse(t, `<p>Nothing accepted yet</p>`))
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, NewResolver("").Resolve(nil))
}
