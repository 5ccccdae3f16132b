package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

// prose returns n characters of space-separated filler words.
func prose(n int) string {
	var b strings.Builder
	for b.Len() < n {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("measure")
	}
	out := []byte(b.String()[:n])
	if out[n-1] == ' ' {
		out[n-1] = 'x'
	}
	return string(out)
}

func TestExtractExamplePaper(t *testing.T) {
	t.Parallel()

	abstract := prose(150)
	doc := parse(t, `<html><body>
<h1 class="entry-title">Example Paper</h1>
<div class="entry-content">
  <p>Alice Smith (Example University), Bob Lee (Example University)</p>
  <div class="paper-data"><p>`+abstract+`</p></div>
</div></body></html>`)

	rec := New(DefaultRules()).Extract(doc, 2025, "https://example.org/ndss-paper/example/")

	assert.Equal(t, "Example Paper", rec.Title)
	assert.Equal(t, 2025, rec.Period)
	assert.Equal(t, "https://example.org/ndss-paper/example/", rec.DetailURL)
	assert.Equal(t, []string{"Alice Smith (Example University)", "Bob Lee (Example University)"}, rec.Authors)
	assert.Equal(t, []string{"Example University"}, rec.Affiliations)
	assert.Equal(t, abstract, rec.Abstract)
	assert.Equal(t, paper.Links{}, rec.Links)
}

func TestExtractWithoutContentScopeKeepsOnlyTitle(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body><h1>Lonely Title</h1>
<p>Alice Smith (Example University)</p><a href="/paper.pdf">PDF</a></body></html>`)

	rec := New(Rules{}).Extract(doc, 2024, "loc")

	assert.Equal(t, "Lonely Title", rec.Title)
	assert.Empty(t, rec.Authors)
	assert.NotNil(t, rec.Authors)
	assert.Empty(t, rec.Affiliations)
	assert.Empty(t, rec.Abstract)
	assert.Equal(t, paper.Links{}, rec.Links)
}

func TestExtractNilDocument(t *testing.T) {
	t.Parallel()

	rec := New(DefaultRules()).Extract(nil, 2023, "loc")
	assert.Empty(t, rec.Title)
	assert.False(t, rec.Valid())
}

func TestTitlePrefersEntryTitle(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<h1>Site Banner</h1><h1 class="entry-title">  Real
  Title </h1>`)
	assert.Equal(t, "Real Title", title(doc))
}

func TestAuthorsUnionsAffiliations(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<article>
<p>Published in the proceedings.</p>
<p>Carol Diaz (Zeta Institute); Dan Wu (Alpha Lab), Eve Park (Alpha Lab)</p>
<p>Frank Other (Ignored University)</p>
</article>`)

	authors, affiliations := New(DefaultRules()).authors(contentScope(doc))

	assert.Equal(t, []string{
		"Carol Diaz (Zeta Institute)",
		"Dan Wu (Alpha Lab)",
		"Eve Park (Alpha Lab)",
	}, authors)
	assert.Equal(t, []string{"Alpha Lab", "Zeta Institute"}, affiliations)
}

func TestAuthorsRespectScanLimit(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.AuthorScanLimit = 2
	doc := parse(t, `<article><p>one</p><p>two</p><p>Gina Ho (Far University)</p></article>`)

	authors, affiliations := New(rules).authors(contentScope(doc))
	assert.Empty(t, authors)
	assert.Empty(t, affiliations)
}

func TestAuthorsDropsOverlongEntries(t *testing.T) {
	t.Parallel()

	long := "Someone (" + strings.Repeat("Very ", 50) + "Long University)"
	doc := parse(t, `<article><p>`+long+`; Hana Kim (KAIST)</p></article>`)

	authors, affiliations := New(DefaultRules()).authors(contentScope(doc))
	assert.Equal(t, []string{"Hana Kim (KAIST)"}, authors)
	assert.Equal(t, []string{"KAIST"}, affiliations)
}

func TestSplitAuthors(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"A (X), B (Y)":         {"A (X)", " B (Y)"},
		"A (x, inc), b (y)":    {"A (x, inc), b (y)"},
		"A (X);B (Y);  C":      {"A (X)", "B (Y)", "  C"},
		"A (Lab, Dept), B (Y)": {"A (Lab", " Dept)", " B (Y)"},
	}
	for in, want := range cases {
		assert.Equal(t, want, splitAuthors(in), in)
	}
}

func TestAbstractSkipsEmphasisAndLeadingAuthorList(t *testing.T) {
	t.Parallel()

	first := prose(120)
	second := "Later paragraph citing (Example University) work " + prose(80)
	doc := parse(t, `<article><div class="paper-data">
  <strong><p>`+prose(140)+`</p></strong>
  <p>Alice (Example University), Bob (Example Institute)</p>
  <p>short</p>
  <p>https://example.org/`+prose(120)+`</p>
  <p>`+first+`</p>
  <p>`+second+`</p>
</div></article>`)

	got := New(DefaultRules()).abstract(contentScope(doc))
	assert.Equal(t, first+" "+second, got)
}

func TestAbstractRulesDecideInOrder(t *testing.T) {
	t.Parallel()

	e := New(DefaultRules())
	rules := e.abstractRules()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	assert.Equal(t, []string{"inside-emphasis", "leading-author-list", "prose"}, names)

	author := "Alice (Example University) " + prose(120)
	assert.Equal(t, skip, decide(rules, false, candidate{text: prose(150), inEmphasis: true}))
	assert.Equal(t, skip, decide(rules, false, candidate{text: author}))
	assert.Equal(t, accept, decide(rules, true, candidate{text: author}))
	assert.Equal(t, ignore, decide(rules, true, candidate{text: prose(100)}))
	assert.Equal(t, accept, decide(rules, false, candidate{text: prose(101)}))
}

func TestAbstractAuthorListThresholdIsTunable(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.AuthorListMaxLength = 50
	author := "Alice (Example University) " + prose(120)
	doc := parse(t, `<article><div class="paper-data"><p>`+author+`</p></div></article>`)

	assert.Equal(t, author, New(rules).abstract(contentScope(doc)))
	assert.Empty(t, New(DefaultRules()).abstract(contentScope(doc)))
}

func TestAbstractFallsBackToLabelledContainer(t *testing.T) {
	t.Parallel()

	body := prose(60)
	doc := parse(t, `<article>
<div class="paper-data"><p>tiny</p></div>
<section class="Paper-Abstract">Abstract: `+body+`</section>
<h3>Abstract</h3><p>`+prose(90)+`</p>
</article>`)

	assert.Equal(t, body, New(DefaultRules()).abstract(contentScope(doc)))
}

func TestAbstractFallsBackToHeading(t *testing.T) {
	t.Parallel()

	body := prose(70)
	doc := parse(t, `<article>
<h2>Overview</h2><p>`+prose(200)+`</p>
<h3>Abstract</h3><p>too short</p>
<h4>ABSTRACT</h4><div>`+body+`</div>
</article>`)

	assert.Equal(t, body, New(DefaultRules()).abstract(contentScope(doc)))
}

func TestLinksFillEachSlotOnce(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div class="entry-content">
<a href="/files/paper.pdf">Paper</a>
<a href="/files/slides.pdf">Slides</a>
<a href="/files/second.pdf">Paper PDF</a>
<a href="https://youtu.be/abc">Talk</a>
<a href="https://www.youtube.com/watch?v=zzz">Video</a>
<a href="https://gitlab.com/group/tool">Artifact</a>
<a href="https://github.com/org/tool">Code</a>
</div>`)

	links := New(DefaultRules()).links(contentScope(doc))

	assert.Equal(t, paper.Links{
		PDF:    "/files/paper.pdf",
		Slides: "/files/slides.pdf",
		Video:  "https://youtu.be/abc",
		Code:   "https://gitlab.com/group/tool",
	}, links)
}

func TestLinksMatchTextCaseInsensitively(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<article><a href="/deck">PowerPoint PPT</a><a href="/repo">Source CODE</a></article>`)

	links := New(DefaultRules()).links(contentScope(doc))
	assert.Equal(t, "/deck", links.Slides)
	assert.Equal(t, "/repo", links.Code)
	assert.Empty(t, links.PDF)
}
