package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// linkSlot is one resource kind. Slots are tried in priority order for every
// link and the first empty slot that matches takes it.
type linkSlot struct {
	name  string
	field func(*paper.Links) *string
	match func(text, href string) bool
}

func (e *Extractor) linkSlots() []linkSlot {
	return []linkSlot{
		{
			name:  "pdf",
			field: func(l *paper.Links) *string { return &l.PDF },
			match: func(text, href string) bool {
				return strings.Contains(text, "pdf") ||
					strings.Contains(text, "paper") ||
					strings.HasSuffix(href, ".pdf")
			},
		},
		{
			name:  "slides",
			field: func(l *paper.Links) *string { return &l.Slides },
			match: func(text, _ string) bool {
				return containsAny(text, []string{"slide", "presentation", "ppt"})
			},
		},
		{
			name:  "video",
			field: func(l *paper.Links) *string { return &l.Video },
			match: func(text, href string) bool {
				return strings.Contains(text, "video") || containsAny(href, e.rules.VideoHosts)
			},
		},
		{
			name:  "code",
			field: func(l *paper.Links) *string { return &l.Code },
			match: func(text, href string) bool {
				return strings.Contains(text, "code") || containsAny(href, e.rules.CodeHosts)
			},
		},
	}
}

// links fills each resource slot at most once, scanning hyperlinks in
// document order.
func (e *Extractor) links(scope *goquery.Selection) paper.Links {
	var out paper.Links
	slots := e.linkSlots()
	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.ToLower(textOf(a))
		for _, slot := range slots {
			dst := slot.field(&out)
			if *dst == "" && slot.match(text, href) {
				*dst = href
				break
			}
		}
	})
	return out
}
