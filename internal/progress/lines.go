package progress

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

const maxLineTitle = 60

// Lines prints one plain line per finished task, e.g.
// "[3/120] Some Paper Title [PDF, Slides]".
type Lines struct {
	w     io.Writer
	venue string
}

// NewLines writes to w and labels period headers with venue.
func NewLines(w io.Writer, venue string) *Lines {
	return &Lines{w: w, venue: venue}
}

// StartPeriod prints the period header.
func (l *Lines) StartPeriod(period, total int) {
	fmt.Fprintf(l.w, "\n%s %d: %d papers\n", strings.TrimSpace(l.venue), period, total)
}

// TaskDone prints the task line.
func (l *Lines) TaskDone(_, completed, total int, rec paper.Record, ok bool) {
	if !ok {
		fmt.Fprintf(l.w, "  [%d/%d] [FAILED]\n", completed, total)
		return
	}
	fmt.Fprintf(l.w, "  [%d/%d] %s %s\n", completed, total, shorten(rec.Title), resources(rec))
}

// FinishPeriod prints the completeness counters.
func (l *Lines) FinishPeriod(period int, s paper.Summary) {
	fmt.Fprintf(l.w, "%d: crawled %d/%d, abstracts %d, PDF %d, slides %d, video %d, code %d, failed %d\n",
		period, s.Parsed, s.Listed, s.WithAbstract, s.WithPDF, s.WithSlides, s.WithVideo, s.WithCode, s.Failed)
}

func shorten(title string) string {
	if utf8.RuneCountInString(title) <= maxLineTitle {
		return title
	}
	return string([]rune(title)[:maxLineTitle]) + "..."
}

func resources(rec paper.Record) string {
	labels := rec.ResourceLabels()
	if len(labels) == 0 {
		return "[No resources]"
	}
	return "[" + strings.Join(labels, ", ") + "]"
}
