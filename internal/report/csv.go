package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\uFEFF"

var harvestHeader = []string{
	"Period", "Title", "Authors", "Affiliations", "Abstract",
	"PDF_URL", "Slides_URL", "Video_URL", "Code_URL", "Detail_URL",
}

var classificationHeader = []string{
	"Period", "Title", "Matched_Keywords", "Authors", "Affiliations", "Abstract",
	"PDF_URL", "Slides_URL", "Video_URL", "Code_URL", "Detail_URL",
}

// WriteHarvestCSV writes one row per record, newest period first.
func WriteHarvestCSV(w io.Writer, combined paper.Combined) error {
	rows := make([][]string, 0, combined.Total())
	for _, pc := range newestFirst(combined) {
		for _, r := range pc.Records {
			rows = append(rows, []string{
				strconv.Itoa(pc.Period), r.Title,
				strings.Join(r.Authors, "; "), strings.Join(r.Affiliations, "; "), r.Abstract,
				r.PDF, r.Slides, r.Video, r.Code, r.DetailURL,
			})
		}
	}
	return writeCSV(w, harvestHeader, rows)
}

// WriteClassificationCSV writes one row per relevant record, newest period first.
func WriteClassificationCSV(w io.Writer, res classify.Result) error {
	var rows [][]string
	for _, period := range res.Periods() {
		for _, r := range res.Filtered[period] {
			rows = append(rows, []string{
				strconv.Itoa(period), r.Title, strings.Join(r.MatchedKeywords, ", "),
				strings.Join(r.Authors, "; "), strings.Join(r.Affiliations, "; "), r.Abstract,
				r.PDF, r.Slides, r.Video, r.Code, r.DetailURL,
			})
		}
	}
	return writeCSV(w, classificationHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
