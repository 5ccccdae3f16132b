package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// WriteHarvestJSON writes records keyed by period, the shape shared by the
// per-period checkpoints and the combined file.
func WriteHarvestJSON(w io.Writer, byPeriod map[int][]paper.Record) error {
	return encodeJSON(w, byPeriod)
}

// ReadHarvestJSON loads a file written by WriteHarvestJSON.
func ReadHarvestJSON(r io.Reader) (paper.Combined, error) {
	var byPeriod map[int][]paper.Record
	if err := json.NewDecoder(r).Decode(&byPeriod); err != nil {
		return paper.Combined{}, fmt.Errorf("decode harvest json: %w", err)
	}
	for period, records := range byPeriod {
		for i := range records {
			if records[i].Period == 0 {
				records[i].Period = period
			}
			if records[i].Authors == nil {
				records[i].Authors = []string{}
			}
			if records[i].Affiliations == nil {
				records[i].Affiliations = []string{}
			}
		}
	}
	return paper.FromByPeriod(byPeriod), nil
}

// WriteClassificationJSON writes the relevant records and statistics.
func WriteClassificationJSON(w io.Writer, res classify.Result) error {
	return encodeJSON(w, res)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
