package report

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// WriteHarvestYAML writes records keyed by period.
func WriteHarvestYAML(w io.Writer, byPeriod map[int][]paper.Record) error {
	return encodeYAML(w, byPeriod)
}

// WriteClassificationYAML writes the relevant records and statistics.
func WriteClassificationYAML(w io.Writer, res classify.Result) error {
	return encodeYAML(w, res)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}
