package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Format is an output serialization.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
)

// DefaultFormats mirrors the files a harvest has always produced.
func DefaultFormats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatCSV}
}

// ParseFormats validates names such as "json" or "md". Duplicates collapse.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		var f Format
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "json":
			f = FormatJSON
		case "markdown", "md":
			f = FormatMarkdown
		case "csv":
			f = FormatCSV
		case "yaml", "yml":
			f = FormatYAML
		default:
			return nil, fmt.Errorf("unknown output format %q", name)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ContentType returns the MIME type used when storing f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
