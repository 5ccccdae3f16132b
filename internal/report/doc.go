// Package report renders harvest and classification results as JSON, YAML,
// CSV, Markdown, and terminal tables, and writes them to a blob store.
package report
