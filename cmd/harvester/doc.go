// Command harvester crawls conference accepted-paper listings, extracts
// per-paper metadata, and writes JSON, Markdown, CSV, and YAML reports. The
// classify subcommand filters a finished harvest by keyword taxonomy.
//
// Every setting can also come from the environment with the HARVESTER_
// prefix, e.g. HARVESTER_HTTP_BACKEND=chromedp.
//
// Usage:
//
//	harvester crawl [--config harvester.yaml] [--period 2025 ...] [--progress]
//	                [--run-id UUID] [--archive-pages]
//	harvester classify [--input output/papers_all.json]
package main
