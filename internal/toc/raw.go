// Package toc normalizes the raw chapter-list entries a Source Adapter
// scrapes off a table-of-contents page into the canonical, deduplicated,
// contiguously ordered domain.Chapter list the Download Orchestrator
// consumes.
package toc

// RawEntry is one chapter-list row as scraped, before dedup, noise
// filtering, or Order assignment.
type RawEntry struct {
	Title string
	URL   string
}
