package cache

import (
	"time"

	"github.com/novelforge/novelcore/internal/domain"
)

// Ensure Store implements domain.Cache
var _ domain.Cache = (*Store)(nil)

// TTLs by cache kind: one lifetime each for search, detail, TOC and
// chapter entries.
const (
	TTLSearch  = 30 * time.Minute
	TTLDetail  = 2 * time.Hour
	TTLTOC     = 2 * time.Hour
	TTLChapter = 24 * time.Hour
)

// Kind is the cache-entry category, used to build namespaced keys.
type Kind string

const (
	KindSearch  Kind = "search"
	KindDetail  Kind = "detail"
	KindTOC     Kind = "toc"
	KindChapter Kind = "chapter"
)

// Options configures Store construction.
type Options struct {
	Directory    string
	InMemory     bool
	MemoryMaxGB  float64 // ristretto max cost budget, in GB; default 0.25
	MemoryCount  int64   // estimated entry count hint for ristretto sizing
	BadgerLogger bool
}

// DefaultOptions returns sane defaults for a process-local cache.
func DefaultOptions() Options {
	return Options{
		Directory:   "",
		InMemory:    false,
		MemoryMaxGB: 0.25,
		MemoryCount: 1e5,
	}
}
