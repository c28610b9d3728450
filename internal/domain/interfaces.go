package domain

import (
	"context"
	"time"
)

// Fetcher defines the interface for outbound HTTP fetching with retry,
// TLS-permissive, and UA-rotating behavior.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*Response, error)
	Post(ctx context.Context, url, body string) (*Response, error)
	Close() error
}

// Cache defines the two-tier content cache used for search results, TOC,
// detail pages, and chapters.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
	Close() error
}

// EPUBWriter is the external byte-level EPUB encoder the Assembler
// delegates to. The core never encodes EPUB bytes itself.
type EPUBWriter interface {
	Write(meta EPUBMetadata, chapters []EPUBChapter, outPath string) error
}

// EPUBMetadata is the book-level metadata handed to the external writer.
type EPUBMetadata struct {
	Title    string
	Author   string
	CoverURL string
}

// EPUBChapter is one manifest entry handed to the external writer.
type EPUBChapter struct {
	Title string
	HTML  string
}
