package domain

import (
	"net/http"
	"time"
)

// Format is a requested download artifact format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatEPUB Format = "epub"
)

// TaskState is a DownloadTask lifecycle state. Terminal states (Ready,
// Failed) never transition once reached.
type TaskState string

const (
	StatePending          TaskState = "PENDING"
	StateFetchingMeta     TaskState = "FETCHING_META"
	StateFetchingChapters TaskState = "FETCHING_CHAPTERS"
	StateAssembling       TaskState = "ASSEMBLING"
	StateReady            TaskState = "READY"
	StateFailed           TaskState = "FAILED"
)

// NovelHit is one search result from a single book source.
type NovelHit struct {
	SourceID      int
	SourceName    string
	DetailURL     string
	Title         string
	Author        string
	LatestChapter string
	Score         float64
}

// NovelDetail is a novel's detail page, as scraped from one source.
type NovelDetail struct {
	DetailURL string
	Title     string
	Author    string
	Intro     string
	Cover     string
	Category  string
	Status    string
}

// Chapter is one entry in a novel's canonical table of contents. Content
// is empty until the Download Orchestrator fetches it.
type Chapter struct {
	Order   int
	Title   string
	URL     string
	Content string
}

// DownloadTask is the Task Registry's record of one in-flight or finished
// download job. Mutated only by its owning worker; the registry holds a
// read-only handle for polling.
type DownloadTask struct {
	TaskID              string
	DetailURL           string
	SourceID            int
	Format              Format
	State               TaskState
	TotalChapters       int
	CompletedChapters   int
	FailedChapters      int
	CurrentChapterTitle string
	StartedAt           time.Time
	FinishedAt          time.Time
	ArtifactPath        string
	Error               string
}

// Response is a decoded HTTP response body plus enough metadata for the
// Selector Engine and Cache Layer to operate on it.
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// SourceError records an adapter-level failure encountered while
// aggregating a search, without aborting the rest of the fan-out.
type SourceError struct {
	SourceID   int
	SourceName string
	Err        error
}

func (e *SourceError) Error() string {
	return e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
