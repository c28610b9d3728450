package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/fetcher"
	"github.com/novelforge/novelcore/internal/rule"
	"github.com/novelforge/novelcore/internal/utils"
)

func newChapterAdapter(t *testing.T, failPaths map[string]bool) (*adapter.Adapter, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	for i := 1; i <= 12; i++ {
		path := fmt.Sprintf("/c/%d", i)
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if failPaths[r.URL.Path] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`<html><body><div class="content">Chapter body content, long enough to pass validity.</div></body></html>`))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := fetcher.NewClient(fetcher.ClientOptions{Timeout: 2 * time.Second, MaxConcurrency: 10, MaxRedirects: 3, MaxRetries: 0})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := cache.New(cache.Options{InMemory: true, MemoryMaxGB: 0.01, MemoryCount: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	r := &rule.Rule{
		ID:      1,
		Name:    "source",
		BaseURL: srv.URL,
		Enabled: true,
		Chapter: rule.ChapterRule{ContentSelector: ".content"},
	}
	opts := adapter.Options{TTLs: adapter.TTLs{Chapter: time.Minute}, MinChapterLength: 5}
	return adapter.New(r, client, store, opts, utils.NewDefaultLogger()), srv
}

func makeChapters(n int, srv *httptest.Server) []domain.Chapter {
	chapters := make([]domain.Chapter, n)
	for i := 0; i < n; i++ {
		chapters[i] = domain.Chapter{Order: i + 1, Title: fmt.Sprintf("Chapter %d", i+1), URL: fmt.Sprintf("%s/c/%d", srv.URL, i+1)}
	}
	return chapters
}

func TestOrchestrator_Run_AllSucceed(t *testing.T) {
	ad, srv := newChapterAdapter(t, nil)
	chapters := makeChapters(5, srv)
	task := &domain.DownloadTask{}
	var mu sync.RWMutex

	o := New(DefaultOptions(), utils.NewDefaultLogger())
	err := o.Run(t.Context(), task, &mu, chapters, ad)
	require.NoError(t, err)
	assert.Equal(t, 5, task.CompletedChapters)
	assert.Equal(t, 0, task.FailedChapters)
	for _, c := range chapters {
		assert.Contains(t, c.Content, "Chapter body content")
	}
}

func TestOrchestrator_Run_PlaceholdersFailedChapters(t *testing.T) {
	ad, srv := newChapterAdapter(t, map[string]bool{"/c/2": true})
	chapters := makeChapters(3, srv)
	task := &domain.DownloadTask{}
	var mu sync.RWMutex

	opts := DefaultOptions()
	opts.FailureThreshold = 0.9
	o := New(opts, utils.NewDefaultLogger())
	err := o.Run(t.Context(), task, &mu, chapters, ad)
	require.NoError(t, err)
	assert.Equal(t, 2, task.CompletedChapters)
	assert.Equal(t, 1, task.FailedChapters)
	assert.Contains(t, chapters[1].Content, "could not be downloaded")
}

func TestOrchestrator_Run_TooManyFailuresReturnsError(t *testing.T) {
	ad, srv := newChapterAdapter(t, map[string]bool{"/c/1": true, "/c/2": true, "/c/3": true})
	chapters := makeChapters(3, srv)
	task := &domain.DownloadTask{}
	var mu sync.RWMutex

	o := New(DefaultOptions(), utils.NewDefaultLogger())
	err := o.Run(t.Context(), task, &mu, chapters, ad)
	assert.ErrorIs(t, err, ErrTooManyFailures)
}

func TestOrchestrator_Run_BatchesLargeChapterLists(t *testing.T) {
	ad, srv := newChapterAdapter(t, nil)
	chapters := makeChapters(12, srv)
	task := &domain.DownloadTask{}
	var mu sync.RWMutex

	opts := DefaultOptions()
	opts.BatchSize = 5
	opts.InterBatchMin = 10 * time.Millisecond
	opts.InterBatchMax = 20 * time.Millisecond
	o := New(opts, utils.NewDefaultLogger())
	err := o.Run(t.Context(), task, &mu, chapters, ad)
	require.NoError(t, err)
	assert.Equal(t, 12, task.TotalChapters)
	assert.Equal(t, 12, task.CompletedChapters)
}

func TestOrchestrator_Run_CancellationStopsEarly(t *testing.T) {
	ad, srv := newChapterAdapter(t, nil)
	chapters := makeChapters(20, srv)
	task := &domain.DownloadTask{}
	var mu sync.RWMutex

	opts := DefaultOptions()
	opts.BatchSize = 2
	opts.InterBatchMin = 200 * time.Millisecond
	opts.InterBatchMax = 200 * time.Millisecond
	o := New(opts, utils.NewDefaultLogger())

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	err := o.Run(ctx, task, &mu, chapters, ad)
	assert.ErrorIs(t, err, domain.ErrCancelled)
}
