// Package download implements the Download Orchestrator: batched,
// bounded-concurrency chapter fetching with inter-batch politeness
// sleeps, per-chapter failure isolation, and cooperative cancellation.
package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/fetcher"
	"github.com/novelforge/novelcore/internal/utils"
)

// ErrTooManyFailures is returned when more than FailureThreshold of a
// task's chapters failed to download.
var ErrTooManyFailures = fmt.Errorf("more than the allowed fraction of chapters failed to download")

// Options configures an Orchestrator.
type Options struct {
	BatchSize        int
	InterBatchMin    time.Duration
	InterBatchMax    time.Duration
	FailureThreshold float64 // fraction of chapters, e.g. 0.5
}

// DefaultOptions returns the default batching parameters.
func DefaultOptions() Options {
	return Options{
		BatchSize:        10,
		InterBatchMin:    1 * time.Second,
		InterBatchMax:    3 * time.Second,
		FailureThreshold: 0.5,
	}
}

// Orchestrator drives one task's chapter download to completion.
type Orchestrator struct {
	opts Options
	log  *utils.Logger
}

// New constructs an Orchestrator.
func New(opts Options, log *utils.Logger) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts = DefaultOptions()
	}
	return &Orchestrator{opts: opts, log: log.WithComponent("download")}
}

// Run downloads every chapter's body through ad, mutating chapters in
// place (Content on success, a placeholder on failure) and reporting
// progress through task under mu's protection. mu is the per-task lock
// the Task Registry holds for this task; Run is the sole writer to task
// while it executes, but still takes mu for each field update so a
// concurrent Progress() read never observes a torn struct.
//
// Run returns domain.ErrCancelled if ctx is cancelled before completion,
// or ErrTooManyFailures if more than opts.FailureThreshold of chapters
// failed. Either way, chapters already fetched remain cached and their
// Content is already populated — only the caller's book-keeping failed.
func (o *Orchestrator) Run(ctx context.Context, task *domain.DownloadTask, mu *sync.RWMutex, chapters []domain.Chapter, ad *adapter.Adapter) error {
	setTotal(task, mu, len(chapters))

	batches := batch(chapters, o.opts.BatchSize)
	for i, b := range batches {
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}

		utils.ParallelForEach(ctx, b, len(b), func(ctx context.Context, idx int) error {
			o.fetchOne(ctx, task, mu, chapters, idx, ad)
			return nil
		})

		if i < len(batches)-1 {
			if err := sleepOrCancel(ctx, fetcher.RandomDelay(o.opts.InterBatchMin, o.opts.InterBatchMax)); err != nil {
				return err
			}
		}
	}

	if ctx.Err() != nil {
		return domain.ErrCancelled
	}

	if failureFraction(task, mu) > o.opts.FailureThreshold {
		return ErrTooManyFailures
	}
	return nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, task *domain.DownloadTask, mu *sync.RWMutex, chapters []domain.Chapter, idx int, ad *adapter.Adapter) {
	ch := chapters[idx]
	setCurrentTitle(task, mu, ch.Title)

	content, err := ad.Chapter(ctx, ch.URL)
	if err != nil {
		chapters[idx].Content = placeholderBody(ch.Title, err)
		incrementFailed(task, mu)
		o.log.Warn().Err(err).Str("url", ch.URL).Msg("chapter download failed, placeholder inserted")
		return
	}
	chapters[idx].Content = content
	incrementCompleted(task, mu)
}

func placeholderBody(title string, err error) string {
	return fmt.Sprintf("[This chapter, %q, could not be downloaded: %v]", title, err)
}

func batch(chapters []domain.Chapter, size int) [][]int {
	if size <= 0 {
		size = 10
	}
	var batches [][]int
	for start := 0; start < len(chapters); start += size {
		end := start + size
		if end > len(chapters) {
			end = len(chapters)
		}
		idxs := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idxs = append(idxs, i)
		}
		batches = append(batches, idxs)
	}
	return batches
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return domain.ErrCancelled
	}
}

func setTotal(task *domain.DownloadTask, mu *sync.RWMutex, n int) {
	mu.Lock()
	defer mu.Unlock()
	task.TotalChapters = n
}

func setCurrentTitle(task *domain.DownloadTask, mu *sync.RWMutex, title string) {
	mu.Lock()
	defer mu.Unlock()
	task.CurrentChapterTitle = title
}

func incrementCompleted(task *domain.DownloadTask, mu *sync.RWMutex) {
	mu.Lock()
	defer mu.Unlock()
	task.CompletedChapters++
}

func incrementFailed(task *domain.DownloadTask, mu *sync.RWMutex) {
	mu.Lock()
	defer mu.Unlock()
	task.FailedChapters++
}

func failureFraction(task *domain.DownloadTask, mu *sync.RWMutex) float64 {
	mu.RLock()
	defer mu.RUnlock()
	if task.TotalChapters == 0 {
		return 0
	}
	return float64(task.FailedChapters) / float64(task.TotalChapters)
}
