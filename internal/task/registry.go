package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/assemble"
	"github.com/novelforge/novelcore/internal/blobstore"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/download"
	"github.com/novelforge/novelcore/internal/toc"
	"github.com/novelforge/novelcore/internal/utils"
)

// ErrUnknownTask is returned by Progress, Result and Cancel for a task
// id the registry never issued or has already garbage-collected.
var ErrUnknownTask = fmt.Errorf("unknown task id")

// Options configures a Registry's background GC sweep.
type Options struct {
	RetentionWindow time.Duration
	GCInterval      time.Duration
}

// DefaultOptions returns the default retention window and GC interval.
func DefaultOptions() Options {
	return Options{
		RetentionWindow: time.Hour,
		GCInterval:      10 * time.Minute,
	}
}

// Registry owns every in-flight and finished download task. It is the
// sole writer of task.State transitions; Progress/Result callers only
// ever read a Snapshot.
type Registry struct {
	opts       Options
	downloader *download.Orchestrator
	store      *blobstore.FS
	epubWriter domain.EPUBWriter
	log        *utils.Logger

	tasks  sync.Map // taskID string -> *Handle
	stopCh chan struct{}
}

// New constructs a Registry and starts its background GC goroutine.
// Call Stop to halt it.
func New(opts Options, downloader *download.Orchestrator, store *blobstore.FS, epubWriter domain.EPUBWriter, log *utils.Logger) *Registry {
	if opts.RetentionWindow <= 0 || opts.GCInterval <= 0 {
		opts = DefaultOptions()
	}
	r := &Registry{
		opts:       opts,
		downloader: downloader,
		store:      store,
		epubWriter: epubWriter,
		log:        log.WithComponent("task"),
		stopCh:     make(chan struct{}),
	}
	go r.gcLoop()
	return r
}

// Stop halts the background GC goroutine. It does not cancel in-flight
// tasks.
func (r *Registry) Stop() {
	close(r.stopCh)
}

// Submit starts a new download task against ad and returns its id
// immediately; the pipeline (metadata -> TOC -> chapters -> assembly)
// runs in a background goroutine the caller polls via Progress.
func (r *Registry) Submit(ad *adapter.Adapter, detailURL string, sourceID int, format domain.Format) string {
	id := uuid.NewString()
	h := newHandle(id, detailURL, sourceID, format)

	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	r.tasks.Store(id, h)
	go r.run(runCtx, h, ad)
	return id
}

// Progress returns a snapshot of task id's current state.
func (r *Registry) Progress(id string) (domain.DownloadTask, error) {
	h, ok := r.handle(id)
	if !ok {
		return domain.DownloadTask{}, ErrUnknownTask
	}
	return h.Snapshot(), nil
}

// Result returns the finished artifact path for task id, or an error if
// the task is not yet Ready.
func (r *Registry) Result(id string) (string, error) {
	h, ok := r.handle(id)
	if !ok {
		return "", ErrUnknownTask
	}
	snap := h.Snapshot()
	if snap.State != domain.StateReady {
		return "", fmt.Errorf("task %s is not ready (state=%s)", id, snap.State)
	}
	return snap.ArtifactPath, nil
}

// Cancel requests task id's pipeline stop at its next cooperative
// cancellation point.
func (r *Registry) Cancel(id string) error {
	h, ok := r.handle(id)
	if !ok {
		return ErrUnknownTask
	}
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

func (r *Registry) handle(id string) (*Handle, bool) {
	v, ok := r.tasks.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Handle), true
}

func (r *Registry) run(ctx context.Context, h *Handle, ad *adapter.Adapter) {
	h.setState(domain.StateFetchingMeta)

	detail, err := ad.Detail(ctx, h.Snapshot().DetailURL)
	if err != nil {
		h.fail(err)
		r.log.Warn().Err(err).Str("task_id", h.Snapshot().TaskID).Msg("task failed fetching metadata")
		return
	}

	raw, err := ad.TOC(ctx, h.Snapshot().DetailURL)
	if err != nil {
		h.fail(err)
		r.log.Warn().Err(err).Str("task_id", h.Snapshot().TaskID).Msg("task failed fetching table of contents")
		return
	}

	chapters, err := toc.Normalize(raw)
	if err != nil {
		h.fail(err)
		r.log.Warn().Err(err).Str("task_id", h.Snapshot().TaskID).Msg("task failed normalizing table of contents")
		return
	}

	h.setState(domain.StateFetchingChapters)
	if err := r.downloader.Run(ctx, h.Task(), h.Mutex(), chapters, ad); err != nil {
		h.fail(err)
		r.log.Warn().Err(err).Str("task_id", h.Snapshot().TaskID).Msg("task failed downloading chapters")
		return
	}

	h.setState(domain.StateAssembling)
	artifactPath, err := r.assemble(h.Snapshot().TaskID, detail, chapters, h.Snapshot().Format)
	if err != nil {
		h.fail(err)
		r.log.Warn().Err(err).Str("task_id", h.Snapshot().TaskID).Msg("task failed assembling artifact")
		return
	}

	h.succeed(artifactPath)
	r.log.Info().Str("task_id", h.Snapshot().TaskID).Str("path", artifactPath).Msg("task ready")
}

func (r *Registry) assemble(taskID string, detail *domain.NovelDetail, chapters []domain.Chapter, format domain.Format) (string, error) {
	filename := assemble.Filename(detail.Title, detail.Author, string(format))
	rel := "downloads/" + filename
	outPath, err := r.store.Reserve(rel)
	if err != nil {
		return "", err
	}

	switch format {
	case domain.FormatEPUB:
		meta := domain.EPUBMetadata{Title: detail.Title, Author: detail.Author, CoverURL: detail.Cover}
		if err := assemble.WriteEPUB(meta, chapters, outPath, r.epubWriter); err != nil {
			return "", err
		}
	default:
		if err := assemble.WriteTXT(chapters, outPath); err != nil {
			return "", err
		}
	}

	if err := r.store.WaitStable(context.Background(), rel, 2, 200*time.Millisecond); err != nil {
		r.log.Warn().Err(err).Str("task_id", taskID).Msg("artifact did not stabilize, returning path anyway")
	}
	return outPath, nil
}

func (r *Registry) gcLoop() {
	ticker := time.NewTicker(r.opts.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.opts.RetentionWindow)
	r.tasks.Range(func(key, value any) bool {
		h := value.(*Handle)
		if h.isTerminal() && h.finishedAt().Before(cutoff) {
			r.tasks.Delete(key)
		}
		return true
	})
}
