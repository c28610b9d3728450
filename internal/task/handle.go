// Package task implements the Task Registry: a sync.Map of in-flight and
// finished download jobs, each with its own mutex, advancing through the
// PENDING -> FETCHING_META -> FETCHING_CHAPTERS -> ASSEMBLING ->
// READY|FAILED state machine.
package task

import (
	"sync"
	"time"

	"github.com/novelforge/novelcore/internal/domain"
)

// Handle is the registry's record of one task: the mutable
// domain.DownloadTask plus the synchronization and cancellation
// machinery Run needs but the polling API must never see. Every mutable
// field access goes through mu, mirroring the
// internal/state.Manager per-manager sync.RWMutex, applied per-task here
// since this module runs many tasks concurrently rather than one process
// state.
type Handle struct {
	mu     sync.RWMutex
	task   domain.DownloadTask
	cancel func()
}

func newHandle(taskID, detailURL string, sourceID int, format domain.Format) *Handle {
	return &Handle{
		task: domain.DownloadTask{
			TaskID:    taskID,
			DetailURL: detailURL,
			SourceID:  sourceID,
			Format:    format,
			State:     domain.StatePending,
			StartedAt: time.Now(),
		},
	}
}

// Mutex returns the per-task lock download.Orchestrator.Run expects.
func (h *Handle) Mutex() *sync.RWMutex { return &h.mu }

// Task returns the domain record pointer Run mutates in place under Mutex().
func (h *Handle) Task() *domain.DownloadTask { return &h.task }

// Snapshot returns a copy of the current task state, safe for the caller
// to read without racing a concurrent Run.
func (h *Handle) Snapshot() domain.DownloadTask {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.task
}

func (h *Handle) setState(s domain.TaskState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.task.State = s
}

func (h *Handle) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.task.State = domain.StateFailed
	h.task.Error = err.Error()
	h.task.FinishedAt = time.Now()
}

func (h *Handle) succeed(artifactPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.task.State = domain.StateReady
	h.task.ArtifactPath = artifactPath
	h.task.FinishedAt = time.Now()
}

func (h *Handle) finishedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.task.FinishedAt
}

func (h *Handle) isTerminal() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.task.State == domain.StateReady || h.task.State == domain.StateFailed
}
