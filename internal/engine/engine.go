// Package engine wires every other internal package into one runnable
// process: the HTTP Client Pool, Cache Layer, Rule Provider, Source
// Adapters, Aggregator, Download Orchestrator, Task Registry, and Blob
// Store. It replaces a global
// dependency bag with explicit constructor-injected wiring, grounded on
// the same NewOrchestrator(opts) shape.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/aggregator"
	"github.com/novelforge/novelcore/internal/assemble"
	"github.com/novelforge/novelcore/internal/blobstore"
	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/config"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/download"
	"github.com/novelforge/novelcore/internal/fetcher"
	"github.com/novelforge/novelcore/internal/rule"
	"github.com/novelforge/novelcore/internal/task"
	"github.com/novelforge/novelcore/internal/utils"
)

// Engine is the fully wired process: everything cmd/noveldl needs to
// search, inspect a table of contents, and download a novel.
type Engine struct {
	cfg *config.Config
	log *utils.Logger

	client   *fetcher.Client
	cache    *cache.Store
	store    *blobstore.FS
	adapters map[int]*adapter.Adapter

	Aggregator *aggregator.Aggregator
	Tasks      *task.Registry
}

// New constructs an Engine from cfg: an HTTP Client Pool, a two-tier
// cache, one Source Adapter per loaded rule, an Aggregator over all of
// them, a Download Orchestrator, a Blob Store rooted at cfg.Output, and
// a Task Registry tying the last three together.
func New(ctx context.Context, cfg *config.Config, log *utils.Logger) (*Engine, error) {
	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:        cfg.HTTP.Timeout,
		MaxRetries:     cfg.Retry.MaxAttempts,
		MaxConcurrency: cfg.HTTP.MaxConcurrency,
		MaxRedirects:   cfg.HTTP.MaxRedirects,
		UserAgent:      cfg.HTTP.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing HTTP client pool: %w", err)
	}

	cacheStore, err := cache.New(cache.Options{
		Directory:   cfg.Cache.Directory,
		InMemory:    cfg.Cache.InMemory,
		MemoryMaxGB: cfg.Cache.MemoryMaxGB,
		MemoryCount: cfg.Cache.MemoryCount,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("constructing cache layer: %w", err)
	}

	rules, err := rule.NewFileProvider(cfg.Rules.Directory).Load(ctx)
	if err != nil {
		client.Close()
		cacheStore.Close()
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	adapterOpts := adapter.Options{
		TTLs: adapter.TTLs{
			Search:  cfg.Cache.TTLSearch,
			Detail:  cfg.Cache.TTLDetail,
			TOC:     cfg.Cache.TTLTOC,
			Chapter: cfg.Cache.TTLChapter,
		},
		MinChapterLength: cfg.Cache.MinChapterLength,
		MaxTOCPages:      cfg.Download.MaxTOCPages,
	}

	adapters := make(map[int]*adapter.Adapter, len(rules))
	ordered := make([]*adapter.Adapter, 0, len(rules))
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		ad := adapter.New(r, client, cacheStore, adapterOpts, log)
		adapters[r.ID] = ad
		ordered = append(ordered, ad)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rule().ID < ordered[j].Rule().ID })

	store, err := blobstore.New(cfg.Output.Directory)
	if err != nil {
		client.Close()
		cacheStore.Close()
		return nil, fmt.Errorf("constructing blob store: %w", err)
	}

	downloader := download.New(download.Options{
		BatchSize:        cfg.Download.BatchSize,
		InterBatchMin:    cfg.Download.InterBatchMin,
		InterBatchMax:    cfg.Download.InterBatchMax,
		FailureThreshold: cfg.Download.FailureThreshold,
	}, log)

	tasks := task.New(task.Options{
		RetentionWindow: cfg.Task.RetentionWindow,
		GCInterval:      cfg.Task.GCInterval,
	}, downloader, store, assemble.GoEpubWriter{}, log)

	eng := &Engine{
		cfg:        cfg,
		log:        log.WithComponent("engine"),
		client:     client,
		cache:      cacheStore,
		store:      store,
		adapters:   adapters,
		Aggregator: aggregator.New(ordered, log),
		Tasks:      tasks,
	}
	eng.log.Info().Int("sources", len(ordered)).Msg("engine ready")
	return eng, nil
}

// Adapter returns the Source Adapter bound to sourceID, or false if no
// enabled rule carries that id.
func (e *Engine) Adapter(sourceID int) (*adapter.Adapter, bool) {
	ad, ok := e.adapters[sourceID]
	return ad, ok
}

// Submit starts a download task for detailURL against sourceID's
// adapter.
func (e *Engine) Submit(sourceID int, detailURL string, format domain.Format) (string, error) {
	ad, ok := e.Adapter(sourceID)
	if !ok {
		return "", fmt.Errorf("unknown source id %d", sourceID)
	}
	return e.Tasks.Submit(ad, detailURL, sourceID, format), nil
}

// Shutdown drains the Task Registry's GC loop, then closes the HTTP pool
// and flushes the disk cache, in that order, per the engine's teardown
// sequence: stop issuing new work before tearing down what in-flight
// work still depends on.
func (e *Engine) Shutdown() error {
	e.log.Info().Msg("engine shutting down")
	e.Tasks.Stop()
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("closing HTTP client pool: %w", err)
	}
	if err := e.cache.Close(); err != nil {
		return fmt.Errorf("flushing disk cache: %w", err)
	}
	return nil
}
