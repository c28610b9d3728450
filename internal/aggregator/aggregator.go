// Package aggregator fans a search keyword out to every enabled Source
// Adapter, merges and deduplicates the results, scores them against the
// keyword, and returns the top N hits plus any per-source failures.
package aggregator

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/utils"
)

// Aggregator binds the set of enabled Source Adapters it fans searches
// out to.
type Aggregator struct {
	adapters []*adapter.Adapter
	log      *utils.Logger
}

// New constructs an Aggregator over adapters. Order is irrelevant here;
// SearchAll re-derives a deterministic priority order on every call.
func New(adapters []*adapter.Adapter, log *utils.Logger) *Aggregator {
	return &Aggregator{adapters: adapters, log: log.WithComponent("aggregator")}
}

type indexedAdapter struct {
	idx int
	ad  *adapter.Adapter
}

// SearchAll fans keyword out to every bound adapter, each capped by its
// own per-source timeout and the shared global deadline, then merges,
// dedupes, scores, and cuts the result to opts.MaxResults. A failing or
// timed-out adapter contributes an empty list and a SourceError rather
// than aborting the whole aggregate.
func (a *Aggregator) SearchAll(ctx context.Context, keyword string, opts domain.SearchOptions) ([]domain.NovelHit, []domain.SourceError, error) {
	if keyword == "" {
		return nil, nil, domain.ErrEmptyKeyword
	}
	if opts.MaxResults <= 0 {
		opts = domain.DefaultSearchOptions()
	}

	ordered := prioritize(a.adapters)
	if len(ordered) == 0 {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opts.GlobalDeadline)
	defer cancel()

	items := make([]indexedAdapter, len(ordered))
	for i, ad := range ordered {
		items[i] = indexedAdapter{idx: i, ad: ad}
	}

	perSourceHits := make([][]domain.NovelHit, len(ordered))
	var errMu sync.Mutex
	var sourceErrors []domain.SourceError

	utils.ParallelForEach(ctx, items, len(items), func(ctx context.Context, item indexedAdapter) error {
		childCtx, cancel := context.WithTimeout(ctx, opts.PerSourceTTL)
		defer cancel()

		hits, err := item.ad.Search(childCtx, keyword)
		if err != nil {
			a.log.Warn().Err(err).Str("source", item.ad.Rule().Name).Str("keyword", keyword).Msg("source search failed")
			errMu.Lock()
			sourceErrors = append(sourceErrors, domain.SourceError{
				SourceID:   item.ad.Rule().ID,
				SourceName: item.ad.Rule().Name,
				Err:        err,
			})
			errMu.Unlock()
			return nil
		}
		if opts.PerSourceCap > 0 && len(hits) > opts.PerSourceCap {
			hits = hits[:opts.PerSourceCap]
		}
		perSourceHits[item.idx] = hits
		return nil
	})

	merged := merge(perSourceHits, tokenize(keyword), opts.MinScore)

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}
	return merged, sourceErrors, nil
}

// merge scores every hit, deduplicates by normalized (title, author),
// keeping the higher-scored hit on collision and the earlier source (by
// priority order, since perSourceHits is indexed in priority order) on a
// tie, then drops anything below minScore.
func merge(perSourceHits [][]domain.NovelHit, tokens []string, minScore float64) []domain.NovelHit {
	var out []domain.NovelHit
	index := make(map[string]int)

	for _, hits := range perSourceHits {
		for _, hit := range hits {
			hit.Score = score(hit, tokens) + rand.Float64()*0.1

			key := normalizeForDedup(hit.Title) + "|" + normalizeForDedup(hit.Author)
			if i, ok := index[key]; ok {
				if hit.Score > out[i].Score {
					out[i] = hit
				}
				continue
			}
			index[key] = len(out)
			out = append(out, hit)
		}
	}

	if minScore <= 0 {
		return out
	}
	filtered := make([]domain.NovelHit, 0, len(out))
	for _, hit := range out {
		if hit.Score >= minScore {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}
