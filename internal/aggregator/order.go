package aggregator

import (
	"sort"

	"github.com/novelforge/novelcore/internal/adapter"
)

// prioritize sorts adapters by source id ascending before fan-out, so
// that submission order is deterministic — this is what "returned it
// first" means when the Aggregator breaks a score tie between two hits.
func prioritize(adapters []*adapter.Adapter) []*adapter.Adapter {
	out := make([]*adapter.Adapter, len(adapters))
	copy(out, adapters)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rule().ID < out[j].Rule().ID
	})
	return out
}
