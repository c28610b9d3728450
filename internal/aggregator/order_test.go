package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novelforge/novelcore/internal/adapter"
	"github.com/novelforge/novelcore/internal/rule"
	"github.com/novelforge/novelcore/internal/utils"
)

func fakeAdapter(id int) *adapter.Adapter {
	r := &rule.Rule{ID: id, Name: "source", BaseURL: "https://example.com", Enabled: true}
	return adapter.New(r, nil, nil, adapter.Options{}, utils.NewDefaultLogger())
}

func TestPrioritize_SortsBySourceIDAscending(t *testing.T) {
	adapters := []*adapter.Adapter{fakeAdapter(3), fakeAdapter(1), fakeAdapter(2)}
	ordered := prioritize(adapters)
	assert.Equal(t, 1, ordered[0].Rule().ID)
	assert.Equal(t, 2, ordered[1].Rule().ID)
	assert.Equal(t, 3, ordered[2].Rule().ID)
}

func TestPrioritize_DoesNotMutateInput(t *testing.T) {
	adapters := []*adapter.Adapter{fakeAdapter(3), fakeAdapter(1)}
	_ = prioritize(adapters)
	assert.Equal(t, 3, adapters[0].Rule().ID)
}
