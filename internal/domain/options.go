package domain

import "time"

// SearchOptions controls one Aggregator.SearchAll invocation.
type SearchOptions struct {
	MaxResults     int
	PerSourceCap   int
	GlobalDeadline time.Duration
	PerSourceTTL   time.Duration
	MinScore       float64
}

// DefaultSearchOptions returns the default search tuning.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults:     30,
		PerSourceCap:   2,
		GlobalDeadline: 15 * time.Second,
		PerSourceTTL:   15 * time.Second,
		MinScore:       0,
	}
}
