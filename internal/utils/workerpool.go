package utils

import (
	"context"
	"sync"
)

// ParallelForEach executes fn for each item in parallel across at most
// workers goroutines, returning one error per item in input order. A
// cancelled ctx stops new work from starting; items not yet dispatched
// when ctx is cancelled are left with a nil error in the result slice.
func ParallelForEach[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) []error {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	errs := make([]error, len(items))
	taskChan := make(chan int, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-taskChan:
					if !ok {
						return
					}
					err := fn(ctx, items[idx])
					mu.Lock()
					errs[idx] = err
					mu.Unlock()
				}
			}
		}()
	}

	for i := range items {
		select {
		case <-ctx.Done():
			close(taskChan)
			wg.Wait()
			return errs
		case taskChan <- i:
		}
	}

	close(taskChan)
	wg.Wait()

	return errs
}
