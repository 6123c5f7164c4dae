// Package pool runs a bounded number of API calls concurrently.
package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Run processes items with at most numWorkers goroutines and returns the
// errors of the failed items. Items not yet started when ctx ends are
// skipped; ctx.Err() is then part of the result.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []error {
	if len(items) == 0 {
		return nil
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	var wg sync.WaitGroup
	taskChan := make(chan T)
	errChan := make(chan error, len(items)+1)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range taskChan {
				if err := workerFunc(ctx, item); err != nil {
					errChan <- err
				}
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case <-ctx.Done():
			errChan <- ctx.Err()
			break feed
		default:
		}
		select {
		case taskChan <- item:
		case <-ctx.Done():
			errChan <- ctx.Err()
			break feed
		}
	}
	close(taskChan)

	wg.Wait()
	close(errChan)

	var allErrors []error
	for err := range errChan {
		allErrors = append(allErrors, err)
	}
	return allErrors
}
