package utils

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultFanOutLimit caps concurrent in-flight storage fetches.
const DefaultFanOutLimit = 10

// ResolveAll runs fn for indexes 0..n-1 under a bounded concurrency ceiling
// and returns the results in input order. Each item is failure-isolated: an
// error resolves that slot to nil without affecting the rest of the batch.
func ResolveAll[T any](ctx context.Context, limit int64, n int, fn func(ctx context.Context, i int) (T, error)) []*T {
	if limit <= 0 {
		limit = DefaultFanOutLimit
	}

	results := make([]*T, n)
	sem := semaphore.NewWeighted(limit)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			// context cancelled; remaining slots stay nil
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			value, err := fn(ctx, i)
			if err != nil {
				return
			}
			results[i] = &value
		}(i)
	}

	wg.Wait()
	return results
}

// PresignAll resolves storage keys to temporary URLs in parallel. Keys that
// fail to resolve yield nil entries, never errors.
func PresignAll(ctx context.Context, storage ObjectStorage, keys []string) []*string {
	return ResolveAll(ctx, DefaultFanOutLimit, len(keys), func(ctx context.Context, i int) (string, error) {
		return storage.Presign(ctx, keys[i], PresignTTL)
	})
}

// DownloadAll fetches storage objects in parallel under the fan-out ceiling.
// Failed downloads yield nil entries.
func DownloadAll(ctx context.Context, storage ObjectStorage, keys []string) []*[]byte {
	return ResolveAll(ctx, DefaultFanOutLimit, len(keys), func(ctx context.Context, i int) ([]byte, error) {
		return storage.Download(ctx, keys[i])
	})
}
