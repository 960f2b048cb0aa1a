package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAllFailureIsolation(t *testing.T) {
	results := ResolveAll(context.Background(), 2, 5, func(ctx context.Context, i int) (string, error) {
		if i == 3 {
			return "", errors.New("forced")
		}
		return fmt.Sprintf("value-%d", i), nil
	})

	require.Len(t, results, 5)
	for i, result := range results {
		if i == 3 {
			assert.Nil(t, result)
			continue
		}
		require.NotNil(t, result)
		assert.Equal(t, fmt.Sprintf("value-%d", i), *result)
	}
}

func TestResolveAllRespectsConcurrencyLimit(t *testing.T) {
	var current, peak int64
	var mu sync.Mutex

	ResolveAll(context.Background(), 3, 20, func(ctx context.Context, i int) (int, error) {
		now := atomic.AddInt64(&current, 1)
		mu.Lock()
		if now > peak {
			peak = now
		}
		mu.Unlock()
		atomic.AddInt64(&current, -1)
		return i, nil
	})

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(3))
}

func TestResolveAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ResolveAll(ctx, 1, 4, func(ctx context.Context, i int) (int, error) {
		return i, nil
	})

	require.Len(t, results, 4)
	for _, result := range results {
		assert.Nil(t, result)
	}
}

func TestPresignAll(t *testing.T) {
	storage := NewMemoryStorage()
	storage.FailKeys["b"] = true

	urls := PresignAll(context.Background(), storage, []string{"a", "b", "c"})
	require.Len(t, urls, 3)
	require.NotNil(t, urls[0])
	assert.Equal(t, "memory://a", *urls[0])
	assert.Nil(t, urls[1])
	require.NotNil(t, urls[2])
	assert.Equal(t, "memory://c", *urls[2])
}

func TestDownloadAll(t *testing.T) {
	storage := NewMemoryStorage()
	_, err := storage.Put(context.Background(), "a", []byte("alpha"))
	require.NoError(t, err)

	blobs := DownloadAll(context.Background(), storage, []string{"a", "missing"})
	require.Len(t, blobs, 2)
	require.NotNil(t, blobs[0])
	assert.Equal(t, []byte("alpha"), *blobs[0])
	assert.Nil(t, blobs[1])
}
