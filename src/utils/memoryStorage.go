package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
)

// MemoryStorage is an in-process ObjectStorage used by tests and local runs
// without a bucket. FailKeys lets tests force per-key failures.
type MemoryStorage struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	FailKeys map[string]bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects:  make(map[string][]byte),
		FailKeys: make(map[string]bool),
	}
}

func (s *MemoryStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	if s.FailKeys[key] {
		return "", apperrors.NewStorageError(errors.New("forced failure"), "error saving object %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return key, nil
}

func (s *MemoryStorage) Presign(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.FailKeys[key] {
		return "", apperrors.NewStorageError(errors.New("forced failure"), "error generating presigned URL for %s", key)
	}
	return "memory://" + key, nil
}

func (s *MemoryStorage) Move(ctx context.Context, sourceKey, destinationKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[sourceKey]
	if !ok {
		return "", apperrors.NewStorageError(errors.New("object missing"), "error moving object from %s to %s", sourceKey, destinationKey)
	}
	s.objects[destinationKey] = data
	delete(s.objects, sourceKey)
	return destinationKey, nil
}

func (s *MemoryStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if s.FailKeys[key] {
		return nil, apperrors.NewStorageError(errors.New("forced failure"), "error downloading object %s", key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, apperrors.NewStorageError(errors.New("object missing"), "error downloading object %s", key)
	}
	return data, nil
}

// Object returns the stored bytes for a key, for test assertions.
func (s *MemoryStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys lists every stored key, for test assertions.
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}
