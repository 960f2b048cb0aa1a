package utils

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage is the blob storage boundary. Keys are opaque relative paths;
// URLs only exist transiently via Presign and are never stored.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Presign(ctx context.Context, key string, expires time.Duration) (string, error)
	Move(ctx context.Context, sourceKey, destinationKey string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// PresignTTL is the default lifetime for temporary access URLs.
const PresignTTL = time.Hour

// GenerateObjectKey builds a collision-free storage key under prefix for the
// given file name: <prefix>/<name>__<timestamp>__<uuid><ext>
func GenerateObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	name = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	timestamp := time.Now().Format("02012006_150405")

	return fmt.Sprintf("%s/%s__%s__%s%s", prefix, name, timestamp, uuid.NewString(), ext)
}

// TaskStoragePaths builds the tenant-scoped storage prefixes for async task results.
type TaskStoragePaths struct {
	Tenant string
}

func (p TaskStoragePaths) Root() string {
	return fmt.Sprintf("multi-tenant/client/%s/tasks", p.Tenant)
}

func (p TaskStoragePaths) AsyncTask(taskID string) string {
	return fmt.Sprintf("%s/async/%s", p.Root(), taskID)
}

// ItemStoragePaths builds the tenant-scoped storage prefixes for node photos.
type ItemStoragePaths struct {
	Tenant string
	ItemID string
}

func (p ItemStoragePaths) Root() string {
	return fmt.Sprintf("multi-tenant/client/%s/inventory-checks/%s", p.Tenant, p.ItemID)
}

func (p ItemStoragePaths) Images() string {
	return p.Root() + "/images"
}
