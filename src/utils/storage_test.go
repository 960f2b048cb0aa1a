package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateObjectKey(t *testing.T) {
	key := GenerateObjectKey("multi-tenant/client/acme/tasks", "My Report.XLSX")

	assert.True(t, strings.HasPrefix(key, "multi-tenant/client/acme/tasks/my_report__"), key)
	assert.True(t, strings.HasSuffix(key, ".xlsx"), key)

	// same name twice never collides
	other := GenerateObjectKey("multi-tenant/client/acme/tasks", "My Report.XLSX")
	assert.NotEqual(t, key, other)
}

func TestStoragePaths(t *testing.T) {
	tasks := TaskStoragePaths{Tenant: "acme"}
	assert.Equal(t, "multi-tenant/client/acme/tasks", tasks.Root())
	assert.Equal(t, "multi-tenant/client/acme/tasks/async/t-1", tasks.AsyncTask("t-1"))

	items := ItemStoragePaths{Tenant: "acme", ItemID: "n-9"}
	assert.Equal(t, "multi-tenant/client/acme/inventory-checks/n-9/images", items.Images())
}

func TestDetectImageExtension(t *testing.T) {
	assert.Equal(t, "jpg", DetectImageExtension([]byte{0xff, 0xd8, 0xff, 0xe0}))
	assert.Equal(t, "png", DetectImageExtension([]byte("\x89PNG\r\n\x1a\nrest")))
	assert.Equal(t, "gif", DetectImageExtension([]byte("GIF89a...")))
	assert.Equal(t, "webp", DetectImageExtension([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, "bin", DetectImageExtension([]byte("plain text")))
}
