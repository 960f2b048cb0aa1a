package services

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, data := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestUploadFromArchiveMatchesAssets(t *testing.T) {
	conn := newTestDB(t)
	nodes := NewNodeService(conn)
	storage := utils.NewMemoryStorage()
	uploads := NewImageUploadService(conn, storage)

	depot := mustCreateNode(t, nodes, "Depot", models.NodeTypeLocation, nil)
	forklift := mustCreateNode(t, nodes, "Forklift", models.NodeTypeAsset, &depot.ID)

	archive := buildArchive(t, map[string][]byte{
		"Depot/Forklift.jpg":   {0xff, 0xd8, 0xff},
		"Depot/Forklift-2.jpg": {0xff, 0xd8, 0xff},
		"Depot/Nothing.jpg":    {0xff, 0xd8, 0xff},
	})
	_, err := storage.Put(context.Background(), "staging/photos.zip", archive)
	require.NoError(t, err)

	summary, err := uploads.UploadFromArchive(context.Background(), "acme", "staging/photos.zip")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Uploaded)
	assert.Equal(t, 1, summary.Unmatched)
	assert.Empty(t, summary.Errors)

	reloaded, err := nodes.GetNode(forklift.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Photos, 2)

	prefix := utils.ItemStoragePaths{Tenant: "acme", ItemID: forklift.ID}.Images()
	for _, key := range reloaded.Photos {
		assert.True(t, strings.HasPrefix(key, prefix), key)
		_, stored := storage.Object(key)
		assert.True(t, stored)
	}

	// the staged archive is retired out of staging
	_, stillStaged := storage.Object("staging/photos.zip")
	assert.False(t, stillStaged)
	_, retired := storage.Object("staging/processed/photos.zip")
	assert.True(t, retired)
}

func TestUploadFromArchiveDisambiguatesByFolder(t *testing.T) {
	conn := newTestDB(t)
	nodes := NewNodeService(conn)
	storage := utils.NewMemoryStorage()
	uploads := NewImageUploadService(conn, storage)

	depot := mustCreateNode(t, nodes, "Depot", models.NodeTypeLocation, nil)
	annex := mustCreateNode(t, nodes, "Annex", models.NodeTypeLocation, nil)
	mustCreateNode(t, nodes, "Printer", models.NodeTypeAsset, &depot.ID)
	annexPrinter := mustCreateNode(t, nodes, "Printer", models.NodeTypeAsset, &annex.ID)

	archive := buildArchive(t, map[string][]byte{
		"Annex/Printer.png": []byte("\x89PNG\r\n\x1a\n"),
	})
	_, err := storage.Put(context.Background(), "staging/one.zip", archive)
	require.NoError(t, err)

	summary, err := uploads.UploadFromArchive(context.Background(), "acme", "staging/one.zip")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Uploaded)

	reloaded, err := nodes.GetNode(annexPrinter.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Photos, 1)
}

func TestUploadFromArchiveMissingArchive(t *testing.T) {
	conn := newTestDB(t)
	uploads := NewImageUploadService(conn, utils.NewMemoryStorage())

	_, err := uploads.UploadFromArchive(context.Background(), "acme", "staging/missing.zip")
	assert.Error(t, err)
}
