package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"gorm.io/gorm"
)

// UploadSummary reports the outcome of a bulk photo upload.
type UploadSummary struct {
	Uploaded  int      `json:"uploaded"`
	Unmatched int      `json:"unmatched"`
	Errors    []string `json:"errors,omitempty"`
}

// ImageUploadService attaches photos from a client-provided archive to the
// assets they name. Entries are matched by filename (the asset reference) and
// disambiguated by their folder path when several assets share a reference.
type ImageUploadService struct {
	db      *gorm.DB
	nodes   *NodeService
	storage utils.ObjectStorage
}

func NewImageUploadService(db *gorm.DB, storage utils.ObjectStorage) *ImageUploadService {
	return &ImageUploadService{db: db, nodes: NewNodeService(db), storage: storage}
}

// UploadFromArchive downloads the staged archive, matches every image entry
// to an asset and stores it under the asset's image prefix. Unmatched or
// broken entries are counted and reported, never fatal.
func (s *ImageUploadService) UploadFromArchive(ctx context.Context, tenant, archiveKey string) (*UploadSummary, error) {
	data, err := s.storage.Download(ctx, archiveKey)
	if err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening image archive: %w", err)
	}

	summary := &UploadSummary{}
	byReference := make(map[string][]models.NodeModel)

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || strings.HasPrefix(path.Base(entry.Name), ".") {
			continue
		}

		reference := referenceFromEntryName(entry.Name)
		if reference == "" {
			summary.Unmatched++
			continue
		}

		candidates, ok := byReference[reference]
		if !ok {
			candidates, err = s.nodes.FindNodes(map[string]any{
				"reference": reference,
				"node_type": models.NodeTypeAsset,
			}, nil)
			if err != nil {
				return nil, err
			}
			byReference[reference] = candidates
		}

		asset := matchByFolder(candidates, path.Dir(entry.Name))
		if asset == nil {
			summary.Unmatched++
			continue
		}

		contents, err := readZipEntry(entry)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}

		prefix := utils.ItemStoragePaths{Tenant: tenant, ItemID: asset.ID}.Images()
		key := utils.GenerateObjectKey(prefix, path.Base(entry.Name))
		if _, err := s.storage.Put(ctx, key, contents); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}
		if err := s.nodes.AppendPhoto(asset.ID, key); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}
		summary.Uploaded++
	}

	// retire the archive out of staging so a retry cannot replay it
	processedKey := path.Dir(archiveKey) + "/processed/" + path.Base(archiveKey)
	if _, err := s.storage.Move(ctx, archiveKey, processedKey); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", archiveKey, err))
	}

	return summary, nil
}

// referenceFromEntryName strips the extension and an optional "-N" copy
// suffix, so "Laptop-2.jpg" and "Laptop.jpg" both target asset "Laptop".
func referenceFromEntryName(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))

	if dash := strings.LastIndex(base, "-"); dash > 0 {
		suffix := base[dash+1:]
		numeric := len(suffix) > 0
		for _, r := range suffix {
			if r < '0' || r > '9' {
				numeric = false
				break
			}
		}
		if numeric {
			base = base[:dash]
		}
	}
	return strings.TrimSpace(base)
}

// matchByFolder picks the candidate whose ancestor path matches the entry's
// folder. A single candidate matches regardless of folder; with several, the
// folder segments must equal the tail of the asset's ancestor references.
func matchByFolder(candidates []models.NodeModel, folder string) *models.NodeModel {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return &candidates[0]
	}

	folder = strings.Trim(folder, "./")
	segments := []string{}
	if folder != "" {
		segments = strings.Split(folder, "/")
	}

	for i := range candidates {
		ancestors := candidates[i].Path
		if len(ancestors) > 0 {
			ancestors = ancestors[:len(ancestors)-1]
		}
		if len(segments) > len(ancestors) {
			continue
		}
		tail := ancestors[len(ancestors)-len(segments):]
		matched := true
		for j, segment := range segments {
			if tail[j] != segment {
				matched = false
				break
			}
		}
		if matched {
			return &candidates[i]
		}
	}
	return nil
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
