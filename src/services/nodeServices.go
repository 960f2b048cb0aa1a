package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NodeService is the thin persistence boundary over the tenant's node
// collection plus the cascade delete engine. It does not validate tree
// invariants beyond what each operation needs; builders (import, check-in,
// reparent) are responsible for keeping level/path consistent.
type NodeService struct {
	db *gorm.DB
}

func NewNodeService(db *gorm.DB) *NodeService {
	return &NodeService{db: db}
}

func (s *NodeService) GetNode(id string) (*models.NodeModel, error) {
	var node models.NodeModel
	err := s.db.First(&node, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("node %s not found", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error loading node %s", id)
	}
	return &node, nil
}

// FindNodes runs a filtered query; conditions use column names, fields is an
// optional projection (nil selects everything).
func (s *NodeService) FindNodes(conditions map[string]any, fields []string) ([]models.NodeModel, error) {
	var nodes []models.NodeModel
	query := s.db.Model(&models.NodeModel{})
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	if len(fields) > 0 {
		query = query.Select(fields)
	}
	if err := query.Find(&nodes).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error querying nodes")
	}
	return nodes, nil
}

// ChildrenOf lists the direct children of a node; a nil parent lists roots.
func (s *NodeService) ChildrenOf(parentID *string) ([]models.NodeModel, error) {
	return s.ChildrenPage(parentID, 0, 0)
}

// ChildrenPage is ChildrenOf with an optional window; limit 0 means all.
func (s *NodeService) ChildrenPage(parentID *string, limit, offset int) ([]models.NodeModel, error) {
	var nodes []models.NodeModel
	query := s.db.Order("reference ASC")
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&nodes).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error querying children")
	}
	return nodes, nil
}

func (s *NodeService) InsertMany(nodes []models.NodeModel) error {
	if len(nodes) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(nodes, 200).Error; err != nil {
		return apperrors.NewStorageError(err, "error inserting %d nodes", len(nodes))
	}
	return nil
}

// UpsertMany merges nodes by their (reference, parent_id) key: an existing
// match keeps its id and checked state and only takes the attribute-bearing
// fields; everything else is inserted as-is.
func (s *NodeService) UpsertMany(nodes []models.NodeModel) error {
	var toInsert []models.NodeModel

	for _, node := range nodes {
		existing, err := s.FindSibling(node.Reference, node.ParentID)
		if err != nil {
			return err
		}
		if existing == nil {
			toInsert = append(toInsert, node)
			continue
		}
		if err := s.UpdateFields(existing.ID, map[string]any{"asset_data": node.AssetData}); err != nil {
			return err
		}
	}

	return s.InsertMany(toInsert)
}

// FindSibling looks up a node by the import merge key (reference, parent_id).
func (s *NodeService) FindSibling(reference string, parentID *string) (*models.NodeModel, error) {
	var node models.NodeModel
	query := s.db.Where("reference = ?", reference)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	err := query.First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error querying node %q", reference)
	}
	return &node, nil
}

// UpdateFields applies a partial column-level update. Map-based Updates skip
// gorm's field serializers, so the JSON-backed columns are marshalled here
// before the values reach the driver.
func (s *NodeService) UpdateFields(id string, fields map[string]any) error {
	encoded := make(map[string]any, len(fields))
	for column, value := range fields {
		switch column {
		case "path", "photos", "asset_data":
			raw, err := json.Marshal(value)
			if err != nil {
				return apperrors.NewStorageError(err, "error encoding %s for node %s", column, id)
			}
			encoded[column] = string(raw)
		default:
			encoded[column] = value
		}
	}
	if err := s.db.Model(&models.NodeModel{}).Where("id = ?", id).Updates(encoded).Error; err != nil {
		return apperrors.NewStorageError(err, "error updating node %s", id)
	}
	return nil
}

func (s *NodeService) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.Where("id IN ?", ids).Delete(&models.NodeModel{})
	if result.Error != nil {
		return 0, apperrors.NewStorageError(result.Error, "error deleting %d nodes", len(ids))
	}
	return result.RowsAffected, nil
}

// CollectSubtreeIDs expands the descendant closure of id by repeated
// parent_id lookups and returns {id} plus every transitive descendant.
// Construction guarantees the parent chain is acyclic, so no cycle guard.
func (s *NodeService) CollectSubtreeIDs(id string) ([]string, error) {
	all := []string{id}
	frontier := []string{id}

	for len(frontier) > 0 {
		var children []models.NodeModel
		err := s.db.Select("id").Where("parent_id IN ?", frontier).Find(&children).Error
		if err != nil {
			return nil, apperrors.NewStorageError(err, "error expanding subtree of %s", id)
		}

		frontier = frontier[:0]
		for _, child := range children {
			all = append(all, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	return all, nil
}

// DestroyCascade deletes a node together with its whole subtree and returns
// the number of deleted records. Safe to re-invoke: deleting an already
// missing id is a no-op.
func (s *NodeService) DestroyCascade(id string) (int64, error) {
	ids, err := s.CollectSubtreeIDs(id)
	if err != nil {
		return 0, err
	}
	return s.DeleteByIDs(ids)
}

// CreateNode creates a single node under an optional parent, deriving level
// and path from the parent chain. Used by the check-in endpoint; bulk
// creation goes through the import engine instead.
func (s *NodeService) CreateNode(reference string, nodeType models.NodeType, parentID *string) (*models.NodeModel, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.NewValidationError("reference is required")
	}
	if nodeType != models.NodeTypeLocation && nodeType != models.NodeTypeAsset {
		return nil, apperrors.NewValidationError("invalid node type %q", nodeType)
	}

	level := 0
	path := []string{reference}
	if parentID != nil {
		parent, err := s.GetNode(*parentID)
		if err != nil {
			return nil, err
		}
		level = parent.Level + 1
		path = append(append([]string{}, parent.Path...), reference)
	}

	node := models.NodeModel{
		ID:        uuid.NewString(),
		Reference: reference,
		NodeType:  nodeType,
		ParentID:  parentID,
		Level:     level,
		Path:      path,
		CreatedAt: time.Now(),
	}
	if nodeType == models.NodeTypeAsset {
		checked := false
		node.Checked = &checked
	}

	if err := s.db.Create(&node).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error creating node %q", reference)
	}
	return &node, nil
}

// CheckInAsset marks an asset as inventoried, stamping checked_at on the
// false→true transition and appending any new photo keys.
func (s *NodeService) CheckInAsset(id string, photoKeys []string, assetData map[string]any) (*models.NodeModel, error) {
	node, err := s.GetNode(id)
	if err != nil {
		return nil, err
	}
	if node.NodeType != models.NodeTypeAsset {
		return nil, apperrors.NewValidationError("node %s is not an asset", id)
	}

	fields := map[string]any{}
	if !node.IsChecked() {
		checked := true
		now := time.Now()
		node.Checked = &checked
		node.CheckedAt = &now
		fields["checked"] = true
		fields["checked_at"] = now
	}
	if len(photoKeys) > 0 {
		node.Photos = append(node.Photos, photoKeys...)
		fields["photos"] = node.Photos
	}
	if len(assetData) > 0 {
		if node.AssetData == nil {
			node.AssetData = map[string]any{}
		}
		for key, value := range assetData {
			node.AssetData[key] = value
		}
		fields["asset_data"] = node.AssetData
	}

	if len(fields) > 0 {
		if err := s.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// AppendPhoto pushes one storage key onto a node's photo list.
func (s *NodeService) AppendPhoto(id, photoKey string) error {
	node, err := s.GetNode(id)
	if err != nil {
		return err
	}
	return s.UpdateFields(id, map[string]any{"photos": append(node.Photos, photoKey)})
}

// Reparent moves a node under a new parent (nil makes it a root) and eagerly
// recomputes level and path for the node and its whole subtree, so cached
// projections never go stale.
func (s *NodeService) Reparent(id string, newParentID *string) error {
	node, err := s.GetNode(id)
	if err != nil {
		return err
	}

	newLevel := 0
	newPath := []string{node.Reference}
	if newParentID != nil {
		if *newParentID == id {
			return apperrors.NewValidationError("node %s cannot be its own parent", id)
		}
		parent, err := s.GetNode(*newParentID)
		if err != nil {
			return err
		}
		// moving under a descendant would cut a cycle into the parent chain
		ancestor := parent
		for ancestor != nil {
			if ancestor.ID == id {
				return apperrors.NewValidationError("node %s cannot be moved under its own subtree", id)
			}
			if ancestor.ParentID == nil {
				break
			}
			ancestor, err = s.GetNode(*ancestor.ParentID)
			if err != nil {
				return err
			}
		}
		newLevel = parent.Level + 1
		newPath = append(append([]string{}, parent.Path...), node.Reference)
	}

	err = s.UpdateFields(id, map[string]any{
		"parent_id": newParentID,
		"level":     newLevel,
		"path":      newPath,
	})
	if err != nil {
		return err
	}

	return s.recomputeDescendants(id, newLevel, newPath)
}

func (s *NodeService) recomputeDescendants(parentID string, parentLevel int, parentPath []string) error {
	children, err := s.ChildrenOf(&parentID)
	if err != nil {
		return err
	}

	for _, child := range children {
		childPath := append(append([]string{}, parentPath...), child.Reference)
		err := s.UpdateFields(child.ID, map[string]any{
			"level": parentLevel + 1,
			"path":  childPath,
		})
		if err != nil {
			return err
		}
		if err := s.recomputeDescendants(child.ID, parentLevel+1, childPath); err != nil {
			return err
		}
	}
	return nil
}
