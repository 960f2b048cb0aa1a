package services

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/google/uuid"
	excelize "github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportOptions configures how tabular input maps onto the tree. Columns left
// of DelimiterColumn are ordered level columns defining hierarchy depth;
// AttributeColumns name the columns that become asset_data on the deepest
// asset of each row.
type ImportOptions struct {
	DelimiterColumn  string
	AttributeColumns []string
	// LocationPrefix marks level columns whose nodes are LOCATION rather
	// than ASSET (case-insensitive name prefix). Defaults to "loc".
	LocationPrefix string
}

type ImportSummary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Rows    int      `json:"rows"`
	Errors  []string `json:"errors"`
}

type nodeKey struct {
	reference string
	parentID  string
}

// ImportService merges tabular datasets into the node tree. Structure is
// idempotent: re-importing the same rows matches every (reference, parent_id)
// key again and creates nothing new.
type ImportService struct {
	db    *gorm.DB
	nodes *NodeService
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db, nodes: NewNodeService(db)}
}

// ImportRows walks every row left to right across the level columns,
// accumulating the ancestor path and creating or reusing one node per level.
// Rows are independent except through the shared dedup map.
func (s *ImportService) ImportRows(columns []string, rows [][]any, opts ImportOptions) (*ImportSummary, error) {
	delimiterIndex := -1
	for i, column := range columns {
		if column == opts.DelimiterColumn {
			delimiterIndex = i
			break
		}
	}
	if delimiterIndex < 0 {
		return nil, apperrors.NewValidationError("delimiter column %q not found", opts.DelimiterColumn)
	}

	locationPrefix := strings.ToLower(opts.LocationPrefix)
	if locationPrefix == "" {
		locationPrefix = "loc"
	}

	columnIndex := make(map[string]int, len(columns))
	for i, column := range columns {
		columnIndex[column] = i
	}

	levelColumns := columns[:delimiterIndex]

	seen := make(map[nodeKey]string)                         // (reference, parent) -> id for this batch
	siblings := make(map[string]map[string]models.NodeModel) // parent -> reference -> pre-existing node
	var created []models.NodeModel
	summary := &ImportSummary{Rows: len(rows)}

	for _, row := range rows {
		var parentID *string
		var path []string

		depth := rowDepth(row, len(levelColumns))

		for level := 0; level < depth; level++ {
			value := strings.TrimSpace(cellString(cell(row, level)))
			path = append(path, value)

			key := nodeKey{reference: value, parentID: deref(parentID)}
			isLocation := strings.HasPrefix(strings.ToLower(levelColumns[level]), locationPrefix)
			deepest := level == depth-1

			if id, ok := seen[key]; ok {
				parentID = &id
				continue
			}

			existing, err := s.lookupSibling(siblings, value, parentID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				seen[key] = existing.ID
				// merge: refresh asset_data, keep id and checked untouched
				if deepest && !isLocation {
					assetData := buildAssetData(columns, columnIndex, row, opts.AttributeColumns)
					if assetData != nil {
						if err := s.nodes.UpdateFields(existing.ID, map[string]any{"asset_data": assetData}); err != nil {
							return nil, err
						}
					}
					// the key match counts even when there is nothing to write
					summary.Updated++
				}
				id := existing.ID
				parentID = &id
				continue
			}

			node := models.NodeModel{
				ID:        uuid.NewString(),
				Reference: value,
				NodeType:  models.NodeTypeAsset,
				ParentID:  parentID,
				Level:     level,
				Path:      append([]string{}, path...),
				CreatedAt: time.Now(),
			}
			if isLocation {
				node.NodeType = models.NodeTypeLocation
			} else {
				checked := false
				node.Checked = &checked
			}
			if deepest && !isLocation {
				node.AssetData = buildAssetData(columns, columnIndex, row, opts.AttributeColumns)
			}

			created = append(created, node)
			seen[key] = node.ID
			summary.Created++
			id := node.ID
			parentID = &id
		}
	}

	if err := s.nodes.InsertMany(created); err != nil {
		return nil, err
	}
	return summary, nil
}

// ImportFromExcel reads the first (or named) sheet, takes row one as the
// column header and feeds the rest through ImportRows.
func (s *ImportService) ImportFromExcel(r io.Reader, sheet string, opts ImportOptions) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid excel file: %v", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewValidationError("could not read sheet %q: %v", sheet, err)
	}
	if len(rows) == 0 {
		return &ImportSummary{}, nil
	}

	columns := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		columns[i] = strings.TrimSpace(header)
	}

	data := make([][]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		converted := make([]any, len(row))
		for i, value := range row {
			converted[i] = value
		}
		data = append(data, converted)
	}

	return s.ImportRows(columns, data, opts)
}

// lookupSibling consults pre-existing nodes under a parent, loading each
// parent's children from the store at most once per import.
func (s *ImportService) lookupSibling(cache map[string]map[string]models.NodeModel, reference string, parentID *string) (*models.NodeModel, error) {
	parentKey := deref(parentID)
	bucket, ok := cache[parentKey]
	if !ok {
		children, err := s.nodes.ChildrenOf(parentID)
		if err != nil {
			return nil, err
		}
		bucket = make(map[string]models.NodeModel, len(children))
		for _, child := range children {
			bucket[child.Reference] = child
		}
		cache[parentKey] = bucket
	}

	if node, ok := bucket[reference]; ok {
		return &node, nil
	}
	return nil, nil
}

// rowDepth counts the contiguous present cells from the first level column;
// the first blank cell truncates the row regardless of what follows.
func rowDepth(row []any, levelCount int) int {
	depth := 0
	for i := 0; i < levelCount; i++ {
		if strings.TrimSpace(cellString(cell(row, i))) == "" {
			break
		}
		depth++
	}
	return depth
}

func buildAssetData(columns []string, columnIndex map[string]int, row []any, attributeColumns []string) map[string]any {
	if len(attributeColumns) == 0 {
		return nil
	}

	assetData := map[string]any{}
	for _, name := range attributeColumns {
		index, ok := columnIndex[name]
		if !ok {
			continue
		}
		value := normalizeCell(cell(row, index))
		if value == nil {
			continue
		}
		assetData[name] = value
	}

	if len(assetData) == 0 {
		return nil
	}
	return assetData
}

func cell(row []any, index int) any {
	if index < 0 || index >= len(row) {
		return nil
	}
	return row[index]
}

// normalizeCell keeps scalar values as-is, drops empty/NaN cells and
// stringifies anything else.
func normalizeCell(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return v
	case bool, int, int32, int64:
		return v
	case float32:
		if math.IsNaN(float64(v)) {
			return nil
		}
		return v
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

func cellString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
