package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/dtos"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/utils"
	excelize "github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImageExportMode string

const (
	ImageExportAll    ImageExportMode = "EXPORT_ALL"
	ImageExportTree   ImageExportMode = "EXPORT_TREE"
	ImageExportSingle ImageExportMode = "EXPORT_SINGLE"
)

// ReportFile is a materialized report ready for storage or download.
type ReportFile struct {
	Filename string
	Data     []byte
}

// ReportService derives hierarchical projections from the flat node store:
// valid-root resolution, subtree flattening, ancestor-path classification and
// presentation ordering, plus the report builders composed from them.
type ReportService struct {
	db      *gorm.DB
	nodes   *NodeService
	storage utils.ObjectStorage
}

func NewReportService(db *gorm.DB, storage utils.ObjectStorage) *ReportService {
	return &ReportService{db: db, nodes: NewNodeService(db), storage: storage}
}

// ResolveValidRoots reduces a candidate id set to its maximal independent
// members: a candidate whose ancestor chain contains another candidate is
// redundant and dropped. An empty candidate set means every level-0 node.
func (s *ReportService) ResolveValidRoots(candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		roots, err := s.nodes.FindNodes(map[string]any{"level": 0}, []string{"id"})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(roots))
		for _, root := range roots {
			ids = append(ids, root.ID)
		}
		return ids, nil
	}

	var candidates []models.NodeModel
	err := s.db.Select("id", "parent_id").Where("id IN ?", candidateIDs).Find(&candidates).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error loading root candidates")
	}

	candidateSet := make(map[string]*string, len(candidates))
	for _, candidate := range candidates {
		candidateSet[candidate.ID] = candidate.ParentID
	}

	var valid []string
	for _, candidate := range candidates {
		covered := false
		parentID := candidate.ParentID

		for parentID != nil {
			if _, ok := candidateSet[*parentID]; ok {
				covered = true
				break
			}
			var parent models.NodeModel
			err := s.db.Select("id", "parent_id").First(&parent, "id = ?", *parentID).Error
			if err != nil {
				// dangling parent pointer ends the chain
				break
			}
			parentID = parent.ParentID
		}

		if !covered {
			valid = append(valid, candidate.ID)
		}
	}
	return valid, nil
}

// FlattenSubtree expands every valid root into its full subtree and tags each
// gathered node with the originating root's id.
func (s *ReportService) FlattenSubtree(rootIDs []string) ([]dtos.TaggedNodeDTO, error) {
	var flattened []dtos.TaggedNodeDTO

	for _, rootID := range rootIDs {
		root, err := s.nodes.GetNode(rootID)
		if err != nil {
			return nil, err
		}

		flattened = append(flattened, dtos.TaggedNodeDTO{Node: *root, RootID: rootID})
		frontier := []string{rootID}

		for len(frontier) > 0 {
			var children []models.NodeModel
			err := s.db.Where("parent_id IN ?", frontier).Find(&children).Error
			if err != nil {
				return nil, apperrors.NewStorageError(err, "error expanding subtree of %s", rootID)
			}

			frontier = frontier[:0]
			for _, child := range children {
				flattened = append(flattened, dtos.TaggedNodeDTO{Node: child, RootID: rootID})
				frontier = append(frontier, child.ID)
			}
		}
	}

	return flattened, nil
}

// BuildAncestorPaths walks a node's full ancestor chain and projects it two
// ways: location_path (LOCATION ancestors root-to-leaf, plus the node itself
// when it is a location) and hierarchy_path (ASSET ancestors plus the node
// itself when it is an asset). depth_in_hierarchy == 1 classifies the node as
// PARENT, deeper as CHILD.
func (s *ReportService) BuildAncestorPaths(nodeID string) (*dtos.AncestorPathsDTO, error) {
	node, err := s.nodes.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	ancestors, err := s.ancestorChain(node, nil)
	if err != nil {
		return nil, err
	}
	return buildAncestorPaths(node, ancestors), nil
}

// ancestorChain returns a node's ancestors ordered nearest first, optionally
// consulting an in-memory cache before the store.
func (s *ReportService) ancestorChain(node *models.NodeModel, cache map[string]*models.NodeModel) ([]*models.NodeModel, error) {
	var chain []*models.NodeModel
	parentID := node.ParentID

	for parentID != nil {
		var parent *models.NodeModel
		if cache != nil {
			parent = cache[*parentID]
		}
		if parent == nil {
			loaded, err := s.nodes.GetNode(*parentID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					break
				}
				return nil, err
			}
			parent = loaded
			if cache != nil {
				cache[parent.ID] = parent
			}
		}
		chain = append(chain, parent)
		parentID = parent.ParentID
	}
	return chain, nil
}

func buildAncestorPaths(node *models.NodeModel, nearestFirst []*models.NodeModel) *dtos.AncestorPathsDTO {
	// reverse to root-to-leaf order
	chain := make([]*models.NodeModel, len(nearestFirst))
	for i, ancestor := range nearestFirst {
		chain[len(nearestFirst)-1-i] = ancestor
	}

	var locationPath, hierarchyPath []string
	for _, ancestor := range chain {
		if ancestor.NodeType == models.NodeTypeLocation {
			locationPath = append(locationPath, ancestor.Reference)
		} else {
			hierarchyPath = append(hierarchyPath, ancestor.Reference)
		}
	}
	if node.NodeType == models.NodeTypeLocation {
		locationPath = append(locationPath, node.Reference)
	} else {
		hierarchyPath = append(hierarchyPath, node.Reference)
	}

	depth := (node.Level + 1) - len(locationPath)
	classification := dtos.HierarchyStandChild
	if depth == 1 {
		classification = dtos.HierarchyStandParent
	}

	return &dtos.AncestorPathsDTO{
		LocationPath:     locationPath,
		HierarchyPath:    hierarchyPath,
		DepthInHierarchy: depth,
		Classification:   classification,
	}
}

// FlattenForPresentation orders report rows for document layout: within each
// parent context, plain rows (leaves) come first, then every row that itself
// has children, immediately followed by its own flattened children. This is a
// layout ordering keyed by parent_reference, not canonical tree order.
func FlattenForPresentation(rows []dtos.AgreementRowDTO) []dtos.AgreementRowDTO {
	childrenByParent := make(map[string][]dtos.AgreementRowDTO)
	references := make(map[string]bool, len(rows))
	for _, row := range rows {
		childrenByParent[row.ParentReference] = append(childrenByParent[row.ParentReference], row)
		references[row.Reference] = true
	}

	isParent := make(map[string]bool)
	for reference := range references {
		if len(childrenByParent[reference]) > 0 {
			isParent[reference] = true
		}
	}

	ordered := make([]dtos.AgreementRowDTO, 0, len(rows))
	var emit func(parentReference string)
	emit = func(parentReference string) {
		children := childrenByParent[parentReference]
		for _, child := range children {
			if !isParent[child.Reference] {
				ordered = append(ordered, child)
			}
		}
		for _, child := range children {
			if isParent[child.Reference] {
				ordered = append(ordered, child)
				emit(child.Reference)
			}
		}
	}

	emitted := make(map[string]bool)
	for _, row := range rows {
		if references[row.ParentReference] || emitted[row.ParentReference] {
			continue
		}
		emitted[row.ParentReference] = true
		emit(row.ParentReference)
	}

	return ordered
}

// BuildItemsTree materializes the analytical tree: valid roots expanded
// breadth-first, every node's photo keys exchanged for temporary URLs through
// the bounded fan-out.
func (s *ReportService) BuildItemsTree(ctx context.Context, parentIDs []string) ([]*dtos.ItemNodeDTO, error) {
	rootIDs, err := s.ResolveValidRoots(parentIDs)
	if err != nil {
		return nil, err
	}
	if len(rootIDs) == 0 {
		return []*dtos.ItemNodeDTO{}, nil
	}

	var rootDocs []models.NodeModel
	if err := s.db.Where("id IN ?", rootIDs).Find(&rootDocs).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error loading report roots")
	}

	nodesByID := make(map[string]*dtos.ItemNodeDTO)
	var roots []*dtos.ItemNodeDTO
	var queue []string

	for _, doc := range rootDocs {
		item := s.toItemNode(ctx, &doc)
		nodesByID[doc.ID] = item
		roots = append(roots, item)
		queue = append(queue, doc.ID)
	}

	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		parent := nodesByID[parentID]

		var children []models.NodeModel
		if err := s.db.Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
			return nil, apperrors.NewStorageError(err, "error loading report children")
		}

		for i := range children {
			child := children[i]
			if _, ok := nodesByID[child.ID]; ok {
				continue
			}
			item := s.toItemNode(ctx, &child)
			parent.Children = append(parent.Children, item)
			nodesByID[child.ID] = item
			queue = append(queue, child.ID)
		}
	}

	return roots, nil
}

func (s *ReportService) toItemNode(ctx context.Context, node *models.NodeModel) *dtos.ItemNodeDTO {
	item := &dtos.ItemNodeDTO{
		ID:        node.ID,
		Name:      node.Reference,
		NodeType:  node.NodeType,
		IsChecked: node.IsChecked(),
		CheckedAt: node.CheckedAt,
		Photos:    []string{},
		Children:  []*dtos.ItemNodeDTO{},
	}
	for _, url := range utils.PresignAll(ctx, s.storage, node.Photos) {
		if url != nil {
			item.Photos = append(item.Photos, *url)
		}
	}
	return item
}

// CreateAnalyticalReport renders the items tree into a workbook, one row per
// node indented by depth.
func (s *ReportService) CreateAnalyticalReport(ctx context.Context, parentIDs []string) (*ReportFile, error) {
	tree, err := s.BuildItemsTree(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []any{"Reference", "Type", "Checked", "Checked At", "Photos"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("error writing report header: %w", err)
	}

	rowIndex := 2
	var write func(node *dtos.ItemNodeDTO, depth int) error
	write = func(node *dtos.ItemNodeDTO, depth int) error {
		checked := "NO"
		if node.IsChecked {
			checked = "YES"
		}
		checkedAt := ""
		if node.CheckedAt != nil {
			checkedAt = node.CheckedAt.Format("2006-01-02 15:04")
		}
		row := []any{
			strings.Repeat("    ", depth) + node.Name,
			string(node.NodeType),
			checked,
			checkedAt,
			len(node.Photos),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &row); err != nil {
			return fmt.Errorf("error writing report row: %w", err)
		}
		rowIndex++
		for _, child := range node.Children {
			if err := write(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range tree {
		if err := write(root, 0); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error serializing report: %w", err)
	}

	return &ReportFile{
		Filename: fmt.Sprintf("analytical_report_%s.xlsx", time.Now().Format("02012006_150405")),
		Data:     buf.Bytes(),
	}, nil
}

// CreateResponsibilityAgreementReport groups every asset under its root
// location, classifies it PARENT or CHILD via the dual ancestor projection
// and lays the rows out leaves-before-subtrees per location section.
func (s *ReportService) CreateResponsibilityAgreementReport(ctx context.Context, parentLocationIDs []string) (*ReportFile, error) {
	rootIDs, err := s.ResolveValidRoots(parentLocationIDs)
	if err != nil {
		return nil, err
	}

	flattened, err := s.FlattenSubtree(rootIDs)
	if err != nil {
		return nil, err
	}

	cache := make(map[string]*models.NodeModel, len(flattened))
	for i := range flattened {
		node := flattened[i].Node
		cache[node.ID] = &node
	}

	rowsByRoot := make(map[string][]dtos.AgreementRowDTO)
	for i := range flattened {
		node := flattened[i].Node
		if node.NodeType != models.NodeTypeAsset {
			continue
		}

		ancestors, err := s.ancestorChain(&node, cache)
		if err != nil {
			return nil, err
		}
		paths := buildAncestorPaths(&node, ancestors)

		parentReference := ""
		if len(paths.HierarchyPath) > 1 {
			parentReference = paths.HierarchyPath[len(paths.HierarchyPath)-2]
		}

		rowsByRoot[flattened[i].RootID] = append(rowsByRoot[flattened[i].RootID], dtos.AgreementRowDTO{
			Reference:       node.Reference,
			ParentReference: parentReference,
			LocationPath:    paths.LocationPath,
			Classification:  paths.Classification,
			Checked:         node.IsChecked(),
			CheckedAt:       node.CheckedAt,
		})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rowIndex := 1
	for _, rootID := range rootIDs {
		rows := rowsByRoot[rootID]
		if len(rows) == 0 {
			continue
		}

		root := cache[rootID]
		section := []any{strings.Join(root.Path, " > ")}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &section); err != nil {
			return nil, fmt.Errorf("error writing section header: %w", err)
		}
		rowIndex++

		headers := []any{"Reference", "Parent", "Location", "Stand", "Checked"}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &headers); err != nil {
			return nil, fmt.Errorf("error writing section columns: %w", err)
		}
		rowIndex++

		for _, row := range FlattenForPresentation(rows) {
			checked := "NO"
			if row.Checked {
				checked = "YES"
			}
			line := []any{
				row.Reference,
				row.ParentReference,
				strings.Join(row.LocationPath, " > "),
				string(row.Classification),
				checked,
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIndex), &line); err != nil {
				return nil, fmt.Errorf("error writing agreement row: %w", err)
			}
			rowIndex++
		}
		rowIndex++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error serializing report: %w", err)
	}

	return &ReportFile{
		Filename: fmt.Sprintf("responsibility_agreement_%s.xlsx", time.Now().Format("02012006_150405")),
		Data:     buf.Bytes(),
	}, nil
}

// ExportImages bundles asset photos into a zip grouped by location path.
// EXPORT_ALL walks every root, EXPORT_TREE the subtree under parentID,
// EXPORT_SINGLE one asset only. Failed photo downloads are skipped, never
// fatal.
func (s *ReportService) ExportImages(ctx context.Context, mode ImageExportMode, parentID *string) (*ReportFile, error) {
	var tagged []dtos.TaggedNodeDTO
	var err error

	switch mode {
	case ImageExportAll:
		rootIDs, rootsErr := s.ResolveValidRoots(nil)
		if rootsErr != nil {
			return nil, rootsErr
		}
		tagged, err = s.FlattenSubtree(rootIDs)
	case ImageExportTree:
		if parentID == nil {
			return nil, apperrors.NewValidationError("parent_id is required for %s", mode)
		}
		tagged, err = s.FlattenSubtree([]string{*parentID})
	case ImageExportSingle:
		if parentID == nil {
			return nil, apperrors.NewValidationError("parent_id is required for %s", mode)
		}
		node, nodeErr := s.nodes.GetNode(*parentID)
		if nodeErr != nil {
			return nil, nodeErr
		}
		tagged = []dtos.TaggedNodeDTO{{Node: *node, RootID: node.ID}}
	default:
		return nil, apperrors.NewValidationError("invalid image export mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for i := range tagged {
		node := tagged[i].Node
		if node.NodeType != models.NodeTypeAsset || len(node.Photos) == 0 {
			continue
		}

		folder := "NO_LOCATION"
		if len(node.Path) > 1 {
			folder = strings.Join(node.Path[:len(node.Path)-1], " > ")
		}

		photos := utils.DownloadAll(ctx, s.storage, node.Photos)
		needIndex := len(node.Photos) > 1
		for index, photo := range photos {
			if photo == nil {
				continue
			}
			extension := utils.DetectImageExtension(*photo)
			filename := fmt.Sprintf("%s.%s", node.Reference, extension)
			if needIndex {
				filename = fmt.Sprintf("%s-%d.%s", node.Reference, index+1, extension)
			}

			entry, err := zipWriter.Create(folder + "/" + filename)
			if err != nil {
				return nil, fmt.Errorf("error creating zip entry: %w", err)
			}
			if _, err := entry.Write(*photo); err != nil {
				return nil, fmt.Errorf("error writing zip entry: %w", err)
			}
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing zip: %w", err)
	}

	return &ReportFile{
		Filename: fmt.Sprintf("inventory_photos_%s.zip", time.Now().Format("02012006_150405")),
		Data:     buf.Bytes(),
	}, nil
}
