package services

import (
	"testing"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNodeDerivesLevelAndPath(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Warehouse", models.NodeTypeLocation, nil)
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, []string{"Warehouse"}, root.Path)
	assert.Nil(t, root.Checked)

	child := mustCreateNode(t, service, "Rack-1", models.NodeTypeAsset, &root.ID)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, []string{"Warehouse", "Rack-1"}, child.Path)
	require.NotNil(t, child.Checked)
	assert.False(t, *child.Checked)
}

func TestCreateNodeRejectsInvalidInput(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	_, err := service.CreateNode("  ", models.NodeTypeAsset, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.CreateNode("Thing", models.NodeType("OTHER"), nil)
	assert.True(t, apperrors.IsValidation(err))

	missing := "no-such-id"
	_, err = service.CreateNode("Thing", models.NodeTypeAsset, &missing)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateFieldsRoundTripsSerializedColumns(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	node := mustCreateNode(t, service, "Scanner", models.NodeTypeAsset, nil)

	// path, photos and asset_data are JSON text columns; a partial update
	// must store them in a form the model serializer can read back
	err := service.UpdateFields(node.ID, map[string]any{
		"path":       []string{"Depot", "Scanner"},
		"photos":     []string{"img/a.jpg", "img/b.jpg"},
		"asset_data": map[string]any{"Brand": "Zebra", "Ports": float64(2)},
		"level":      1,
	})
	require.NoError(t, err)

	reloaded, err := service.GetNode(node.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Depot", "Scanner"}, reloaded.Path)
	assert.Equal(t, []string{"img/a.jpg", "img/b.jpg"}, reloaded.Photos)
	assert.Equal(t, "Zebra", reloaded.AssetData["Brand"])
	assert.Equal(t, float64(2), reloaded.AssetData["Ports"])
	assert.Equal(t, 1, reloaded.Level)
}

func TestDestroyCascadeDeletesWholeSubtree(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Building", models.NodeTypeLocation, nil)
	floor := mustCreateNode(t, service, "Floor-1", models.NodeTypeLocation, &root.ID)
	desk := mustCreateNode(t, service, "Desk", models.NodeTypeAsset, &floor.ID)
	mustCreateNode(t, service, "Monitor", models.NodeTypeAsset, &desk.ID)
	mustCreateNode(t, service, "Keyboard", models.NodeTypeAsset, &desk.ID)

	// unrelated sibling tree must survive
	other := mustCreateNode(t, service, "Annex", models.NodeTypeLocation, nil)

	deleted, err := service.DestroyCascade(floor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	_, err = service.GetNode(desk.ID)
	assert.True(t, apperrors.IsNotFound(err))

	survivor, err := service.GetNode(other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annex", survivor.Reference)

	// deleting again is a no-op
	deleted, err = service.DestroyCascade(floor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestDestroyCascadeMissingNodeDeletesNothing(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	deleted, err := service.DestroyCascade("ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestCheckInAssetStampsFirstTransitionOnly(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Office", models.NodeTypeLocation, nil)
	asset := mustCreateNode(t, service, "Printer", models.NodeTypeAsset, &root.ID)

	checked, err := service.CheckInAsset(asset.ID, []string{"photos/one.jpg"}, map[string]any{"serial": "X99"})
	require.NoError(t, err)
	assert.True(t, checked.IsChecked())
	require.NotNil(t, checked.CheckedAt)
	firstStamp := *checked.CheckedAt

	again, err := service.CheckInAsset(asset.ID, []string{"photos/two.jpg"}, nil)
	require.NoError(t, err)
	require.NotNil(t, again.CheckedAt)
	assert.Equal(t, firstStamp.Unix(), again.CheckedAt.Unix())

	reloaded, err := service.GetNode(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"photos/one.jpg", "photos/two.jpg"}, reloaded.Photos)
	assert.Equal(t, "X99", reloaded.AssetData["serial"])
}

func TestCheckInRejectsLocations(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Office", models.NodeTypeLocation, nil)

	_, err := service.CheckInAsset(root.ID, nil, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestReparentRecomputesSubtree(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	buildingA := mustCreateNode(t, service, "Building-A", models.NodeTypeLocation, nil)
	buildingB := mustCreateNode(t, service, "Building-B", models.NodeTypeLocation, nil)
	floor := mustCreateNode(t, service, "Floor-2", models.NodeTypeLocation, &buildingA.ID)
	desk := mustCreateNode(t, service, "Desk", models.NodeTypeAsset, &floor.ID)

	require.NoError(t, service.Reparent(floor.ID, &buildingB.ID))

	movedFloor, err := service.GetNode(floor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, movedFloor.Level)
	assert.Equal(t, []string{"Building-B", "Floor-2"}, movedFloor.Path)

	movedDesk, err := service.GetNode(desk.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, movedDesk.Level)
	assert.Equal(t, []string{"Building-B", "Floor-2", "Desk"}, movedDesk.Path)
}

func TestReparentToRoot(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Root", models.NodeTypeLocation, nil)
	child := mustCreateNode(t, service, "Child", models.NodeTypeLocation, &root.ID)

	require.NoError(t, service.Reparent(child.ID, nil))

	moved, err := service.GetNode(child.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 0, moved.Level)
	assert.Equal(t, []string{"Child"}, moved.Path)
}

func TestReparentRejectsCycles(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Root", models.NodeTypeLocation, nil)
	middle := mustCreateNode(t, service, "Middle", models.NodeTypeLocation, &root.ID)
	leaf := mustCreateNode(t, service, "Leaf", models.NodeTypeAsset, &middle.ID)

	err := service.Reparent(root.ID, &root.ID)
	assert.True(t, apperrors.IsValidation(err))

	err = service.Reparent(root.ID, &leaf.ID)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpsertManyMergesByReferenceAndParent(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Depot", models.NodeTypeLocation, nil)
	existing := mustCreateNode(t, service, "Forklift", models.NodeTypeAsset, &root.ID)

	incoming := []models.NodeModel{
		{
			ID:        "ignored-for-existing",
			Reference: "Forklift",
			NodeType:  models.NodeTypeAsset,
			ParentID:  &root.ID,
			Level:     1,
			Path:      []string{"Depot", "Forklift"},
			AssetData: map[string]any{"brand": "Linde"},
		},
		{
			ID:        "new-pallet",
			Reference: "Pallet",
			NodeType:  models.NodeTypeAsset,
			ParentID:  &root.ID,
			Level:     1,
			Path:      []string{"Depot", "Pallet"},
		},
	}
	require.NoError(t, service.UpsertMany(incoming))

	merged, err := service.GetNode(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linde", merged.AssetData["brand"])

	pallet, err := service.FindSibling("Pallet", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, pallet)
	assert.Equal(t, "new-pallet", pallet.ID)

	children, err := service.ChildrenOf(&root.ID)
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestChildrenPageWindows(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Root", models.NodeTypeLocation, nil)
	for _, reference := range []string{"A", "B", "C", "D"} {
		mustCreateNode(t, service, reference, models.NodeTypeAsset, &root.ID)
	}

	page, err := service.ChildrenPage(&root.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "B", page[0].Reference)
	assert.Equal(t, "C", page[1].Reference)
}

func TestChildrenOfOrdersByReference(t *testing.T) {
	service := NewNodeService(newTestDB(t))

	root := mustCreateNode(t, service, "Root", models.NodeTypeLocation, nil)
	mustCreateNode(t, service, "Zeta", models.NodeTypeAsset, &root.ID)
	mustCreateNode(t, service, "Alpha", models.NodeTypeAsset, &root.ID)

	children, err := service.ChildrenOf(&root.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Alpha", children[0].Reference)
	assert.Equal(t, "Zeta", children[1].Reference)

	roots, err := service.ChildrenOf(nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Root", roots[0].Reference)
}
