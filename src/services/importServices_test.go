package services

import (
	"bytes"
	"testing"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

var importColumns = []string{"Location", "Location2", "Item", "Component", "-", "Brand", "Serial"}

func importOpts() ImportOptions {
	return ImportOptions{
		DelimiterColumn:  "-",
		AttributeColumns: []string{"Brand", "Serial"},
	}
}

func TestImportRowsBuildsTree(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)
	nodes := NewNodeService(conn)

	rows := [][]any{
		{"HQ", "Lab", "Bench", "Vise", "", "Acme", "S-001"},
		{"HQ", "Lab", "Scope", "", "", "Optik", "S-002"},
		{"HQ", "Storage", "Shelf", "", "", "", ""},
	}

	summary, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	// HQ, Lab, Bench, Vise, Scope, Storage, Shelf
	assert.Equal(t, 7, summary.Created)

	hq, err := nodes.FindSibling("HQ", nil)
	require.NoError(t, err)
	require.NotNil(t, hq)
	assert.Equal(t, models.NodeTypeLocation, hq.NodeType)
	assert.Equal(t, 0, hq.Level)

	lab, err := nodes.FindSibling("Lab", &hq.ID)
	require.NoError(t, err)
	require.NotNil(t, lab)
	assert.Equal(t, models.NodeTypeLocation, lab.NodeType)

	bench, err := nodes.FindSibling("Bench", &lab.ID)
	require.NoError(t, err)
	require.NotNil(t, bench)
	assert.Equal(t, models.NodeTypeAsset, bench.NodeType)
	assert.Equal(t, []string{"HQ", "Lab", "Bench"}, bench.Path)
	// not the deepest node of its row, so no attributes
	assert.Nil(t, bench.AssetData)

	vise, err := nodes.FindSibling("Vise", &bench.ID)
	require.NoError(t, err)
	require.NotNil(t, vise)
	assert.Equal(t, 3, vise.Level)
	assert.Equal(t, "Acme", vise.AssetData["Brand"])
	assert.Equal(t, "S-001", vise.AssetData["Serial"])
	require.NotNil(t, vise.Checked)
	assert.False(t, *vise.Checked)
}

func TestImportRowsIsIdempotentOnStructure(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)

	rows := [][]any{
		{"HQ", "Lab", "Bench", "Vise", "", "Acme", "S-001"},
	}

	_, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)

	summary, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)

	var count int64
	conn.Model(&models.NodeModel{}).Count(&count)
	assert.Equal(t, int64(4), count)
}

func TestImportRowsReimportKeepsCheckedAndRefreshesAttributes(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)
	nodes := NewNodeService(conn)

	rows := [][]any{{"HQ", "Lab", "Scope", "", "", "Optik", "S-002"}}
	_, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)

	hq, _ := nodes.FindSibling("HQ", nil)
	lab, _ := nodes.FindSibling("Lab", &hq.ID)
	scope, _ := nodes.FindSibling("Scope", &lab.ID)
	require.NotNil(t, scope)

	_, err = nodes.CheckInAsset(scope.ID, nil, nil)
	require.NoError(t, err)

	updatedRows := [][]any{{"HQ", "Lab", "Scope", "", "", "Optik Pro", "S-002"}}
	summary, err := importer.ImportRows(importColumns, updatedRows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	reloaded, err := nodes.GetNode(scope.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsChecked(), "re-import must not reset the count state")
	assert.Equal(t, "Optik Pro", reloaded.AssetData["Brand"])
}

func TestImportRowsReimportWithBlankAttributesStillCountsUpdate(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)
	nodes := NewNodeService(conn)

	rows := [][]any{{"HQ", "Lab", "Scope", "", "", "Optik", "S-002"}}
	_, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)

	// all attribute cells blank: nothing to write, but the key still matched
	blankRows := [][]any{{"HQ", "Lab", "Scope", "", "", "", ""}}
	summary, err := importer.ImportRows(importColumns, blankRows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	hq, _ := nodes.FindSibling("HQ", nil)
	lab, _ := nodes.FindSibling("Lab", &hq.ID)
	scope, err := nodes.FindSibling("Scope", &lab.ID)
	require.NoError(t, err)
	require.NotNil(t, scope)
	assert.Equal(t, "Optik", scope.AssetData["Brand"])
}

func TestImportRowsBlankLevelTruncatesRow(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)
	nodes := NewNodeService(conn)

	// the blank Location2 cell stops the walk; "Orphan" is never reached
	rows := [][]any{{"HQ", "", "Orphan", "", "", "", ""}}
	summary, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	orphans, err := nodes.FindNodes(map[string]any{"reference": "Orphan"}, nil)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestImportRowsSharedAncestorsDedupedWithinBatch(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)

	rows := [][]any{
		{"HQ", "Lab", "Bench", "", "", "", ""},
		{"HQ", "Lab", "Desk", "", "", "", ""},
		{"HQ", "Lab", "Desk", "", "", "", ""},
	}
	summary, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)
	// HQ, Lab, Bench, Desk
	assert.Equal(t, 4, summary.Created)

	var labs int64
	conn.Model(&models.NodeModel{}).Where("reference = ?", "Lab").Count(&labs)
	assert.Equal(t, int64(1), labs)
}

func TestImportRowsSameReferenceDifferentParents(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)

	rows := [][]any{
		{"HQ", "Lab", "Printer", "", "", "", ""},
		{"HQ", "Storage", "Printer", "", "", "", ""},
	}
	summary, err := importer.ImportRows(importColumns, rows, importOpts())
	require.NoError(t, err)
	// HQ, Lab, Printer, Storage, Printer
	assert.Equal(t, 5, summary.Created)

	var printers int64
	conn.Model(&models.NodeModel{}).Where("reference = ?", "Printer").Count(&printers)
	assert.Equal(t, int64(2), printers)
}

func TestImportRowsMissingDelimiterColumn(t *testing.T) {
	importer := NewImportService(newTestDB(t))

	_, err := importer.ImportRows([]string{"Location", "Item"}, nil, ImportOptions{DelimiterColumn: "-"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestImportFromExcel(t *testing.T) {
	conn := newTestDB(t)
	importer := NewImportService(conn)
	nodes := NewNodeService(conn)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Location", "Item", "-", "Brand"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Depot", "Forklift", "", "Linde"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Depot", "Pallet", "", ""}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	summary, err := importer.ImportFromExcel(&buf, "", ImportOptions{
		DelimiterColumn:  "-",
		AttributeColumns: []string{"Brand"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 3, summary.Created)

	depot, err := nodes.FindSibling("Depot", nil)
	require.NoError(t, err)
	require.NotNil(t, depot)

	forklift, err := nodes.FindSibling("Forklift", &depot.ID)
	require.NoError(t, err)
	require.NotNil(t, forklift)
	assert.Equal(t, "Linde", forklift.AssetData["Brand"])
}

func TestImportFromExcelRejectsGarbage(t *testing.T) {
	importer := NewImportService(newTestDB(t))

	_, err := importer.ImportFromExcel(bytes.NewBufferString("not an excel file"), "", importOpts())
	assert.True(t, apperrors.IsValidation(err))
}
