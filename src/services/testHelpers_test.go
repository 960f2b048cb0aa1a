package services

import (
	"testing"

	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.MigrateTenantModels(conn))
	return conn
}

// mustCreateNode inserts a node through the service and fails the test on error.
func mustCreateNode(t *testing.T, s *NodeService, reference string, nodeType models.NodeType, parentID *string) *models.NodeModel {
	t.Helper()

	node, err := s.CreateNode(reference, nodeType, parentID)
	require.NoError(t, err)
	return node
}
