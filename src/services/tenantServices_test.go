package services

import (
	"fmt"
	"testing"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTenantService(t *testing.T) (*TenantService, *db.TenantManager) {
	t.Helper()

	control, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, control.AutoMigrate(&models.TenantModel{}))

	manager := db.NewTenantManager()
	manager.Dialector = func(dbName string) gorm.Dialector {
		// one shared in-memory database per tenant database name
		return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName))
	}

	return NewTenantService(control, manager), manager
}

func TestCreateTenantProvisionsDatabase(t *testing.T) {
	service, manager := newTenantService(t)

	tenant, err := service.CreateTenant("Acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.Name)
	assert.True(t, tenant.Active)

	// provisioning migrated the tenant schema
	conn, err := manager.DB("acme")
	require.NoError(t, err)
	assert.True(t, conn.Migrator().HasTable(&models.NodeModel{}))
	assert.True(t, conn.Migrator().HasTable(&models.AsyncTaskModel{}))

	active, err := service.IsActive("acme")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestCreateTenantValidation(t *testing.T) {
	service, _ := newTenantService(t)

	_, err := service.CreateTenant("")
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.CreateTenant("Bad Name!")
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.CreateTenant("acme")
	require.NoError(t, err)
	_, err = service.CreateTenant("ACME")
	assert.True(t, apperrors.IsValidation(err), "names are case-folded before the uniqueness check")
}

func TestDeactivateTenant(t *testing.T) {
	service, _ := newTenantService(t)

	_, err := service.CreateTenant("acme")
	require.NoError(t, err)

	tenant, err := service.DeactivateTenant("acme")
	require.NoError(t, err)
	assert.False(t, tenant.Active)

	active, err := service.IsActive("acme")
	require.NoError(t, err)
	assert.False(t, active)

	// unknown tenants read as inactive, not as errors
	active, err = service.IsActive("ghost")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = service.DeactivateTenant("ghost")
	assert.True(t, apperrors.IsNotFound(err))
}
