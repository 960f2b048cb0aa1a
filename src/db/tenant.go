package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/Inventra/Inventra-Backend/src/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TenantManager hands out one gorm DB per tenant. Every tenant owns a separate
// database named client_<tenant>; connections are opened lazily and cached for
// the life of the process.
type TenantManager struct {
	mu    sync.Mutex
	conns map[string]*gorm.DB

	// Dialector builds the gorm dialector for a tenant database name.
	// Overridable so tests can swap postgres for in-memory sqlite.
	Dialector func(dbName string) gorm.Dialector
}

func NewTenantManager() *TenantManager {
	return &TenantManager{
		conns: make(map[string]*gorm.DB),
		Dialector: func(dbName string) gorm.Dialector {
			// TENANT_DB_DSN holds a DSN with a %s placeholder for the database name
			dsn := fmt.Sprintf(os.Getenv("TENANT_DB_DSN"), dbName)
			return postgres.Open(dsn)
		},
	}
}

// TenantDatabaseName maps a tenant name to its database name.
func TenantDatabaseName(tenant string) string {
	return "client_" + strings.ToLower(strings.TrimSpace(tenant))
}

// DB returns the connection for a tenant, opening and migrating it on first use.
func (m *TenantManager) DB(tenant string) (*gorm.DB, error) {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.conns[tenant]; ok {
		return conn, nil
	}

	conn, err := gorm.Open(m.Dialector(TenantDatabaseName(tenant)), &gorm.Config{})
	if err != nil {
		log.Printf("Error connecting to tenant database %s: %v\n", tenant, err)
		return nil, err
	}

	if err := MigrateTenantModels(conn); err != nil {
		return nil, err
	}

	m.conns[tenant] = conn
	return conn, nil
}

// Register stores an already-open connection under a tenant name.
// Used by tests and by tenant provisioning.
func (m *TenantManager) Register(tenant string, conn *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[tenant] = conn
}

// MigrateTenantModels migrates every tenant-scoped table.
func MigrateTenantModels(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.NodeModel{},
		&models.AsyncTaskModel{},
		&models.InventorySessionModel{},
	)
}
