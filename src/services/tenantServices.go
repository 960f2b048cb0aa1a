package services

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var tenantNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,62}$`)

// TenantService manages the tenant registry in the control database and
// provisions the per-tenant databases behind it.
type TenantService struct {
	control *gorm.DB
	tenants *db.TenantManager
}

func NewTenantService(control *gorm.DB, tenants *db.TenantManager) *TenantService {
	return &TenantService{control: control, tenants: tenants}
}

func (s *TenantService) GetAllTenants() ([]models.TenantModel, error) {
	var tenants []models.TenantModel
	result := s.control.Order("name ASC").Find(&tenants)
	if result.Error != nil {
		return nil, apperrors.NewStorageError(result.Error, "error querying tenants")
	}
	return tenants, nil
}

func (s *TenantService) GetTenantByName(name string) (*models.TenantModel, error) {
	var tenant models.TenantModel
	result := s.control.First(&tenant, "name = ?", strings.ToLower(strings.TrimSpace(name)))
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("tenant %s not found", name)
		}
		return nil, apperrors.NewStorageError(result.Error, "error loading tenant %s", name)
	}
	return &tenant, nil
}

// CreateTenant registers a tenant and opens its database, which creates the
// schema on first contact. The registry row is rolled back if provisioning
// fails so a retry starts clean.
func (s *TenantService) CreateTenant(name string) (*models.TenantModel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !tenantNamePattern.MatchString(name) {
		return nil, apperrors.NewValidationError("invalid tenant name %q", name)
	}

	var existing int64
	s.control.Model(&models.TenantModel{}).Where("name = ?", name).Count(&existing)
	if existing > 0 {
		return nil, apperrors.NewValidationError("tenant %q already exists", name)
	}

	tenant := models.TenantModel{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.control.Create(&tenant).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error registering tenant")
	}

	if _, err := s.tenants.DB(name); err != nil {
		s.control.Delete(&models.TenantModel{}, "id = ?", tenant.ID)
		return nil, apperrors.NewStorageError(err, "error provisioning tenant database for %s", name)
	}

	log.Printf("[TENANTS] Provisioned tenant %s (%s)\n", name, db.TenantDatabaseName(name))
	return &tenant, nil
}

// DeactivateTenant keeps the registry row and the data but blocks access
// through the tenant middleware.
func (s *TenantService) DeactivateTenant(name string) (*models.TenantModel, error) {
	tenant, err := s.GetTenantByName(name)
	if err != nil {
		return nil, err
	}
	if !tenant.Active {
		return tenant, nil
	}

	err = s.control.Model(&models.TenantModel{}).
		Where("id = ?", tenant.ID).Update("active", false).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error deactivating tenant %s", name)
	}
	tenant.Active = false
	return tenant, nil
}

// IsActive reports whether requests for a tenant should be served.
func (s *TenantService) IsActive(name string) (bool, error) {
	tenant, err := s.GetTenantByName(name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return tenant.Active, nil
}
