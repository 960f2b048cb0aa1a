package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/google/uuid"
	excelize "github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// DashboardDTO summarizes check-in progress across the tenant's tree.
type DashboardDTO struct {
	TotalAssets     int64   `json:"totalAssets"`
	CheckedAssets   int64   `json:"checkedAssets"`
	TotalLocations  int64   `json:"totalLocations"`
	ProgressPercent float64 `json:"progressPercent"`
}

type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) GetAllSessions() ([]models.InventorySessionModel, error) {
	var sessions []models.InventorySessionModel
	result := s.db.Order("created_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, apperrors.NewStorageError(result.Error, "error querying sessions")
	}
	return sessions, nil
}

func (s *SessionService) GetSession(id string) (*models.InventorySessionModel, error) {
	var session models.InventorySessionModel
	result := s.db.First(&session, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("session %s not found", id)
		}
		return nil, apperrors.NewStorageError(result.Error, "error loading session %s", id)
	}
	return &session, nil
}

// CreateSession opens a new counting session. Only one session may be open at
// a time; check-ins performed while it is open count toward it.
func (s *SessionService) CreateSession(name string) (*models.InventorySessionModel, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("session name is required")
	}

	var open int64
	s.db.Model(&models.InventorySessionModel{}).
		Where("status = ?", models.SessionStatusInProgress).Count(&open)
	if open > 0 {
		return nil, apperrors.NewValidationError("a session is already in progress")
	}

	session := models.InventorySessionModel{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Status:    models.SessionStatusInProgress,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error creating session")
	}
	return &session, nil
}

// CloseSession ends the session and clears every asset's checked flag so the
// next session starts from a blank count.
func (s *SessionService) CloseSession(id string) (*models.InventorySessionModel, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusClosed {
		return nil, apperrors.NewValidationError("session %s is already closed", id)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.InventorySessionModel{}).
			Where("id = ?", id).
			Update("status", models.SessionStatusClosed).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.NodeModel{}).
			Where("node_type = ?", models.NodeTypeAsset).
			Updates(map[string]any{"checked": false, "checked_at": nil}).Error
	})
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error closing session %s", id)
	}

	session.Status = models.SessionStatusClosed
	return session, nil
}

// Dashboard computes the check-in counters shown on the session overview.
func (s *SessionService) Dashboard() (*DashboardDTO, error) {
	dashboard := &DashboardDTO{}

	err := s.db.Model(&models.NodeModel{}).
		Where("node_type = ?", models.NodeTypeAsset).
		Count(&dashboard.TotalAssets).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error counting assets")
	}

	err = s.db.Model(&models.NodeModel{}).
		Where("node_type = ? AND checked = ?", models.NodeTypeAsset, true).
		Count(&dashboard.CheckedAssets).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error counting checked assets")
	}

	err = s.db.Model(&models.NodeModel{}).
		Where("node_type = ?", models.NodeTypeLocation).
		Count(&dashboard.TotalLocations).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error counting locations")
	}

	if dashboard.TotalAssets > 0 {
		dashboard.ProgressPercent = float64(dashboard.CheckedAssets) / float64(dashboard.TotalAssets) * 100
	}
	return dashboard, nil
}

// ExportSessionExcel renders the session's count state: one row per asset with
// its location and check-in status.
func (s *SessionService) ExportSessionExcel(id string) (*ReportFile, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}

	var assets []models.NodeModel
	err = s.db.Where("node_type = ?", models.NodeTypeAsset).
		Order("reference ASC").Find(&assets).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error querying assets")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []any{"Reference", "Location", "Checked", "Checked At"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("error writing session header: %w", err)
	}

	for i, asset := range assets {
		checked := "NO"
		if asset.IsChecked() {
			checked = "YES"
		}
		checkedAt := ""
		if asset.CheckedAt != nil {
			checkedAt = asset.CheckedAt.Format("2006-01-02 15:04")
		}
		location := ""
		if len(asset.Path) > 1 {
			location = strings.Join(asset.Path[:len(asset.Path)-1], " > ")
		}

		row := []any{asset.Reference, location, checked, checkedAt}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("error writing session row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error serializing session export: %w", err)
	}

	name := strings.ReplaceAll(session.Name, " ", "_")
	return &ReportFile{
		Filename: fmt.Sprintf("session_%s_%s.xlsx", name, time.Now().Format("02012006_150405")),
		Data:     buf.Bytes(),
	}, nil
}
