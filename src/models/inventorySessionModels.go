package models

import "time"

type InventorySessionStatus string

const (
	SessionStatusInProgress InventorySessionStatus = "in_progress"
	SessionStatusClosed     InventorySessionStatus = "closed"
)

type InventorySessionModel struct {
	ID        string                 `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string                 `json:"name" gorm:"type:varchar(255);not null"`
	Status    InventorySessionStatus `json:"status" gorm:"type:varchar(16);not null;default:in_progress"`
	CreatedAt time.Time              `json:"createdAt" gorm:"column:created_at"`
}

func (InventorySessionModel) TableName() string {
	return "inventory_sessions"
}
