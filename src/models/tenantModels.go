package models

import "time"

// TenantModel lives in the control database only. Each active tenant gets its
// own database holding the inventory tree, sessions and async task records.
type TenantModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Active    bool      `json:"active" gorm:"type:boolean;default:true;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (TenantModel) TableName() string {
	return "tenants"
}
