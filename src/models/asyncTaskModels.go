package models

import "time"

type AsyncTaskStatus string

const (
	AsyncTaskStatusPending    AsyncTaskStatus = "PENDING"
	AsyncTaskStatusInProgress AsyncTaskStatus = "IN_PROGRESS"
	AsyncTaskStatusCompleted  AsyncTaskStatus = "COMPLETED"
	AsyncTaskStatusFailed     AsyncTaskStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s AsyncTaskStatus) IsTerminal() bool {
	return s == AsyncTaskStatusCompleted || s == AsyncTaskStatusFailed
}

type AsyncTaskType string

const (
	TaskTypeExportAnalyticalReport              AsyncTaskType = "EXPORT_ANALYTICAL_REPORT"
	TaskTypeExportResponsibilityAgreementReport AsyncTaskType = "EXPORT_INVENTORY_RESPONSIBILITY_AGREEMENT_REPORT"
	TaskTypeExportItemsImages                   AsyncTaskType = "EXPORT_ITEMS_IMAGES"
	TaskTypeUploadItemsImages                   AsyncTaskType = "UPLOAD_ITEMS_IMAGES"
)

type AsyncTaskResultType string

const (
	// ResultTypeArchive marks results too large to store inline; the raw bytes
	// go to object storage and Result holds the storage key.
	ResultTypeArchive   AsyncTaskResultType = "ARCHIVE"
	ResultTypeRawResult AsyncTaskResultType = "RAW_RESULT"
)

// AsyncTaskModel tracks one long-running operation. Created PENDING at submit
// time, moved to IN_PROGRESS by the worker that picks it up, finished exactly
// once as COMPLETED or FAILED and never revisited afterward.
type AsyncTaskModel struct {
	ID         string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TaskType   AsyncTaskType       `json:"taskType" gorm:"column:task_type;type:varchar(64);not null"`
	ResultType AsyncTaskResultType `json:"resultType" gorm:"column:result_type;type:varchar(16);not null"`
	Status     AsyncTaskStatus     `json:"status" gorm:"type:varchar(16);not null;default:PENDING"`
	Progress   int                 `json:"progress" gorm:"not null;default:0"`
	Result     *string             `json:"result,omitempty" gorm:"type:text"`
	Log        *string             `json:"log,omitempty" gorm:"type:text"`
	CreatedAt  time.Time           `json:"createdAt" gorm:"column:created_at"`
}

func (AsyncTaskModel) TableName() string {
	return "async_tasks"
}
