package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/Inventra/Inventra-Backend/src/dtos"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/queue"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskEnv is everything a task run needs from its surrounding tenant.
type TaskEnv struct {
	DB      *gorm.DB
	Tenant  string
	Storage utils.ObjectStorage
}

// TaskRunFunc produces either an archive (stored, key recorded) or an inline
// raw result, depending on the task's declared result type.
type TaskRunFunc func(ctx context.Context, env TaskEnv, params map[string]any) (*ReportFile, *string, error)

type TaskSpec struct {
	ResultType models.AsyncTaskResultType
	Run        TaskRunFunc
}

// taskRegistry binds every task type to its result contract and executor.
// Unknown types are rejected at submit time, before any record is written.
var taskRegistry = map[models.AsyncTaskType]TaskSpec{
	models.TaskTypeExportAnalyticalReport: {
		ResultType: models.ResultTypeArchive,
		Run:        runExportAnalyticalReport,
	},
	models.TaskTypeExportResponsibilityAgreementReport: {
		ResultType: models.ResultTypeArchive,
		Run:        runExportAgreementReport,
	},
	models.TaskTypeExportItemsImages: {
		ResultType: models.ResultTypeArchive,
		Run:        runExportItemsImages,
	},
	models.TaskTypeUploadItemsImages: {
		ResultType: models.ResultTypeRawResult,
		Run:        runUploadItemsImages,
	},
}

// TaskService owns the submit/read side of the task lifecycle. Execution is
// the TaskRunner's job; the two only meet through the dispatcher.
type TaskService struct {
	tenants    *db.TenantManager
	storage    utils.ObjectStorage
	dispatcher *queue.Dispatcher
}

func NewTaskService(tenants *db.TenantManager, storage utils.ObjectStorage, dispatcher *queue.Dispatcher) *TaskService {
	return &TaskService{tenants: tenants, storage: storage, dispatcher: dispatcher}
}

// Submit records a task and publishes it for execution. The two phases fail
// independently: a publish failure marks the already-persisted record FAILED
// and the handle is still returned, so the caller can always poll the outcome.
// If even that mark cannot be written the submit errors out instead of handing
// back a handle that disagrees with the store.
func (s *TaskService) Submit(tenant string, taskType models.AsyncTaskType, params map[string]any) (*models.AsyncTaskModel, error) {
	spec, ok := taskRegistry[taskType]
	if !ok {
		return nil, apperrors.NewValidationError("unknown task type %q", taskType)
	}

	conn, err := s.tenants.DB(tenant)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error resolving tenant %s", tenant)
	}

	task := models.AsyncTaskModel{
		ID:         uuid.NewString(),
		TaskType:   taskType,
		ResultType: spec.ResultType,
		Status:     models.AsyncTaskStatusPending,
		Progress:   0,
		CreatedAt:  time.Now(),
	}
	if err := conn.Create(&task).Error; err != nil {
		return nil, apperrors.NewStorageError(err, "error creating task record")
	}

	err = s.dispatcher.Enqueue(queue.Message{
		TaskID:   task.ID,
		TaskType: string(taskType),
		Tenant:   tenant,
		Params:   params,
	})
	if err != nil {
		log.Printf("[TASKS] Error enqueueing task %s: %v\n", task.ID, err)
		message := fmt.Sprintf("task could not be scheduled: %v", err)
		updateErr := conn.Model(&models.AsyncTaskModel{}).Where("id = ?", task.ID).Updates(map[string]any{
			"status": models.AsyncTaskStatusFailed,
			"log":    message,
		}).Error
		if updateErr != nil {
			// the stored row is still PENDING; without the mark it would never
			// resolve for pollers, so this must not go unnoticed
			log.Printf("[TASKS] Error marking task %s failed: %v\n", task.ID, updateErr)
			return nil, apperrors.NewStorageError(updateErr, "error marking task %s failed after enqueue failure", task.ID)
		}
		task.Status = models.AsyncTaskStatusFailed
		task.Log = &message
	}

	return &task, nil
}

// Get returns the task's current state. Archive results are exchanged for a
// temporary URL here, at read time; the stored record only ever holds the key.
func (s *TaskService) Get(ctx context.Context, tenant, taskID string) (*dtos.AsyncTaskResponse, error) {
	conn, err := s.tenants.DB(tenant)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error resolving tenant %s", tenant)
	}

	var task models.AsyncTaskModel
	if err := conn.First(&task, "id = ?", taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("task %s not found", taskID)
		}
		return nil, apperrors.NewStorageError(err, "error loading task %s", taskID)
	}

	response := &dtos.AsyncTaskResponse{
		ID:         task.ID,
		Status:     task.Status,
		TaskType:   task.TaskType,
		ResultType: task.ResultType,
		Progress:   task.Progress,
		Result:     task.Result,
		Log:        task.Log,
	}

	if task.ResultType == models.ResultTypeArchive &&
		task.Status == models.AsyncTaskStatusCompleted && task.Result != nil {
		url, err := s.storage.Presign(ctx, *task.Result, utils.PresignTTL)
		if err != nil {
			return nil, err
		}
		response.Result = &url
	}

	return response, nil
}

// TaskRunner executes dispatched messages against the owning tenant database.
type TaskRunner struct {
	tenants *db.TenantManager
	storage utils.ObjectStorage
}

func NewTaskRunner(tenants *db.TenantManager, storage utils.ObjectStorage) *TaskRunner {
	return &TaskRunner{tenants: tenants, storage: storage}
}

// Handle is the dispatcher handler. Every failure path lands on the task row;
// a message referencing an already-terminal task is dropped.
func (r *TaskRunner) Handle(ctx context.Context, msg queue.Message) {
	conn, err := r.tenants.DB(msg.Tenant)
	if err != nil {
		log.Printf("[TASKS] Error resolving tenant %s for task %s: %v\n", msg.Tenant, msg.TaskID, err)
		return
	}

	var task models.AsyncTaskModel
	if err := conn.First(&task, "id = ?", msg.TaskID).Error; err != nil {
		log.Printf("[TASKS] Error loading task %s: %v\n", msg.TaskID, err)
		return
	}
	if task.Status.IsTerminal() {
		return
	}

	r.updateTask(conn, task.ID, map[string]any{"status": models.AsyncTaskStatusInProgress})

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[TASKS] Task %s panicked: %v\n", task.ID, rec)
			r.markFailed(conn, task.ID, fmt.Sprintf("task panicked: %v", rec))
		}
	}()

	spec, ok := taskRegistry[models.AsyncTaskType(msg.TaskType)]
	if !ok {
		r.markFailed(conn, task.ID, fmt.Sprintf("unknown task type %q", msg.TaskType))
		return
	}

	env := TaskEnv{DB: conn, Tenant: msg.Tenant, Storage: r.storage}
	archive, raw, err := spec.Run(ctx, env, msg.Params)
	if err != nil {
		log.Printf("[TASKS] Task %s failed: %v\n", task.ID, err)
		r.markFailed(conn, task.ID, err.Error())
		return
	}

	r.updateTask(conn, task.ID, map[string]any{"progress": 50})

	var result *string
	switch spec.ResultType {
	case models.ResultTypeArchive:
		if archive == nil {
			r.markFailed(conn, task.ID, "task produced no archive")
			return
		}
		paths := utils.TaskStoragePaths{Tenant: msg.Tenant}
		key := utils.GenerateObjectKey(paths.AsyncTask(task.ID), archive.Filename)
		if _, err := r.storage.Put(ctx, key, archive.Data); err != nil {
			r.markFailed(conn, task.ID, fmt.Sprintf("error storing task result: %v", err))
			return
		}
		result = &key
	case models.ResultTypeRawResult:
		result = raw
	}

	r.updateTask(conn, task.ID, map[string]any{"progress": 99})
	r.updateTask(conn, task.ID, map[string]any{
		"status":   models.AsyncTaskStatusCompleted,
		"progress": 100,
		"result":   result,
	})
}

func (r *TaskRunner) updateTask(conn *gorm.DB, taskID string, fields map[string]any) {
	err := conn.Model(&models.AsyncTaskModel{}).Where("id = ?", taskID).Updates(fields).Error
	if err != nil {
		log.Printf("[TASKS] Error updating task %s: %v\n", taskID, err)
	}
}

func (r *TaskRunner) markFailed(conn *gorm.DB, taskID, message string) {
	r.updateTask(conn, taskID, map[string]any{
		"status": models.AsyncTaskStatusFailed,
		"log":    message,
	})
}

func stringSliceParam(params map[string]any, key string) []string {
	value, ok := params[key]
	if !ok || value == nil {
		return nil
	}
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func stringParam(params map[string]any, key string) string {
	if value, ok := params[key]; ok && value != nil {
		return fmt.Sprint(value)
	}
	return ""
}

func runExportAnalyticalReport(ctx context.Context, env TaskEnv, params map[string]any) (*ReportFile, *string, error) {
	reports := NewReportService(env.DB, env.Storage)
	file, err := reports.CreateAnalyticalReport(ctx, stringSliceParam(params, "parent_ids"))
	return file, nil, err
}

func runExportAgreementReport(ctx context.Context, env TaskEnv, params map[string]any) (*ReportFile, *string, error) {
	reports := NewReportService(env.DB, env.Storage)
	file, err := reports.CreateResponsibilityAgreementReport(ctx, stringSliceParam(params, "parent_ids"))
	return file, nil, err
}

func runExportItemsImages(ctx context.Context, env TaskEnv, params map[string]any) (*ReportFile, *string, error) {
	mode := ImageExportMode(stringParam(params, "mode"))
	if mode == "" {
		mode = ImageExportAll
	}
	var parentID *string
	if id := stringParam(params, "parent_id"); id != "" {
		parentID = &id
	}

	reports := NewReportService(env.DB, env.Storage)
	file, err := reports.ExportImages(ctx, mode, parentID)
	return file, nil, err
}

func runUploadItemsImages(ctx context.Context, env TaskEnv, params map[string]any) (*ReportFile, *string, error) {
	archiveKey := stringParam(params, "archive_key")
	if archiveKey == "" {
		return nil, nil, apperrors.NewValidationError("archive_key is required")
	}

	uploads := NewImageUploadService(env.DB, env.Storage)
	summary, err := uploads.UploadFromArchive(ctx, env.Tenant, archiveKey)
	if err != nil {
		return nil, nil, err
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding upload summary: %w", err)
	}
	raw := string(encoded)
	return nil, &raw, nil
}
