package controllers

import (
	"io"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/dtos"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

type TaskController struct {
	service *services.TaskService
	storage utils.ObjectStorage
}

func NewTaskController(service *services.TaskService, storage utils.ObjectStorage) *TaskController {
	return &TaskController{service: service, storage: storage}
}

// SubmitTask records an async task and schedules it. The response always
// carries a pollable handle, even when scheduling failed.
func (tc *TaskController) SubmitTask(c *gin.Context) {
	var body struct {
		TaskType models.AsyncTaskType `json:"taskType"`
		Params   map[string]any       `json:"params"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	task, err := tc.service.Submit(middleware.TenantName(c), body.TaskType, body.Params)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(202, dtos.AsyncTaskCreateResponse{ID: task.ID, Status: task.Status})
}

// GetTask returns the task's current state; completed archive results come
// back as a temporary download URL.
func (tc *TaskController) GetTask(c *gin.Context) {
	task, err := tc.service.Get(c.Request.Context(), middleware.TenantName(c), c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, task)
}

// SubmitImageUpload stages a photo archive in object storage and schedules
// the matching task over it.
func (tc *TaskController) SubmitImageUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "A zip archive is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(400, gin.H{"error": "Error reading uploaded archive"})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(400, gin.H{"error": "Error reading uploaded archive"})
		return
	}

	tenant := middleware.TenantName(c)
	prefix := utils.TaskStoragePaths{Tenant: tenant}.Root() + "/staging"
	key := utils.GenerateObjectKey(prefix, fileHeader.Filename)
	if _, err := tc.storage.Put(c.Request.Context(), key, data); err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	task, err := tc.service.Submit(tenant, models.TaskTypeUploadItemsImages, map[string]any{
		"archive_key": key,
	})
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(202, dtos.AsyncTaskCreateResponse{ID: task.ID, Status: task.Status})
}
