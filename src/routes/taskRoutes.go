package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

func SetupTaskRoutes(router *gin.Engine, tenantMw gin.HandlerFunc, service *services.TaskService, storage utils.ObjectStorage) {
	controller := controllers.NewTaskController(service, storage)

	taskGroup := router.Group("/tasks")
	taskGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		taskGroup.POST("", controller.SubmitTask)
		taskGroup.GET("/:id", controller.GetTask)
		taskGroup.POST("/upload-images", controller.SubmitImageUpload)
	}
}
