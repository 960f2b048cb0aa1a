package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

func SetupNodeRoutes(router *gin.Engine, tenantMw gin.HandlerFunc, storage utils.ObjectStorage) {
	controller := controllers.NewNodeController(storage)

	nodeGroup := router.Group("/nodes")
	nodeGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		nodeGroup.GET("", controller.GetChildren)
		nodeGroup.POST("", controller.CreateNode)
		nodeGroup.GET("/:id", controller.GetNode)
		nodeGroup.DELETE("/:id", controller.DeleteCascade)
		nodeGroup.PUT("/:id/parent", controller.Reparent)
		nodeGroup.POST("/:id/check-in", controller.CheckIn)
		nodeGroup.GET("/:id/ancestor-paths", controller.GetAncestorPaths)
	}
}
