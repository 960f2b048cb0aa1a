package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/gin-gonic/gin"
)

func SetupImportRoutes(router *gin.Engine, tenantMw gin.HandlerFunc) {
	controller := controllers.NewImportController()

	importGroup := router.Group("/import")
	importGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		importGroup.POST("/excel", controller.ImportExcel)
	}
}
