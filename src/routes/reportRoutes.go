package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

func SetupReportRoutes(router *gin.Engine, tenantMw gin.HandlerFunc, storage utils.ObjectStorage) {
	controller := controllers.NewReportController(storage)

	reportGroup := router.Group("/reports")
	reportGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		reportGroup.GET("/tree", controller.GetItemsTree)
		reportGroup.GET("/valid-roots", controller.GetValidRoots)

		// Synchronous downloads; heavy exports should go through /tasks
		reportGroup.GET("/analytical", controller.DownloadAnalyticalReport)
		reportGroup.GET("/agreement", controller.DownloadAgreementReport)
	}
}
