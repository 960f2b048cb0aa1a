package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/gin-gonic/gin"
)

func SetupSessionRoutes(router *gin.Engine, tenantMw gin.HandlerFunc) {
	controller := controllers.NewSessionController()

	sessionGroup := router.Group("/sessions")
	sessionGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		sessionGroup.GET("", controller.GetAllSessions)
		sessionGroup.POST("", controller.CreateSession)
		sessionGroup.POST("/:id/close", controller.CloseSession)
		sessionGroup.GET("/:id/export", controller.ExportSession)
	}

	dashboardGroup := router.Group("/dashboard")
	dashboardGroup.Use(middleware.AuthMiddleware(), tenantMw)
	{
		dashboardGroup.GET("", controller.GetDashboard)
	}
}
