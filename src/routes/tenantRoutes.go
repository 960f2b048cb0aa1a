package routes

import (
	"github.com/Inventra/Inventra-Backend/src/controllers"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/gin-gonic/gin"
)

// Tenant administration lives on the control database and takes no tenant
// header.
func SetupTenantRoutes(router *gin.Engine, service *services.TenantService) {
	controller := controllers.NewTenantController(service)

	tenantGroup := router.Group("/tenants")
	tenantGroup.Use(middleware.AuthMiddleware())
	{
		tenantGroup.GET("", controller.GetAllTenants)
		tenantGroup.POST("", controller.CreateTenant)
		tenantGroup.PUT("/:name/deactivate", controller.DeactivateTenant)
	}
}
