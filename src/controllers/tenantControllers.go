package controllers

import (
	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/gin-gonic/gin"
)

type TenantController struct {
	service *services.TenantService
}

func NewTenantController(service *services.TenantService) *TenantController {
	return &TenantController{service: service}
}

func (tc *TenantController) GetAllTenants(c *gin.Context) {
	tenants, err := tc.service.GetAllTenants()
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, tenants)
}

func (tc *TenantController) CreateTenant(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	tenant, err := tc.service.CreateTenant(body.Name)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, tenant)
}

func (tc *TenantController) DeactivateTenant(c *gin.Context) {
	tenant, err := tc.service.DeactivateTenant(c.Param("name"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, tenant)
}
