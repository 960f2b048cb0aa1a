package controllers

import (
	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

type ReportController struct {
	storage utils.ObjectStorage
}

func NewReportController(storage utils.ObjectStorage) *ReportController {
	return &ReportController{storage: storage}
}

func (rc *ReportController) reports(c *gin.Context) *services.ReportService {
	return services.NewReportService(middleware.TenantDB(c), rc.storage)
}

// GetItemsTree returns the analytical tree for the requested roots (all roots
// when parentIds is absent), photos resolved to temporary URLs.
func (rc *ReportController) GetItemsTree(c *gin.Context) {
	tree, err := rc.reports(c).BuildItemsTree(c.Request.Context(), c.QueryArray("parentIds"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, tree)
}

// GetValidRoots reduces a candidate id set to its independent members.
func (rc *ReportController) GetValidRoots(c *gin.Context) {
	roots, err := rc.reports(c).ResolveValidRoots(c.QueryArray("candidateIds"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"roots": roots})
}

// DownloadAnalyticalReport builds the workbook synchronously and streams it
// back. Large tenants should prefer the async task endpoint.
func (rc *ReportController) DownloadAnalyticalReport(c *gin.Context) {
	file, err := rc.reports(c).CreateAnalyticalReport(c.Request.Context(), c.QueryArray("parentIds"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	serveFile(c, file)
}

func (rc *ReportController) DownloadAgreementReport(c *gin.Context) {
	file, err := rc.reports(c).CreateResponsibilityAgreementReport(c.Request.Context(), c.QueryArray("parentIds"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *services.ReportFile) {
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if len(file.Filename) > 4 && file.Filename[len(file.Filename)-4:] == ".zip" {
		contentType = "application/zip"
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(200, contentType, file.Data)
}
