package controllers

import (
	"strings"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/gin-gonic/gin"
)

type ImportController struct{}

func NewImportController() *ImportController {
	return &ImportController{}
}

// ImportExcel ingests a spreadsheet of the inventory tree. The form carries
// the workbook plus the delimiter column name separating the level columns
// from free-form attributes.
func (ic *ImportController) ImportExcel(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "An Excel file is required"})
		return
	}

	delimiter := strings.TrimSpace(c.PostForm("delimiterColumn"))
	if delimiter == "" {
		c.JSON(400, gin.H{"error": "delimiterColumn is required"})
		return
	}

	opts := services.ImportOptions{
		DelimiterColumn: delimiter,
		LocationPrefix:  c.PostForm("locationPrefix"),
	}
	if raw := c.PostForm("attributeColumns"); raw != "" {
		for _, column := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(column); trimmed != "" {
				opts.AttributeColumns = append(opts.AttributeColumns, trimmed)
			}
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(400, gin.H{"error": "Error reading uploaded file"})
		return
	}
	defer file.Close()

	importer := services.NewImportService(middleware.TenantDB(c))
	summary, err := importer.ImportFromExcel(file, c.PostForm("sheet"), opts)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, summary)
}
