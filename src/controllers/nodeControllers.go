package controllers

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/Inventra/Inventra-Backend/src/utils"
	"github.com/gin-gonic/gin"
)

type NodeController struct {
	storage utils.ObjectStorage
}

func NewNodeController(storage utils.ObjectStorage) *NodeController {
	return &NodeController{storage: storage}
}

func (nc *NodeController) nodes(c *gin.Context) *services.NodeService {
	return services.NewNodeService(middleware.TenantDB(c))
}

// GetChildren lists the direct children of a node; without parentId it lists
// the tenant's roots. limit/offset window the result, ordered by reference.
func (nc *NodeController) GetChildren(c *gin.Context) {
	var parentID *string
	if id := c.Query("parentId"); id != "" {
		parentID = &id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	children, err := nc.nodes(c).ChildrenPage(parentID, limit, offset)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, children)
}

func (nc *NodeController) GetNode(c *gin.Context) {
	node, err := nc.nodes(c).GetNode(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, node)
}

func (nc *NodeController) CreateNode(c *gin.Context) {
	var body struct {
		Reference string          `json:"reference"`
		NodeType  models.NodeType `json:"nodeType"`
		ParentID  *string         `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	node, err := nc.nodes(c).CreateNode(body.Reference, body.NodeType, body.ParentID)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, node)
}

// DeleteCascade removes a node and its whole subtree, responding with how
// many nodes went away.
func (nc *NodeController) DeleteCascade(c *gin.Context) {
	deleted, err := nc.nodes(c).DestroyCascade(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"deleted": deleted})
}

func (nc *NodeController) Reparent(c *gin.Context) {
	var body struct {
		ParentID *string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	service := nc.nodes(c)
	if err := service.Reparent(c.Param("id"), body.ParentID); err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	node, err := service.GetNode(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, node)
}

// CheckIn marks an asset as counted. Accepts a multipart form with optional
// photo files and an optional JSON assetData field.
func (nc *NodeController) CheckIn(c *gin.Context) {
	id := c.Param("id")
	tenant := middleware.TenantName(c)

	var photoKeys []string
	form, err := c.MultipartForm()
	if err == nil && form != nil {
		prefix := utils.ItemStoragePaths{Tenant: tenant, ItemID: id}.Images()
		for _, header := range form.File["photos"] {
			file, err := header.Open()
			if err != nil {
				c.JSON(400, gin.H{"error": "Error reading uploaded photo"})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				c.JSON(400, gin.H{"error": "Error reading uploaded photo"})
				return
			}

			key := utils.GenerateObjectKey(prefix, header.Filename)
			if _, err := nc.storage.Put(c.Request.Context(), key, data); err != nil {
				c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
				return
			}
			photoKeys = append(photoKeys, key)
		}
	}

	assetData := map[string]any{}
	if raw := c.PostForm("assetData"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &assetData); err != nil {
			c.JSON(400, gin.H{"error": "Invalid assetData payload"})
			return
		}
	}

	node, err := nc.nodes(c).CheckInAsset(id, photoKeys, assetData)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, node)
}

// GetAncestorPaths exposes a node's dual location/hierarchy classification.
func (nc *NodeController) GetAncestorPaths(c *gin.Context) {
	reports := services.NewReportService(middleware.TenantDB(c), nc.storage)
	paths, err := reports.BuildAncestorPaths(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, paths)
}
