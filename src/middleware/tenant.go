package middleware

import (
	"net/http"
	"strings"

	"github.com/Inventra/Inventra-Backend/src/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TenantHeader names the header carrying the tenant for every scoped request.
const TenantHeader = "client_name"

// TenantMiddleware resolves the request's tenant database and stores it in the
// context. isActive gates access without coupling this package to the tenant
// registry; pass nil to accept any resolvable tenant.
func TenantMiddleware(tenants *db.TenantManager, isActive func(name string) (bool, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tenant := strings.TrimSpace(ctx.GetHeader(TenantHeader))
		if tenant == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "client_name header is required"})
			ctx.Abort()
			return
		}

		if isActive != nil {
			active, err := isActive(tenant)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error resolving tenant"})
				ctx.Abort()
				return
			}
			if !active {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "unknown or inactive tenant"})
				ctx.Abort()
				return
			}
		}

		conn, err := tenants.DB(tenant)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error connecting to tenant database"})
			ctx.Abort()
			return
		}

		ctx.Set("tenant", tenant)
		ctx.Set("db", conn)
		ctx.Next()
	}
}

// TenantDB pulls the tenant connection set by TenantMiddleware.
func TenantDB(ctx *gin.Context) *gorm.DB {
	return ctx.MustGet("db").(*gorm.DB)
}

// TenantName pulls the tenant name set by TenantMiddleware.
func TenantName(ctx *gin.Context) string {
	return ctx.MustGet("tenant").(string)
}
