package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/internal/services"
)

// AdminRequired rejects requests without a valid admin bearer token
func AdminRequired(adminService *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "admin token required",
			})
			c.Abort()
			return
		}

		claims, err := adminService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired admin token",
			})
			c.Abort()
			return
		}

		c.Set("admin_id", claims.AdminID)
		c.Set("admin_status", claims.Status)

		c.Next()
	}
}

// SuperAdminRequired rejects product admins. Must run after
// AdminRequired.
func SuperAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("admin_status") != models.AdminStatusAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "full admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
