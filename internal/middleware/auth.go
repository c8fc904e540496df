package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthRequired rejects requests without a valid user session
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
