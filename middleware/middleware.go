package middleware

import (
	"net/http"
	"strings"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

// CORS allows the browser client to talk to the API from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuthMiddleware validates the bearer token and stores the player's identity
// on the request context as "user_id" and "is_commissioner".
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := services.ParseToken(jwtSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.PlayerID)
		c.Set("is_commissioner", claims.IsCommissioner)
		c.Next()
	}
}

// RequireCommissioner gates commissioner-only actions. Must run after
// AuthMiddleware.
func RequireCommissioner() gin.HandlerFunc {
	return func(c *gin.Context) {
		isCommissioner, exists := c.Get("is_commissioner")
		if !exists || !isCommissioner.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Commissioner access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
