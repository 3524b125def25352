package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/inkstone-app/inkstone/pkg/helpers"
)

// Identity resolves the caller from the access token cookie when one is
// present, but never rejects the request. Anonymous callers pass through with
// no userID set.
func Identity(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err == nil && token != "" {
			if claims, pErr := jwt.ParseAccessToken(token); pErr == nil {
				c.Set("userID", claims.UserID)
			}
		}
		c.Next()
	}
}
