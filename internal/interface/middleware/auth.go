package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/inkstone-app/inkstone/pkg/helpers"
	"github.com/inkstone-app/inkstone/pkg/response"
)

// Auth requires a valid access token cookie and a live server-side session.
// On success it stores userID, userName and userEmail in the request context.
func Auth(jwt *helpers.JWTManager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}

		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), "user:session:"+claims.UserID).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.Error[any](c, http.StatusUnauthorized, "session expired", nil)
				c.Abort()
				return
			}
			c.Set("userName", data["name"])
			c.Set("userEmail", data["email"])
		}

		c.Next()
	}
}
