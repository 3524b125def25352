package modules

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkstone-app/inkstone/internal/container"
	handlers "github.com/inkstone-app/inkstone/internal/interface/http"
	"github.com/inkstone-app/inkstone/internal/interface/middleware"
	"github.com/inkstone-app/inkstone/pkg/helpers"
	"github.com/inkstone-app/inkstone/pkg/response"
)

// AuthModule wires account HTTP handlers into routes.
// Public: POST /api/register, POST /api/login, POST /api/refresh,
// GET /api/auth/google/login, GET /api/auth/google/callback
// Protected: POST /api/logout, GET /api/profile, PUT /api/profile,
// POST /api/profile/avatar
type AuthModule struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	JWT           *helpers.JWTManager
	GoogleEnabled bool
}

func NewAuthModule(auth *handlers.AuthHandler, users *handlers.UserHandler, jwt *helpers.JWTManager, googleEnabled bool) *AuthModule {
	return &AuthModule{Auth: auth, Users: users, JWT: jwt, GoogleEnabled: googleEnabled}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)   // 10 req/min per IP
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil) // 60 req/min per IP

	rg.POST("/register", registerLimiter, m.Auth.Register)
	rg.POST("/login", loginLimiter, m.Auth.Login)
	rg.POST("/refresh", refreshLimiter, m.Auth.Refresh)

	if m.GoogleEnabled {
		oauthLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
		rg.GET("/auth/google/login", oauthLimiter, m.Auth.GoogleLogin)
		rg.GET("/auth/google/callback", oauthLimiter, m.Auth.GoogleCallback)
	} else {
		disabled := func(c *gin.Context) {
			response.Error[any](c, http.StatusServiceUnavailable, "google sign-in is not enabled", nil)
		}
		rg.GET("/auth/google/login", disabled)
		rg.GET("/auth/google/callback", disabled)
	}

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT, container.GetRedis()))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.Auth.Logout)
		auth.GET("/profile", m.Users.Profile)
		auth.PUT("/profile", m.Users.UpdateProfile)
		auth.POST("/profile/avatar", m.Users.UploadAvatar)
	}
}
