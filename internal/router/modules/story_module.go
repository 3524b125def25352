package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkstone-app/inkstone/internal/container"
	handlers "github.com/inkstone-app/inkstone/internal/interface/http"
	"github.com/inkstone-app/inkstone/internal/interface/middleware"
	"github.com/inkstone-app/inkstone/pkg/helpers"
)

// StoryModule wires story HTTP handlers into routes.
// Public (identity optional): GET /api/stories, GET /api/stories/search, GET /api/stories/:id
// Protected: POST /api/stories, PUT /api/stories/:id, DELETE /api/stories/:id,
// GET /api/me/stories, POST /api/uploads
type StoryModule struct {
	Stories *handlers.StoryHandler
	Uploads *handlers.UploadHandler
	JWT     *helpers.JWTManager
}

func NewStoryModule(stories *handlers.StoryHandler, uploads *handlers.UploadHandler, jwt *helpers.JWTManager) *StoryModule {
	return &StoryModule{Stories: stories, Uploads: uploads, JWT: jwt}
}

func (m *StoryModule) Register(rg *gin.RouterGroup) {
	// Internal probes come from private addresses and skip the limiter.
	feedLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	// Readers do not need an account; a valid cookie only unlocks private stories.
	public := rg.Group("/")
	public.Use(middleware.Identity(m.JWT))
	{
		public.GET("/stories", feedLimiter, m.Stories.ListPublic)
		public.GET("/stories/search", feedLimiter, m.Stories.Search)
		public.GET("/stories/:id", feedLimiter, m.Stories.Get)
	}

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT, container.GetRedis()))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/stories", m.Stories.Create)
		auth.PUT("/stories/:id", m.Stories.Update)
		auth.DELETE("/stories/:id", m.Stories.Delete)
		auth.GET("/me/stories", m.Stories.ListMine)
		auth.POST("/uploads", m.Uploads.Upload)
	}
}
