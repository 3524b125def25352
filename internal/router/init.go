package router

import (
	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/container"
	"github.com/inkstone-app/inkstone/internal/infrastructure/postgres"
	handlers "github.com/inkstone-app/inkstone/internal/interface/http"
	"github.com/inkstone-app/inkstone/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := postgres.NewUserRepository(container.GetPGPool())
	storyRepo := postgres.NewStoryRepository(container.GetPGPool())

	// Optional components stay nil interfaces when not configured.
	var pub application.EmailPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	var oauthProvider application.OAuthProvider
	if p := container.GetGoogleOAuth(); p != nil {
		oauthProvider = p
	}
	var store application.ObjectStorage
	if s := container.GetStorage(); s != nil {
		store = s
	}

	authSvc := application.NewAuthService(
		userRepo,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		oauthProvider,
		pub,
		cfg.MailSendEnabled,
	)
	storySvc := application.NewStoryService(
		storyRepo,
		store,
		container.GetStoryIndex(),
		container.GetRedis(),
		logger,
		cfg.FeedLimit,
	)

	authHandler := handlers.NewAuthHandler(authSvc, container.GetCookies(), container.GetRedis(), logger)
	userHandler := handlers.NewUserHandler(authSvc, storySvc, logger)
	storyHandler := handlers.NewStoryHandler(storySvc, logger)
	uploadHandler := handlers.NewUploadHandler(storySvc, logger)

	r.Add(modules.NewAuthModule(authHandler, userHandler, container.GetJWT(), cfg.GoogleOAuthConfigured()))
	r.Add(modules.NewStoryModule(storyHandler, uploadHandler, container.GetJWT()))
}
