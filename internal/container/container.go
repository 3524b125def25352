package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/config"
	"github.com/inkstone-app/inkstone/internal/infrastructure/gcs"
	"github.com/inkstone-app/inkstone/internal/infrastructure/oauth"
	"github.com/inkstone-app/inkstone/internal/infrastructure/search"
	"github.com/inkstone-app/inkstone/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	objectStore *gcs.Storage

	jwtManager *helpers.JWTManager
	cookies    *helpers.Manager

	googleOAuth *oauth.GoogleProvider
	rabbitPub   *helpers.RabbitPublisher
	storyIndex  *search.StoryIndex
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetStorage(s *gcs.Storage)    { objectStore = s }
func GetStorage() *gcs.Storage     { return objectStore }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}
func SetCookies(m *helpers.Manager) { cookies = m }
func GetCookies() *helpers.Manager  { return cookies }

func SetGoogleOAuth(p *oauth.GoogleProvider)  { googleOAuth = p }
func GetGoogleOAuth() *oauth.GoogleProvider   { return googleOAuth }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetStoryIndex(i *search.StoryIndex)      { storyIndex = i }
func GetStoryIndex() *search.StoryIndex       { return storyIndex }
