package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/internal/domain/repository"
	"github.com/inkstone-app/inkstone/internal/infrastructure/oauth"
	"github.com/inkstone-app/inkstone/pkg/helpers"
	"github.com/inkstone-app/inkstone/pkg/mailer"
)

// OAuthProvider is the slice of the Google flow the auth service needs.
type OAuthProvider interface {
	LoginURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error)
}

// EmailPublisher enqueues outbound email jobs.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService covers credential verification, registration, the Google
// callback, and session issuance.
type AuthService struct {
	Repo        repository.UserRepository
	JWT         *helpers.JWTManager
	Redis       *redis.Client
	Logger      *logrus.Logger
	OAuth       OAuthProvider
	Pub         EmailPublisher
	MailEnabled bool
}

func NewAuthService(repo repository.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, oauthProvider OAuthProvider, pub EmailPublisher, mailEnabled bool) *AuthService {
	return &AuthService{
		Repo:        repo,
		JWT:         jwt,
		Redis:       rdb,
		Logger:      logger,
		OAuth:       oauthProvider,
		Pub:         pub,
		MailEnabled: mailEnabled,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// NormalizeEmail lowercases and trims an email address. Emails are normalized
// at every write and lookup so lookups are effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a password account and enqueues the welcome email.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)

	if existing, err := s.Repo.GetByEmail(email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    email,
		Password: hash,
		Name:     name,
	}
	if err := s.Repo.Create(u); err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, u)
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing
// tokens. Unknown email, Google-only account, and wrong password all come back
// as ErrInvalidCredentials. The plaintext password is never logged.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByEmail(NormalizeEmail(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates an access/refresh pair and records the session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name}, pair, nil
}

// Refresh rotates the session id and both tokens after validating the refresh
// token against the stored session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout drops the server-side session.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis != nil && userID != "" {
		_ = s.Redis.Del(ctx, sessionKey(userID)).Err()
	}
}

// GoogleLoginURL builds the provider consent URL for the given state.
func (s *AuthService) GoogleLoginURL(state string) string {
	return s.OAuth.LoginURL(state)
}

// HandleGoogleCallback exchanges the authorization code and resolves it to an
// account: an existing Google-linked user logs in, an email collision with a
// password account is a linking conflict, and anyone else gets a fresh
// password-less account.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, code string) (*entity.User, error) {
	info, err := s.OAuth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if u, err := s.Repo.GetByGoogleID(info.ProviderUserID); err == nil && u != nil {
		return u, nil
	}

	email := NormalizeEmail(info.Email)
	if existing, err := s.Repo.GetByEmail(email); err == nil && existing != nil {
		if existing.HasPassword() {
			return nil, ErrAccountConflict
		}
		// Same email, no password, no google link: adopt the link.
		existing.GoogleID = info.ProviderUserID
		if err := s.Repo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	u := &entity.User{
		Email:     email,
		Name:      info.Name,
		AvatarURL: info.Picture,
		GoogleID:  info.ProviderUserID,
	}
	if err := s.Repo.Create(u); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": "google"}).Info("account created via oauth")
	}
	s.sendWelcome(ctx, u)
	return u, nil
}

func (s *AuthService) GetProfile(userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name      string
	AvatarURL string
}

// UpdateProfile applies non-empty fields and keeps the Redis session hash in step.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"updated_at": nowRFC3339(),
		})
		if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return u, nil
}

func (s *AuthService) sendWelcome(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.NewWelcomeJob(u.Name, u.Email)
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}
