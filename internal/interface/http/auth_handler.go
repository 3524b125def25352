package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/pkg/helpers"
	"github.com/inkstone-app/inkstone/pkg/response"
	"github.com/inkstone-app/inkstone/pkg/validation"
)

// AuthService is the slice of the application layer the auth endpoints use.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*application.LoginResponse, application.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (application.TokenPair, string, error)
	Logout(ctx context.Context, userID string)
	IssueTokens(ctx context.Context, u *entity.User) (application.TokenPair, error)
	GoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code string) (*entity.User, error)
}

type AuthHandler struct {
	Svc     AuthService
	Cookies *helpers.Manager
	RDB     *redis.Client
	Logger  *logrus.Logger
}

func NewAuthHandler(svc AuthService, cookies *helpers.Manager, rdb *redis.Client, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, RDB: rdb, Logger: logger}
}

const oauthStateTTL = 10 * time.Minute

func oauthStateKey(state string) string { return "oauth:state:" + state }

func genState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func toUserPayload(u *entity.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL}
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already registered", nil)
		case application.IsValidation(err):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.Logger.WithError(err).Error("register failed")
			response.Error[any](c, http.StatusInternalServerError, "registration unavailable", nil)
		}
		return
	}
	response.Success(c, http.StatusCreated, toUserPayload(u), "account created", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		h.Logger.WithError(err).Error("login failed")
		response.Error[any](c, http.StatusInternalServerError, "login unavailable", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "logged in", nil)
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie("refresh_token")
	if err != nil || token == "" {
		response.Error[any](c, http.StatusUnauthorized, "refresh token missing", nil)
		return
	}

	pair, userID, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			h.Cookies.Clear(c)
			response.Error[any](c, http.StatusUnauthorized, "session expired", nil)
			return
		}
		h.Logger.WithError(err).Error("token refresh failed")
		response.Error[any](c, http.StatusInternalServerError, "refresh unavailable", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"user_id": userID}, "token refreshed", nil)
}

// Logout POST /api/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), c.GetString("userID"))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

// GoogleLogin GET /api/auth/google/login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := genState()
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "login unavailable", nil)
		return
	}
	if h.RDB != nil {
		if err := h.RDB.Set(c.Request.Context(), oauthStateKey(state), "1", oauthStateTTL).Err(); err != nil {
			h.Logger.WithError(err).Error("oauth state store failed")
			response.Error[any](c, http.StatusInternalServerError, "login unavailable", nil)
			return
		}
	}
	c.Redirect(http.StatusTemporaryRedirect, h.Svc.GoogleLoginURL(state))
}

// GoogleCallback GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.Error[any](c, http.StatusBadRequest, "missing state or code", nil)
		return
	}

	if h.RDB != nil {
		n, err := h.RDB.Del(c.Request.Context(), oauthStateKey(state)).Result()
		if err != nil || n == 0 {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired state", nil)
			return
		}
	}

	u, err := h.Svc.HandleGoogleCallback(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, application.ErrAccountConflict) {
			response.Error[any](c, http.StatusConflict, "email already registered with a password", nil)
			return
		}
		h.Logger.WithError(err).Error("google callback failed")
		response.Error[any](c, http.StatusUnauthorized, "google sign-in failed", nil)
		return
	}

	pair, err := h.Svc.IssueTokens(c.Request.Context(), u)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "login unavailable", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toUserPayload(u), "logged in", nil)
}
