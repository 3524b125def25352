package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/pkg/response"
	"github.com/inkstone-app/inkstone/pkg/validation"
)

type ProfileService interface {
	GetProfile(userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, in application.UpdateProfileInput) (*entity.User, error)
}

type UserHandler struct {
	Svc     ProfileService
	Uploads Uploader
	Logger  *logrus.Logger
}

func NewUserHandler(svc ProfileService, uploads Uploader, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Uploads: uploads, Logger: logger}
}

// Profile GET /api/profile (auth required)
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.GetString("userID"))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "profile not found", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserPayload(u), "profile", nil)
}

type updateProfileRequest struct {
	Name      string `json:"name" binding:"omitempty,min=1,max=100"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

// UpdateProfile PUT /api/profile (auth required)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), application.UpdateProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "profile not found", nil)
			return
		}
		h.Logger.WithError(err).Error("profile update failed")
		response.Error[any](c, http.StatusInternalServerError, "profile update unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserPayload(u), "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (auth required)
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uploadFromForm(c, h.Uploads, h.Logger, "avatars")
}
