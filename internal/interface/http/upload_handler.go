package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/pkg/response"
)

// Uploader stores an uploaded file and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error)
}

type UploadHandler struct {
	Uploads Uploader
	Logger  *logrus.Logger
}

func NewUploadHandler(uploads Uploader, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{Uploads: uploads, Logger: logger}
}

// Upload POST /api/uploads (auth required, multipart field "file")
func (h *UploadHandler) Upload(c *gin.Context) {
	uploadFromForm(c, h.Uploads, h.Logger, "stories")
}

func uploadFromForm(c *gin.Context, uploads Uploader, logger *logrus.Logger, prefix string) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file field is required", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable upload", nil)
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	url, err := uploads.UploadImage(c.Request.Context(), c.GetString("userID"), prefix, fh.Filename, contentType, fh.Size, f)
	if err != nil {
		switch {
		case application.IsValidation(err):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, application.ErrUploadsDisabled):
			response.Error[any](c, http.StatusServiceUnavailable, "uploads are not enabled", nil)
		default:
			logger.WithError(err).Error("upload failed")
			response.Error[any](c, http.StatusInternalServerError, "upload unavailable", nil)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"url": url}, "uploaded", nil)
}
