package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone-app/inkstone/internal/application"
	handlers "github.com/inkstone-app/inkstone/internal/interface/http"
)

type stubUploader struct {
	fn func(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error)
}

func (s *stubUploader) UploadImage(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error) {
	return s.fn(ctx, ownerID, prefix, filename, contentType, size, r)
}

func uploadRouter(up *stubUploader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewUploadHandler(up, logrus.New())
	r := gin.New()
	r.Use(asUser("u1"))
	r.POST("/api/uploads", h.Upload)
	return r
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadStoresFile(t *testing.T) {
	up := &stubUploader{
		fn: func(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error) {
			assert.Equal(t, "u1", ownerID)
			assert.Equal(t, "stories", prefix)
			assert.Equal(t, "photo.png", filename)
			assert.Equal(t, "image/png", contentType)
			return "https://storage.googleapis.com/bucket/stories/u1/x.png", nil
		},
	}
	body, ct := multipartBody(t, "file", "photo.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	uploadRouter(up).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "stories/u1/x.png")
}

func TestUploadRequiresFileField(t *testing.T) {
	up := &stubUploader{
		fn: func(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error) {
			t.Fatal("service should not be called")
			return "", nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
	w := httptest.NewRecorder()
	uploadRouter(up).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected file", application.NewValidationError("file must be an image"), http.StatusBadRequest},
		{"storage not configured", application.ErrUploadsDisabled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &stubUploader{
				fn: func(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error) {
					return "", tt.err
				},
			}
			body, ct := multipartBody(t, "file", "notes.pdf", "application/pdf", []byte("%PDF"))
			req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			uploadRouter(up).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
