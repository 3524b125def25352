package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/pkg/response"
	"github.com/inkstone-app/inkstone/pkg/validation"
)

// StoryAPI is the slice of the application layer the story endpoints use.
type StoryAPI interface {
	Create(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error)
	Get(ctx context.Context, storyID, viewerID string) (*entity.Story, error)
	Update(ctx context.Context, storyID, ownerID string, in application.StoryInput) (*entity.Story, error)
	Delete(ctx context.Context, storyID, ownerID string) error
	ListPublic(ctx context.Context, tag, search string) ([]*entity.Story, error)
	ListOwned(ctx context.Context, ownerID, tag, search string) ([]*entity.Story, error)
	SearchPublic(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type StoryHandler struct {
	Svc    StoryAPI
	Logger *logrus.Logger
}

func NewStoryHandler(svc StoryAPI, logger *logrus.Logger) *StoryHandler {
	return &StoryHandler{Svc: svc, Logger: logger}
}

type storyRequest struct {
	Title      string   `json:"title" binding:"required"`
	Content    string   `json:"content" binding:"required"`
	Tags       []string `json:"tags"`
	Visibility string   `json:"visibility" binding:"required"`
	ImageURLs  []string `json:"image_urls"`
}

func (r storyRequest) toInput() application.StoryInput {
	return application.StoryInput{
		Title:      r.Title,
		Content:    r.Content,
		Tags:       r.Tags,
		Visibility: entity.Visibility(r.Visibility),
		ImageURLs:  r.ImageURLs,
	}
}

type storyPayload struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Visibility string   `json:"visibility"`
	ImageURLs  []string `json:"image_urls"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

func toStoryPayload(s *entity.Story) storyPayload {
	return storyPayload{
		ID:         s.ID,
		UserID:     s.UserID,
		Title:      s.Title,
		Content:    s.Content,
		Tags:       s.Tags,
		Visibility: string(s.Visibility),
		ImageURLs:  s.ImageURLs,
		CreatedAt:  s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toStoryPayloads(list []*entity.Story) []storyPayload {
	out := make([]storyPayload, 0, len(list))
	for _, s := range list {
		out = append(out, toStoryPayload(s))
	}
	return out
}

func (h *StoryHandler) fail(c *gin.Context, err error, action string) {
	switch {
	case application.IsValidation(err):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrStoryNotFound):
		response.Error[any](c, http.StatusNotFound, "story not found", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, "not your story", nil)
	default:
		h.Logger.WithError(err).Error(action + " failed")
		response.Error[any](c, http.StatusInternalServerError, action+" unavailable", nil)
	}
}

// Create POST /api/stories (auth required)
func (h *StoryHandler) Create(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	s, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), req.toInput())
	if err != nil {
		h.fail(c, err, "story create")
		return
	}
	response.Success(c, http.StatusCreated, toStoryPayload(s), "story created", nil)
}

// Get GET /api/stories/:id (anonymous allowed)
func (h *StoryHandler) Get(c *gin.Context) {
	s, err := h.Svc.Get(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		h.fail(c, err, "story fetch")
		return
	}
	response.Success(c, http.StatusOK, toStoryPayload(s), "story", nil)
}

// Update PUT /api/stories/:id (auth required)
func (h *StoryHandler) Update(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	s, err := h.Svc.Update(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.toInput())
	if err != nil {
		h.fail(c, err, "story update")
		return
	}
	response.Success(c, http.StatusOK, toStoryPayload(s), "story updated", nil)
}

// Delete DELETE /api/stories/:id (auth required)
func (h *StoryHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		h.fail(c, err, "story delete")
		return
	}
	response.Success[any](c, http.StatusOK, nil, "story deleted", nil)
}

// ListPublic GET /api/stories?tag=&search=
func (h *StoryHandler) ListPublic(c *gin.Context) {
	list, err := h.Svc.ListPublic(c.Request.Context(), c.Query("tag"), c.Query("search"))
	if err != nil {
		h.fail(c, err, "feed")
		return
	}
	response.Success(c, http.StatusOK, toStoryPayloads(list), "public stories", gin.H{"count": len(list)})
}

// ListMine GET /api/me/stories?tag=&search= (auth required)
func (h *StoryHandler) ListMine(c *gin.Context) {
	list, err := h.Svc.ListOwned(c.Request.Context(), c.GetString("userID"), c.Query("tag"), c.Query("search"))
	if err != nil {
		h.fail(c, err, "story list")
		return
	}
	response.Success(c, http.StatusOK, toStoryPayloads(list), "your stories", gin.H{"count": len(list)})
}

// Search GET /api/stories/search?q=&size=
func (h *StoryHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size := 20
	if raw := c.Query("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			size = n
		}
	}

	hits, err := h.Svc.SearchPublic(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusServiceUnavailable, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}
