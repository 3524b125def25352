package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	handlers "github.com/inkstone-app/inkstone/internal/interface/http"
)

type stubStoryAPI struct {
	createFn     func(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error)
	getFn        func(ctx context.Context, storyID, viewerID string) (*entity.Story, error)
	updateFn     func(ctx context.Context, storyID, ownerID string, in application.StoryInput) (*entity.Story, error)
	deleteFn     func(ctx context.Context, storyID, ownerID string) error
	listPublicFn func(ctx context.Context, tag, search string) ([]*entity.Story, error)
	listOwnedFn  func(ctx context.Context, ownerID, tag, search string) ([]*entity.Story, error)
	searchFn     func(ctx context.Context, q string, size int) ([]map[string]any, error)
}

func (s *stubStoryAPI) Create(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubStoryAPI) Get(ctx context.Context, storyID, viewerID string) (*entity.Story, error) {
	return s.getFn(ctx, storyID, viewerID)
}

func (s *stubStoryAPI) Update(ctx context.Context, storyID, ownerID string, in application.StoryInput) (*entity.Story, error) {
	return s.updateFn(ctx, storyID, ownerID, in)
}

func (s *stubStoryAPI) Delete(ctx context.Context, storyID, ownerID string) error {
	return s.deleteFn(ctx, storyID, ownerID)
}

func (s *stubStoryAPI) ListPublic(ctx context.Context, tag, search string) ([]*entity.Story, error) {
	return s.listPublicFn(ctx, tag, search)
}

func (s *stubStoryAPI) ListOwned(ctx context.Context, ownerID, tag, search string) ([]*entity.Story, error) {
	return s.listOwnedFn(ctx, ownerID, tag, search)
}

func (s *stubStoryAPI) SearchPublic(ctx context.Context, q string, size int) ([]map[string]any, error) {
	return s.searchFn(ctx, q, size)
}

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}
}

func storyRouter(api *stubStoryAPI, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewStoryHandler(api, logrus.New())
	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/api/stories", h.ListPublic)
	r.GET("/api/stories/search", h.Search)
	r.GET("/api/stories/:id", h.Get)
	r.POST("/api/stories", h.Create)
	r.PUT("/api/stories/:id", h.Update)
	r.DELETE("/api/stories/:id", h.Delete)
	r.GET("/api/me/stories", h.ListMine)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleStory() *entity.Story {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &entity.Story{
		ID:         "s1",
		UserID:     "u1",
		Title:      "On slow mornings",
		Content:    "Quiet hours.",
		Tags:       []string{"mornings"},
		Visibility: entity.VisibilityPublic,
		ImageURLs:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateStoryReturns201(t *testing.T) {
	api := &stubStoryAPI{
		createFn: func(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error) {
			assert.Equal(t, "u1", ownerID)
			s := sampleStory()
			s.Title = in.Title
			return s, nil
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodPost, "/api/stories", gin.H{
		"title":      "On slow mornings",
		"content":    "Quiet hours.",
		"visibility": "PUBLIC",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"s1"`)
}

func TestCreateStoryRejectsBadPayload(t *testing.T) {
	api := &stubStoryAPI{
		createFn: func(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodPost, "/api/stories", gin.H{"title": "no content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStoryMapsValidationError(t *testing.T) {
	api := &stubStoryAPI{
		createFn: func(ctx context.Context, ownerID string, in application.StoryInput) (*entity.Story, error) {
			return nil, application.NewValidationError("visibility must be PRIVATE or PUBLIC")
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodPost, "/api/stories", gin.H{
		"title":      "x",
		"content":    "y",
		"visibility": "FRIENDS",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "visibility must be PRIVATE or PUBLIC")
}

func TestGetStoryStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"hidden or missing", application.ErrStoryNotFound, http.StatusNotFound},
		{"backend failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubStoryAPI{
				getFn: func(ctx context.Context, storyID, viewerID string) (*entity.Story, error) {
					return nil, tt.err
				},
			}
			w := doJSON(t, storyRouter(api, ""), http.MethodGet, "/api/stories/s1", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetStoryPassesViewerIdentity(t *testing.T) {
	api := &stubStoryAPI{
		getFn: func(ctx context.Context, storyID, viewerID string) (*entity.Story, error) {
			assert.Equal(t, "s1", storyID)
			assert.Equal(t, "u1", viewerID)
			return sampleStory(), nil
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodGet, "/api/stories/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateStoryForbidden(t *testing.T) {
	api := &stubStoryAPI{
		updateFn: func(ctx context.Context, storyID, ownerID string, in application.StoryInput) (*entity.Story, error) {
			return nil, application.ErrForbidden
		},
	}
	w := doJSON(t, storyRouter(api, "intruder"), http.MethodPut, "/api/stories/s1", gin.H{
		"title":      "x",
		"content":    "y",
		"visibility": "PUBLIC",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteStoryNotFound(t *testing.T) {
	api := &stubStoryAPI{
		deleteFn: func(ctx context.Context, storyID, ownerID string) error {
			return application.ErrStoryNotFound
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodDelete, "/api/stories/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPublicPassesFilters(t *testing.T) {
	api := &stubStoryAPI{
		listPublicFn: func(ctx context.Context, tag, search string) ([]*entity.Story, error) {
			assert.Equal(t, "travel", tag)
			assert.Equal(t, "rain", search)
			return []*entity.Story{sampleStory()}, nil
		},
	}
	w := doJSON(t, storyRouter(api, ""), http.MethodGet, "/api/stories?tag=travel&search=rain", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestListFiltersOnSearchParam(t *testing.T) {
	var got string
	api := &stubStoryAPI{
		listPublicFn: func(ctx context.Context, tag, search string) ([]*entity.Story, error) {
			got = search
			return []*entity.Story{}, nil
		},
	}
	w := doJSON(t, storyRouter(api, ""), http.MethodGet, "/api/stories?q=rain", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got, "only the search parameter filters the feed")

	w = doJSON(t, storyRouter(api, ""), http.MethodGet, "/api/stories?search=rain", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rain", got)
}

func TestListMineUsesCallerIdentity(t *testing.T) {
	api := &stubStoryAPI{
		listOwnedFn: func(ctx context.Context, ownerID, tag, search string) ([]*entity.Story, error) {
			assert.Equal(t, "u1", ownerID)
			assert.Equal(t, "drafts", search)
			return []*entity.Story{}, nil
		},
	}
	w := doJSON(t, storyRouter(api, "u1"), http.MethodGet, "/api/me/stories?search=drafts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	api := &stubStoryAPI{
		searchFn: func(ctx context.Context, q string, size int) ([]map[string]any, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	w := doJSON(t, storyRouter(api, ""), http.MethodGet, "/api/stories/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
