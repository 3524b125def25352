package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/domain/access"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/internal/domain/repository"
	"github.com/inkstone-app/inkstone/internal/infrastructure/search"
)

// MaxImageBytes caps a single uploaded image. Enforced before the object store
// is touched.
const MaxImageBytes = 5 << 20

// orphanTTL bounds how long an uploaded object can sit unattached before its
// marker expires.
const orphanTTL = 24 * time.Hour

// ObjectStorage is the slice of the object store the story service needs.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
	ObjectPathFromURL(url string) string
}

// StoryInput is the whole mutable payload of a story. Updates overwrite all of
// it; there is no field-level merge.
type StoryInput struct {
	Title      string
	Content    string
	Tags       []string
	Visibility entity.Visibility
	ImageURLs  []string
}

// StoryService implements story CRUD, listing, and the image attachment flow.
type StoryService struct {
	Repo      repository.StoryRepository
	Storage   ObjectStorage
	Index     *search.StoryIndex
	Redis     *redis.Client
	Logger    *logrus.Logger
	FeedLimit int
}

func NewStoryService(repo repository.StoryRepository, storage ObjectStorage, index *search.StoryIndex, rdb *redis.Client, logger *logrus.Logger, feedLimit int) *StoryService {
	if feedLimit <= 0 {
		feedLimit = 50
	}
	return &StoryService{
		Repo:      repo,
		Storage:   storage,
		Index:     index,
		Redis:     rdb,
		Logger:    logger,
		FeedLimit: feedLimit,
	}
}

func validateStoryInput(in StoryInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return NewValidationError("title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return NewValidationError("content is required")
	}
	if !in.Visibility.Valid() {
		return NewValidationError("visibility must be PRIVATE or PUBLIC")
	}
	return nil
}

// Create stores a new story owned by ownerID.
func (s *StoryService) Create(ctx context.Context, ownerID string, in StoryInput) (*entity.Story, error) {
	if err := validateStoryInput(in); err != nil {
		return nil, err
	}
	story := &entity.Story{
		UserID:     ownerID,
		Title:      in.Title,
		Content:    in.Content,
		Tags:       in.Tags,
		Visibility: in.Visibility,
		ImageURLs:  in.ImageURLs,
	}
	if err := s.Repo.Create(story); err != nil {
		return nil, err
	}
	s.clearOrphanMarkers(ctx, story.ImageURLs)
	if s.Index != nil {
		s.Index.Sync(ctx, story)
	}
	return story, nil
}

// Get returns the story when the viewer may read it. A private story requested
// by anyone but its owner is reported exactly like a missing one.
func (s *StoryService) Get(ctx context.Context, storyID, viewerID string) (*entity.Story, error) {
	story, err := s.Repo.GetByID(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	if !access.CanView(viewerID, story) {
		return nil, ErrStoryNotFound
	}
	return story, nil
}

// Update replaces the whole mutable payload. The write itself is owner-scoped
// in SQL; the pre-fetch exists to split NotFound from Forbidden and to diff
// image attachments for cleanup.
func (s *StoryService) Update(ctx context.Context, storyID, ownerID string, in StoryInput) (*entity.Story, error) {
	if err := validateStoryInput(in); err != nil {
		return nil, err
	}
	old, err := s.Repo.GetByID(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	if !access.CanMutate(ownerID, old) {
		return nil, ErrForbidden
	}

	story := &entity.Story{
		ID:         storyID,
		UserID:     ownerID,
		Title:      in.Title,
		Content:    in.Content,
		Tags:       in.Tags,
		Visibility: in.Visibility,
		ImageURLs:  in.ImageURLs,
		CreatedAt:  old.CreatedAt,
	}
	if err := s.Repo.UpdateOwned(story); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Row vanished between fetch and write.
			return nil, ErrStoryNotFound
		}
		return nil, err
	}

	s.cleanupRemovedImages(ctx, old.ImageURLs, story.ImageURLs)
	s.clearOrphanMarkers(ctx, story.ImageURLs)
	if s.Index != nil {
		s.Index.Sync(ctx, story)
	}
	return story, nil
}

// Delete hard-deletes the story and best-effort removes its attached objects.
func (s *StoryService) Delete(ctx context.Context, storyID, ownerID string) error {
	old, err := s.Repo.GetByID(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStoryNotFound
		}
		return err
	}
	if !access.CanMutate(ownerID, old) {
		return ErrForbidden
	}
	if err := s.Repo.DeleteOwned(storyID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStoryNotFound
		}
		return err
	}
	s.cleanupRemovedImages(ctx, old.ImageURLs, nil)
	if s.Index != nil {
		s.Index.Remove(ctx, storyID)
	}
	return nil
}

// ListPublic returns the anonymous community feed, newest first, capped.
func (s *StoryService) ListPublic(ctx context.Context, tag, searchTerm string) ([]*entity.Story, error) {
	return s.Repo.List(repository.StoryFilter{
		Visibility: entity.VisibilityPublic,
		Tag:        tag,
		Search:     searchTerm,
		Limit:      s.FeedLimit,
	})
}

// ListOwned returns every story of one owner, newest first, uncapped.
func (s *StoryService) ListOwned(ctx context.Context, ownerID, tag, searchTerm string) ([]*entity.Story, error) {
	return s.Repo.List(repository.StoryFilter{
		OwnerID: ownerID,
		Tag:     tag,
		Search:  searchTerm,
	})
}

// SearchPublic queries the Elasticsearch index for public stories.
func (s *StoryService) SearchPublic(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	return s.Index.SearchPublic(ctx, q, size)
}

// UploadImage validates and stores one image under the owner's namespace and
// returns its durable URL. The URL stays marked as an orphan until a story
// references it.
func (s *StoryService) UploadImage(ctx context.Context, ownerID, prefix, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.Storage == nil {
		return "", ErrUploadsDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", NewValidationError("file must be an image")
	}
	if size > MaxImageBytes {
		return "", NewValidationError("file size must be less than 5MB")
	}
	if prefix == "" {
		prefix = "stories"
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := fmt.Sprintf("%s/%s/%d-%s%s", prefix, ownerID, time.Now().UnixMilli(), uuid.NewString(), ext)

	// Cap the read as well, in case the declared size lied.
	url, err := s.Storage.Upload(ctx, objectPath, contentType, io.LimitReader(r, MaxImageBytes))
	if err != nil {
		return "", err
	}
	s.markOrphan(ctx, url)
	return url, nil
}

func orphanKey(url string) string {
	return "img:orphan:" + url
}

func (s *StoryService) markOrphan(ctx context.Context, url string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, orphanKey(url), "1", orphanTTL).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Warn("orphan marker set failed")
	}
}

func (s *StoryService) clearOrphanMarkers(ctx context.Context, urls []string) {
	if s.Redis == nil || len(urls) == 0 {
		return
	}
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		keys = append(keys, orphanKey(u))
	}
	_ = s.Redis.Del(ctx, keys...).Err()
}

// cleanupRemovedImages deletes objects that were attached before and are gone
// from the new set. Failures are only logged.
func (s *StoryService) cleanupRemovedImages(ctx context.Context, oldURLs, newURLs []string) {
	if s.Storage == nil || len(oldURLs) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(newURLs))
	for _, u := range newURLs {
		keep[u] = struct{}{}
	}
	for _, u := range oldURLs {
		if _, ok := keep[u]; ok {
			continue
		}
		path := s.Storage.ObjectPathFromURL(u)
		if path == "" {
			continue
		}
		if err := s.Storage.Delete(ctx, path); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("object", path).Warn("image cleanup failed")
		}
	}
}
