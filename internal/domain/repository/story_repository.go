package repository

import (
	"errors"

	"github.com/inkstone-app/inkstone/internal/domain/entity"
)

// ErrNotFound is returned when a row does not exist, or when an owner-scoped
// mutation matched no row.
var ErrNotFound = errors.New("not found")

// StoryFilter narrows a listing. Zero values mean "no restriction".
type StoryFilter struct {
	OwnerID    string
	Visibility entity.Visibility
	Tag        string // tag set must contain this exact value
	Search     string // case-insensitive substring against title or content
	Limit      int    // 0 = uncapped
}

// StoryRepository defines the interface for story persistence. Ordering is
// always creation time descending.
type StoryRepository interface {
	Create(s *entity.Story) error
	GetByID(id string) (*entity.Story, error)
	// UpdateOwned replaces the whole mutable payload of the story, but only
	// when it is still owned by s.UserID. A vanished or foreign row yields
	// ErrNotFound; callers disambiguate with GetByID.
	UpdateOwned(s *entity.Story) error
	// DeleteOwned hard-deletes the story when owned by ownerID.
	DeleteOwned(id, ownerID string) error
	List(f StoryFilter) ([]*entity.Story, error)
}
