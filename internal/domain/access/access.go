// Package access holds the story access-control predicates. Both are pure;
// callers fetch the story first and treat "not found" as its own outcome.
package access

import (
	"github.com/inkstone-app/inkstone/internal/domain/entity"
)

// CanView reports whether the viewer may read the story. viewerID is empty for
// anonymous requests. Public stories are readable by anyone; private stories
// only by their owner.
func CanView(viewerID string, story *entity.Story) bool {
	if story.Visibility == entity.VisibilityPublic {
		return true
	}
	return viewerID != "" && viewerID == story.UserID
}

// CanMutate reports whether the viewer may update or delete the story.
// Visibility is irrelevant here; only the owner mutates, public or not.
func CanMutate(viewerID string, story *entity.Story) bool {
	return viewerID != "" && viewerID == story.UserID
}
