package entity

import (
	"time"
)

// Visibility controls who may read a story.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityPublic  Visibility = "PUBLIC"
)

// Valid reports whether v is one of the two recognized values.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Story is a user-authored journal entry. UserID is set at creation and never
// reassigned; every mutation is gated on it.
type Story struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	Tags       []string
	Visibility Visibility
	ImageURLs  []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
