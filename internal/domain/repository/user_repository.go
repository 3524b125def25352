package repository

import "github.com/inkstone-app/inkstone/internal/domain/entity"

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByGoogleID(googleID string) (*entity.User, error)
	Update(u *entity.User) error
}
