package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url, google_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''))
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.AvatarURL, u.GoogleID)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	return r.getBy(`id = $1`, id)
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return r.getBy(`email = $1`, email)
}

func (r *UserRepository) GetByGoogleID(googleID string) (*entity.User, error) {
	return r.getBy(`google_id = $1`, googleID)
}

func (r *UserRepository) getBy(where string, arg any) (*entity.User, error) {
	ctx := context.Background()
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, COALESCE(password_hash, ''), name, avatar_url, COALESCE(google_id, ''), created_at, updated_at
		FROM users
		WHERE `+where, arg)

	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL,
		&u.GoogleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = NULLIF($2, ''), name = $3, avatar_url = $4, google_id = NULLIF($5, ''), updated_at = $6
		WHERE id = $7
	`, u.Email, u.Password, u.Name, u.AvatarURL, u.GoogleID, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
