package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/internal/domain/repository"
)

const storyColumns = `id, user_id, title, content, tags, visibility, image_urls, created_at, updated_at`

type StoryRepository struct {
	pool *pgxpool.Pool
}

func NewStoryRepository(pool *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{pool: pool}
}

func (r *StoryRepository) Create(s *entity.Story) error {
	ctx := context.Background()
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO stories (user_id, title, content, tags, visibility, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, s.UserID, s.Title, s.Content, s.Tags, string(s.Visibility), s.ImageURLs)

	return row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *StoryRepository) GetByID(id string) (*entity.Story, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+storyColumns+`
		FROM stories
		WHERE id = $1
	`, id)

	s, err := scanStory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// UpdateOwned overwrites the whole mutable payload in one conditional
// statement, so the ownership check and the write cannot race.
func (r *StoryRepository) UpdateOwned(s *entity.Story) error {
	ctx := context.Background()
	s.UpdatedAt = time.Now()
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}

	res, err := r.pool.Exec(ctx, `
		UPDATE stories
		SET title = $1, content = $2, tags = $3, visibility = $4, image_urls = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`, s.Title, s.Content, s.Tags, string(s.Visibility), s.ImageURLs, s.UpdatedAt, s.ID, s.UserID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StoryRepository) DeleteOwned(id, ownerID string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		DELETE FROM stories
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StoryRepository) List(f repository.StoryFilter) ([]*entity.Story, error) {
	ctx := context.Background()
	query, args := buildListQuery(f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Story, 0)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// buildListQuery assembles the filtered listing statement. Kept separate from
// List so the clause assembly is testable without a database.
func buildListQuery(f repository.StoryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != "" {
		where = append(where, "user_id = "+arg(f.OwnerID))
	}
	if f.Visibility != "" {
		where = append(where, "visibility = "+arg(string(f.Visibility)))
	}
	if f.Tag != "" {
		where = append(where, arg(f.Tag)+" = ANY(tags)")
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(title ILIKE "+p+" OR content ILIKE "+p+")")
	}

	q := "SELECT " + storyColumns + " FROM stories"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	return q, args
}

func scanStory(row pgx.Row) (*entity.Story, error) {
	s := &entity.Story{}
	var visibility string
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Content, &s.Tags,
		&visibility, &s.ImageURLs, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Visibility = entity.Visibility(visibility)
	return s, nil
}

var _ repository.StoryRepository = (*StoryRepository)(nil)
