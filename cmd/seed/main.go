package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/inkstone-app/inkstone/config"
	"github.com/inkstone-app/inkstone/internal/infrastructure/postgres"
	"github.com/inkstone-app/inkstone/pkg/helpers"
)

type seedStory struct {
	title      string
	content    string
	tags       []string
	visibility string
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer pool.Close()

	email := "demo@inkstone.app"
	password := "password123"
	name := "Demo Writer"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name, "").Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)

	seedStories(ctx, pool, id, []seedStory{
		{
			title:      "First entry",
			content:    "Started keeping this journal today. Nobody can read this one but me.",
			tags:       []string{"journal"},
			visibility: "PRIVATE",
		},
		{
			title:      "On slow mornings",
			content:    "There is a particular quiet to the hour before anyone else wakes up. I have started writing in it.",
			tags:       []string{"mornings", "writing"},
			visibility: "PUBLIC",
		},
	})
}

func seedStories(ctx context.Context, pool *pgxpool.Pool, userID string, stories []seedStory) {
	for _, s := range stories {
		var sid string
		err := pool.QueryRow(ctx, `
			INSERT INTO stories (user_id, title, content, tags, visibility, image_urls)
			VALUES ($1, $2, $3, $4, $5, '{}')
			RETURNING id
		`, userID, s.title, s.content, s.tags, s.visibility).Scan(&sid)
		if err != nil {
			log.Fatalf("failed to seed story %q: %v", s.title, err)
		}
		fmt.Printf("seeded story: id=%s visibility=%s title=%q\n", sid, s.visibility, s.title)
	}
}
