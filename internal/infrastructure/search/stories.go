// Package search maintains the public-story Elasticsearch index. Writes are
// best-effort; the relational store stays the source of truth.
package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/inkstone-app/inkstone/internal/domain/entity"
)

// NewClient builds an Elasticsearch client from comma-split addresses.
func NewClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
	}
	return elasticsearch.NewClient(cfg)
}

// StoryIndex mirrors public stories into Elasticsearch.
type StoryIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewStoryIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *StoryIndex {
	return &StoryIndex{ES: es, Index: index, Logger: logger}
}

func (i *StoryIndex) enabled() bool {
	return i != nil && i.ES != nil && i.Index != ""
}

// Sync indexes a public story, and removes a private one so visibility flips
// never leave stale public hits behind.
func (i *StoryIndex) Sync(ctx context.Context, s *entity.Story) {
	if !i.enabled() {
		return
	}
	if s.Visibility != entity.VisibilityPublic {
		i.Remove(ctx, s.ID)
		return
	}
	doc := map[string]any{
		"id":         s.ID,
		"title":      s.Title,
		"content":    s.Content,
		"tags":       s.Tags,
		"created_at": s.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: i.Index, DocumentID: s.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		if i.Logger != nil {
			i.Logger.WithError(err).WithField("story_id", s.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && i.Logger != nil {
		i.Logger.WithField("status", res.Status()).WithField("story_id", s.ID).Warn("es index response error")
	}
}

// Remove deletes a story document; absent documents are fine.
func (i *StoryIndex) Remove(ctx context.Context, storyID string) {
	if !i.enabled() {
		return
	}
	req := esapi.DeleteRequest{Index: i.Index, DocumentID: storyID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		if i.Logger != nil {
			i.Logger.WithError(err).WithField("story_id", storyID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchPublic runs a multi_match over title, content and tags.
func (i *StoryIndex) SearchPublic(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !i.enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "content", "tags"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := i.ES.Search(i.ES.Search.WithContext(c), i.ES.Search.WithIndex(i.Index), i.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
