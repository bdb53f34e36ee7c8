package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// DocumentCache is a read-through redis cache for extracted document text.
// Document content never changes after ingestion, so entries only need a TTL
// to bound memory, not a dirty-marker protocol.
type DocumentCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewDocumentCache(client *redisv9.Client, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DocumentCache{client: client, ttl: ttl}
}

// GetContent returns the cached text and whether it was present.
func (c *DocumentCache) GetContent(ctx context.Context, documentID string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.contentKey(documentID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get document failed: %w", err)
	}
	return raw, true, nil
}

func (c *DocumentCache) SetContent(ctx context.Context, documentID, content string) error {
	if err := c.client.Set(ctx, c.contentKey(documentID), content, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set document failed: %w", err)
	}
	return nil
}

func (c *DocumentCache) DeleteContent(ctx context.Context, documentID string) error {
	if err := c.client.Del(ctx, c.contentKey(documentID)).Err(); err != nil {
		return fmt.Errorf("redis delete document failed: %w", err)
	}
	return nil
}

func (c *DocumentCache) contentKey(documentID string) string {
	return fmt.Sprintf("doc:content:%s", documentID)
}
