package persistence

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/folio/internal/domain/profile"
)

type redisPublicProfileCache struct {
	client *redis.Client
}

func NewRedisPublicProfileCache(client *redis.Client) profile.PublicCache {
	return &redisPublicProfileCache{client: client}
}

func publicProfileKey(username string) string {
	return fmt.Sprintf("public_profile:%s", username)
}

func (c *redisPublicProfileCache) Get(ctx context.Context, username string) (*profile.Public, error) {
	val, err := c.client.Get(ctx, publicProfileKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	raw, err := decompress(val)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	p := &profile.Public{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *redisPublicProfileCache) Set(ctx context.Context, p *profile.Public, ttl time.Duration) error {
	val, err := json.Marshal(p)
	if err != nil {
		return err
	}
	compressed, err := compress(val)
	if err != nil {
		return fmt.Errorf("failed to compress: %w", err)
	}
	return c.client.Set(ctx, publicProfileKey(p.Profile.Username), compressed, ttl).Err()
}

func (c *redisPublicProfileCache) Invalidate(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	keys := make([]string, len(usernames))
	for i, u := range usernames {
		keys[i] = publicProfileKey(u)
	}
	return c.client.Del(ctx, keys...).Err()
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
