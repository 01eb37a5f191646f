package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/redis/go-redis/v9"
)

const (
	// SearchCacheTTL keeps cached search pages fresh enough for a
	// read-heavy listing index without write-path invalidation.
	SearchCacheTTL = 60 * time.Second
	// SearchCachePrefix is the Redis key prefix for cached search results.
	SearchCachePrefix = "search"
)

// SearchCacheKey builds a deterministic key from the query parameters:
// the params are sorted, joined and hashed so equivalent queries share
// an entry regardless of parameter order.
func SearchCacheKey(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return prefix + ":" + hex.EncodeToString(hash[:])
}

// GetCached loads a cached JSON value into dest. A miss is not an error.
func GetCached(ctx context.Context, key string, dest interface{}) (bool, error) {
	if database.RedisClient == nil {
		return false, nil
	}
	data, err := database.RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), dest)
}

// SetCached stores a value as JSON with the given TTL.
func SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if database.RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, key, data, ttl).Err()
}
