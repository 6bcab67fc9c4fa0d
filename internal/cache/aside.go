package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hearth/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	CommunityKeyPrefix     = "community:%d"
	CommunityNameKeyPrefix = "community:name:%s:%s"
	ModeratorsKeyPrefix    = "community:%d:moderators"
)

const (
	CommunityTTL  = 10 * time.Minute
	ModeratorsTTL = 2 * time.Minute
)

func CommunityKey(id uint) string {
	return fmt.Sprintf(CommunityKeyPrefix, id)
}

func CommunityNameKey(host, name string) string {
	return fmt.Sprintf(CommunityNameKeyPrefix, host, strings.ToLower(name))
}

func ModeratorsKey(communityID uint) string {
	return fmt.Sprintf(ModeratorsKeyPrefix, communityID)
}

// Aside reads key into dest, falling back to load on a miss and storing what
// load put into dest. Redis failures degrade to calling load; errors from load
// are returned unchanged and nothing is cached.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		Invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateCommunity drops every cached view of a community.
func InvalidateCommunity(ctx context.Context, id uint, host, name string) {
	Invalidate(ctx, CommunityKey(id), CommunityNameKey(host, name), ModeratorsKey(id))
}

func InvalidateModerators(ctx context.Context, communityID uint) {
	Invalidate(ctx, ModeratorsKey(communityID))
}
