package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	ItemKeyPrefix = "item:%d"
)

const (
	UserTTL = 5 * time.Minute
	ItemTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ItemKey(itemID uint) string {
	return fmt.Sprintf(ItemKeyPrefix, itemID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateItem(ctx context.Context, itemID uint) {
	Invalidate(ctx, ItemKey(itemID))
}

// SetJSON stores value as JSON under key with the given TTL. Failures are
// dropped; the cache is an optimization, never a source of truth.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, b, ttl)
}

// GetJSON unmarshals the cached value at key into dest, returning true on a
// hit. Absent keys, Redis being down, and decode failures all read as a miss.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if client == nil {
		return false
	}
	b, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}
