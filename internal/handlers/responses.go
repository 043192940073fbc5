package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DASHBOARD_STATS_CACHE_KEY  = "dashboard:stats"
	DASHBOARD_ALERTS_CACHE_KEY = "dashboard:alerts"
	CACHE_TTL_SHORT            = 1 * time.Minute
	CACHE_TTL_MEDIUM           = 5 * time.Minute
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// Cache helpers are best-effort: the database stays authoritative and any
// redis failure falls through to a fresh query.

func cacheGet(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = rdb.Set(ctx, key, raw, ttl)
}

func cacheDel(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, keys...)
}

func invalidateDashboardCaches(ctx context.Context, rdb *redis.Client) {
	cacheDel(ctx, rdb, DASHBOARD_STATS_CACHE_KEY, DASHBOARD_ALERTS_CACHE_KEY)
}
