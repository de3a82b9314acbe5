package cache

import (
	"context"
	"time"
)

// Cache interface định nghĩa contract cho cache layer
// Cho phép swap implementation (Redis, in-memory trong test)
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest
	// Returns: (found bool, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data vào cache với TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX chỉ set khi key chưa tồn tại, dùng làm short-lived lock
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Delete xóa các keys khỏi cache
	Delete(ctx context.Context, keys ...string) error

	// DeleteIfValue xóa key chỉ khi value còn khớp (release lock của chính mình)
	DeleteIfValue(ctx context.Context, key string, value interface{}) (bool, error)

	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Ping(ctx context.Context) error
}
