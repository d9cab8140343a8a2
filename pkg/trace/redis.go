package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
	"github.com/vnykmshr/tickloop/pkg/common/validation"
)

// RedisConfig configures a RedisRecorder.
type RedisConfig struct {
	// Redis is the client used for every command. Required.
	Redis redis.UniversalClient

	// Key is the list the entries are appended to. Required.
	Key string

	// RedisTimeout bounds each Redis round trip (default: 1s).
	RedisTimeout time.Duration

	// MaxEntries trims the list to the newest entries after each append
	// (0 = unbounded).
	MaxEntries int64

	// KeyTTL sets an expiry on the list after each append (0 = none).
	KeyTTL time.Duration
}

// RedisRecorder appends JSON-encoded entries to a Redis list so traces of
// separate runs or processes can be compared.
type RedisRecorder struct {
	config RedisConfig
}

// NewRedisRecorder validates cfg and returns a recorder.
func NewRedisRecorder(cfg RedisConfig) (*RedisRecorder, error) {
	if cfg.Redis == nil {
		return nil, tlerrors.NewValidationError("trace", "redis", nil, "cannot be nil").
			WithHint("pass a *redis.Client or redis.UniversalClient")
	}
	if err := validation.ValidateNotEmpty("trace", "key", cfg.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("trace", "max_entries", cfg.MaxEntries); err != nil {
		return nil, err
	}
	if cfg.RedisTimeout <= 0 {
		cfg.RedisTimeout = time.Second
	}
	return &RedisRecorder{config: cfg}, nil
}

// Record appends e to the list.
func (r *RedisRecorder) Record(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return tlerrors.NewOperationError("trace", "Record", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	pipe := r.config.Redis.TxPipeline()
	pipe.RPush(ctx, r.config.Key, payload)
	if r.config.MaxEntries > 0 {
		pipe.LTrim(ctx, r.config.Key, -r.config.MaxEntries, -1)
	}
	if r.config.KeyTTL > 0 {
		pipe.Expire(ctx, r.config.Key, r.config.KeyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return tlerrors.NewOperationError("trace", "Record", err).
			WithContext(fmt.Sprintf("key %s", r.config.Key))
	}
	return nil
}

// Load reads back every stored entry in append order.
func (r *RedisRecorder) Load(ctx context.Context) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	raw, err := r.config.Redis.LRange(ctx, r.config.Key, 0, -1).Result()
	if err != nil {
		return nil, tlerrors.NewOperationError("trace", "Load", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, tlerrors.NewOperationError("trace", "Load", err).
				WithContext(fmt.Sprintf("entry %d", i))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Reset deletes the list.
func (r *RedisRecorder) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	if err := r.config.Redis.Del(ctx, r.config.Key).Err(); err != nil {
		return tlerrors.NewOperationError("trace", "Reset", err)
	}
	return nil
}
