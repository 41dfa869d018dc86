package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// DefaultKey is the list that holds recorded predictions.
const DefaultKey = "predictions:log"

// PredictionLog appends notifications to a capped Redis list.
type PredictionLog struct {
	client *Client
	key    string
	maxLen int64
}

// NewPredictionLog creates a Redis-backed prediction log. maxLen <= 0 keeps
// the list unbounded.
func NewPredictionLog(client *Client, key string, maxLen int64) *PredictionLog {
	if key == "" {
		key = DefaultKey
	}
	return &PredictionLog{
		client: client,
		key:    key,
		maxLen: maxLen,
	}
}

// Name implements notify.Sink.
func (l *PredictionLog) Name() string { return "redis" }

// Write appends n and trims the list to its newest maxLen entries.
func (l *PredictionLog) Write(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = l.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, l.key, data)
		if l.maxLen > 0 {
			pipe.LTrim(ctx, l.key, -l.maxLen, -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rpush failed: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (l *PredictionLog) Recent(ctx context.Context, limit int64) ([]domain.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	values, err := l.client.rdb.LRange(ctx, l.key, -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	out := make([]domain.Notification, 0, len(values))
	for _, v := range values {
		var n domain.Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return nil, fmt.Errorf("invalid entry in %s: %w", l.key, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Close closes the underlying client.
func (l *PredictionLog) Close() error {
	return l.client.Close()
}
