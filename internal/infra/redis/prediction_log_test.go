package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

func TestPredictionLog_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("REDIS_URL not set, skipping Redis integration test")
	}

	client, err := NewClient(Config{URL: url})
	require.NoError(t, err)

	key := "predictions:test:" + uuid.NewString()
	log := NewPredictionLog(client, key, 2)
	defer func() {
		_ = client.rdb.Del(context.Background(), key).Err()
		_ = log.Close()
	}()

	ctx := context.Background()
	for _, seq := range []string{"AAA", "BBB", "CCC"} {
		err := log.Write(ctx, domain.Notification{
			Sequence:  seq,
			User:      "anonymous",
			Source:    "test",
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	recent, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "BBB", recent[0].Sequence)
	assert.Equal(t, "CCC", recent[1].Sequence)
}

func TestNewPredictionLog_DefaultKey(t *testing.T) {
	l := NewPredictionLog(&Client{}, "", 0)
	assert.Equal(t, DefaultKey, l.key)
	assert.Equal(t, "redis", l.Name())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{URL: "not-a-redis-url"})
	assert.Error(t, err)
}
