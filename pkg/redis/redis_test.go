package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finscore/pkg/config"
)

type cachedResult struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result cachedResult
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", cachedResult{}, TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "finscore")
	ctx := context.Background()

	t.Run("hit decodes value", func(t *testing.T) {
		data, _ := json.Marshal(cachedResult{Symbol: "AAPL", Score: 74.3})
		mock.ExpectGet("finscore:cache:k1").SetVal(string(data))

		var got cachedResult
		found, err := cache.Get(ctx, "k1", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, cachedResult{Symbol: "AAPL", Score: 74.3}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		mock.ExpectGet("finscore:cache:k2").RedisNil()

		var got cachedResult
		found, err := cache.Get(ctx, "k2", &got)
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection error surfaces", func(t *testing.T) {
		mock.ExpectGet("finscore:cache:k3").SetErr(errors.New("connection reset"))

		var got cachedResult
		_, err := cache.Get(ctx, "k3", &got)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload surfaces", func(t *testing.T) {
		mock.ExpectGet("finscore:cache:k4").SetVal("{not json")

		var got cachedResult
		_, err := cache.Get(ctx, "k4", &got)
		assert.ErrorContains(t, err, "unmarshal")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCache_SetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "finscore")
	ctx := context.Background()

	value := cachedResult{Symbol: "MSFT", Score: 61}
	data, _ := json.Marshal(value)

	mock.ExpectSet("finscore:cache:k1", data, 15*time.Minute).SetVal("OK")
	require.NoError(t, cache.Set(ctx, "k1", value, TTLMedium))

	mock.ExpectSet("finscore:cache:k2", data, time.Minute).SetErr(errors.New("READONLY"))
	assert.Error(t, cache.Set(ctx, "k2", value, TTLShort))

	mock.ExpectDel("finscore:cache:k1").SetVal(1)
	require.NoError(t, cache.Delete(ctx, "k1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisKey(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "upper-cases symbol",
			got:  AnalysisKey("aapl", "standard", "abc", "def"),
			want: "analysis:AAPL:standard:abc:def",
		},
		{
			name: "truncates long hashes",
			got:  AnalysisKey("MSFT", "comprehensive", "0123456789abcdef0123", "fedcba9876543210ffff"),
			want: "analysis:MSFT:comprehensive:0123456789abcdef:fedcba9876543210",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
