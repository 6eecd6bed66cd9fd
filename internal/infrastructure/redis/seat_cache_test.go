package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatCache_GetAvailableCount(t *testing.T) {
	t.Run("キャッシュヒット", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewSeatCache(client)

		mock.ExpectGet("seats:available:event-123").SetVal("42")

		count, err := cache.GetAvailableCount(context.Background(), "event-123")

		require.NoError(t, err)
		assert.Equal(t, 42, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("キャッシュミス", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewSeatCache(client)

		mock.ExpectGet("seats:available:event-123").RedisNil()

		_, err := cache.GetAvailableCount(context.Background(), "event-123")

		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestSeatCache_SetAvailableCount(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSeatCache(client)

	mock.ExpectSet("seats:available:event-123", 42, time.Minute).SetVal("OK")

	err := cache.SetAvailableCount(context.Background(), "event-123", 42, time.Minute)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCache_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSeatCache(client)

	mock.ExpectDel("seats:available:event-123").SetVal(1)

	err := cache.Invalidate(context.Background(), "event-123")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
