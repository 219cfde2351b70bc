package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev-lv/subscription-manager/internal/config"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGetPlan(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.Plan{
		ID:             1,
		Name:           "Premium",
		Price:          decimal.NewFromFloat(9.99),
		DurationMonths: 3,
		IsActive:       true,
	}
	err := cache.Set("plan:1", expected, time.Minute)
	require.NoError(t, err)

	var actual models.Plan
	found, err := cache.Get("plan:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.Name, actual.Name)
	assert.True(t, expected.Price.Equal(actual.Price))
	assert.Equal(t, expected.DurationMonths, actual.DurationMonths)
}

func TestGetMiss(t *testing.T) {
	cache := setupTestCache(t)

	var out models.Subscription
	found, err := cache.Get("subscription:404", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	sub := models.Subscription{ID: 7, UserID: 1, PlanID: 2, IsActive: true}
	require.NoError(t, cache.Set("subscription:7", sub, time.Minute))

	require.NoError(t, cache.Invalidate("subscription:7"))

	var out models.Subscription
	found, err := cache.Get("subscription:7", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetCorruptedValue(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out models.Plan
	found, err := cache.Get("bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
