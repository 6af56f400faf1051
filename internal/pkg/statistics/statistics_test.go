package statistics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MealPilot/app/models"
	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/monitor"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "stats.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.BillingWebhookEvent{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zaptest.NewLogger(t)
	m := monitor.New(cache.New(client, cache.Options{Prefix: "test"}, logger), nil, monitor.Options{}, logger)
	return New(db, m), db
}

func TestGet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	profiles := []models.Profile{
		{UserID: "a", SubscriptionTier: strPtr("month"), StripeSubscriptionID: strPtr("sub_a"), SubscriptionActive: true},
		{UserID: "b", SubscriptionTier: strPtr("month"), StripeSubscriptionID: strPtr("sub_b"), SubscriptionActive: true},
		{UserID: "c", SubscriptionTier: strPtr("year"), StripeSubscriptionID: strPtr("sub_c"), SubscriptionActive: true},
		{UserID: "d", SubscriptionTier: strPtr("week"), StripeSubscriptionID: strPtr("sub_d")},
		{UserID: "e"},
	}
	require.NoError(t, db.Create(&profiles).Error)
	require.NoError(t, db.Create(&[]models.BillingWebhookEvent{
		{Provider: models.BillingProviderStripe, ProviderEventID: "evt_1", EventType: "x"},
		{Provider: models.BillingProviderStripe, ProviderEventID: "evt_2", EventType: "x", ProcessingError: "boom"},
	}).Error)

	res, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, int64(5), res.Data.TotalProfiles)
	assert.Equal(t, int64(3), res.Data.ActiveSubscribers)
	assert.Equal(t, map[string]int64{"month": 2, "year": 1}, res.Data.ActiveByTier)
	assert.Equal(t, int64(2), res.Data.WebhooksToday)
	assert.Equal(t, int64(1), res.Data.FailedWebhooks)

	require.NoError(t, db.Create(&models.Profile{UserID: "f"}).Error)
	res, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	assert.Equal(t, int64(5), res.Data.TotalProfiles)
}

func TestGet_NewDayIsRecomputed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	_, err := svc.Get(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return day.Add(24 * time.Hour) }
	res, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
}
