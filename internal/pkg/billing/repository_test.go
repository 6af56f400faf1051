package billing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/MealPilot/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.BillingWebhookEvent{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGormRepository_SubscriptionLifecycle(t *testing.T) {
	repo := NewRepository(newTestDB(t), time.Second)
	ctx := context.Background()

	_, err := repo.FindByUserID(ctx, "p1")
	require.ErrorIs(t, err, ErrProfileNotFound)

	require.NoError(t, repo.ActivateSubscription(ctx, "p1", "p1@example.com", "ref1", PlanMonth))
	// Upsert keeps a single row per principal.
	require.NoError(t, repo.ActivateSubscription(ctx, "p1", "", "ref1", PlanYear))

	p, err := repo.FindByUserID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "year", p.Tier())
	assert.Equal(t, "ref1", p.SubscriptionRef())
	assert.True(t, p.SubscriptionActive)
	assert.Equal(t, "p1@example.com", p.Email)

	p, err = repo.DeactivateSubscription(ctx, "ref1")
	require.NoError(t, err)
	assert.False(t, p.SubscriptionActive)
	assert.Equal(t, "year", p.Tier())
	assert.Equal(t, "ref1", p.SubscriptionRef())

	byRef, err := repo.FindBySubscriptionID(ctx, "ref1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byRef.ID)

	p, err = repo.ClearSubscription(ctx, "ref1")
	require.NoError(t, err)
	assert.Nil(t, p.SubscriptionTier)
	assert.Nil(t, p.StripeSubscriptionID)
	assert.False(t, p.SubscriptionActive)

	_, err = repo.ClearSubscription(ctx, "ref1")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	// The row survives cancellation.
	_, err = repo.FindByUserID(ctx, "p1")
	assert.NoError(t, err)
}

func TestGormRepository_WebhookLedger(t *testing.T) {
	repo := NewRepository(newTestDB(t), time.Second)
	ctx := context.Background()

	newEvent := func() *models.BillingWebhookEvent {
		return &models.BillingWebhookEvent{
			Provider:        models.BillingProviderStripe,
			ProviderEventID: "evt_1",
			EventType:       EventCheckoutCompleted,
			Payload:         datatypes.JSON(`{"id":"evt_1"}`),
		}
	}

	created, stored, err := repo.CreateWebhookEventIfNotExists(ctx, newEvent())
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, stored.Succeeded())

	require.NoError(t, repo.MarkWebhookProcessed(ctx, stored.ID, ""))

	created, again, err := repo.CreateWebhookEventIfNotExists(ctx, newEvent())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, again.ID)
	assert.True(t, again.Succeeded())
}

func TestGormRepository_ClosedStoreIsUnavailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, time.Second)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.FindByUserID(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = repo.ActivateSubscription(context.Background(), "p1", "", "ref1", PlanWeek)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
