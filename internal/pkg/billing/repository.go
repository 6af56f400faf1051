package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/MealPilot/app/models"
)

const defaultStoreTimeout = 5 * time.Second

// Repository is the subscription store plus the webhook ledger. Lookups that
// match nothing return ErrProfileNotFound; every other failure wraps
// ErrStoreUnavailable.
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error)
	// ActivateSubscription upserts the profile for userID with tier, reference
	// and active=true.
	ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier Plan) error
	// DeactivateSubscription sets active=false on the profile holding
	// subscriptionID and returns it.
	DeactivateSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error)
	// ClearSubscription clears tier and reference and sets active=false on the
	// profile holding subscriptionID and returns it.
	ClearSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error)

	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository creates a billing repository backed by GORM. Each call is
// bounded by timeout.
func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &gormRepository{db: db, timeout: timeout}
}

func (r *gormRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var p models.Profile
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, storeError(err)
	}
	return &p, nil
}

func (r *gormRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var p models.Profile
	if err := db.Where("stripe_subscription_id = ?", subscriptionID).First(&p).Error; err != nil {
		return nil, storeError(err)
	}
	return &p, nil
}

func (r *gormRepository) ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier Plan) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	tierValue := string(tier)
	profile := &models.Profile{
		UserID:               userID,
		Email:                email,
		SubscriptionTier:     &tierValue,
		StripeSubscriptionID: &subscriptionID,
		SubscriptionActive:   true,
	}
	columns := []string{
		"subscription_tier",
		"stripe_subscription_id",
		"subscription_active",
		"updated_at",
	}
	if email != "" {
		columns = append(columns, "email")
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(profile).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func (r *gormRepository) DeactivateSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	return r.updateBySubscriptionID(ctx, subscriptionID, map[string]interface{}{
		"subscription_active": false,
	})
}

func (r *gormRepository) ClearSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	return r.updateBySubscriptionID(ctx, subscriptionID, map[string]interface{}{
		"subscription_tier":      nil,
		"stripe_subscription_id": nil,
		"subscription_active":    false,
	})
}

func (r *gormRepository) updateBySubscriptionID(ctx context.Context, subscriptionID string, updates map[string]interface{}) (*models.Profile, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var p models.Profile
	if err := db.Where("stripe_subscription_id = ?", subscriptionID).First(&p).Error; err != nil {
		return nil, storeError(err)
	}
	// Match the reference too: a plan change may have replaced it since the read.
	if err := db.Model(&models.Profile{}).
		Where("id = ? AND stripe_subscription_id = ?", p.ID, subscriptionID).
		Updates(updates).Error; err != nil {
		return nil, storeError(err)
	}
	if err := db.First(&p, p.ID).Error; err != nil {
		return nil, storeError(err)
	}
	return &p, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, storeError(tx.Error)
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, storeError(err)
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	if err := db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return storeError(err)
	}
	return nil
}
