// Package statistics computes subscriber and webhook figures for the admin
// dashboard. Results are cached through the performance monitor.
package statistics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/MealPilot/app/models"
	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/monitor"
)

const (
	cacheKind       = "statistics"
	CacheExpiration = 5 * time.Minute
)

// Data is the admin statistics snapshot.
type Data struct {
	TotalProfiles     int64            `json:"totalProfiles"`
	ActiveSubscribers int64            `json:"activeSubscribers"`
	ActiveByTier      map[string]int64 `json:"activeByTier"`
	WebhooksToday     int64            `json:"webhooksToday"`
	FailedWebhooks    int64            `json:"failedWebhooks"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

type Service struct {
	db      *gorm.DB
	monitor *monitor.Monitor
	now     func() time.Time
}

func New(db *gorm.DB, m *monitor.Monitor) *Service {
	return &Service{db: db, monitor: m, now: time.Now}
}

// Get returns the snapshot for the current local day, cached for
// CacheExpiration.
func (s *Service) Get(ctx context.Context) (monitor.Result[Data], error) {
	today := s.now().Format("2006-01-02")
	return monitor.Measure(ctx, s.monitor, cacheKind, cache.Key(cacheKind, today), CacheExpiration, s.compute)
}

func (s *Service) compute(ctx context.Context) (Data, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	data := Data{ActiveByTier: map[string]int64{}, GeneratedAt: now}

	if err := db.Model(&models.Profile{}).Count(&data.TotalProfiles).Error; err != nil {
		return Data{}, fmt.Errorf("count profiles: %w", err)
	}

	var tiers []struct {
		Tier  string
		Count int64
	}
	if err := db.Model(&models.Profile{}).
		Select("subscription_tier AS tier, COUNT(*) AS count").
		Where("subscription_active = ?", true).
		Group("subscription_tier").
		Scan(&tiers).Error; err != nil {
		return Data{}, fmt.Errorf("count active tiers: %w", err)
	}
	for _, t := range tiers {
		data.ActiveByTier[t.Tier] = t.Count
		data.ActiveSubscribers += t.Count
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.BillingWebhookEvent{}).
		Where("created_at >= ?", todayStart).
		Count(&data.WebhooksToday).Error; err != nil {
		return Data{}, fmt.Errorf("count webhooks: %w", err)
	}
	if err := db.Model(&models.BillingWebhookEvent{}).
		Where("processing_error <> ''").
		Count(&data.FailedWebhooks).Error; err != nil {
		return Data{}, fmt.Errorf("count failed webhooks: %w", err)
	}

	return data, nil
}
