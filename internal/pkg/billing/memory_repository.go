package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/MealPilot/app/models"
)

// MemoryRepository is an in-process Repository for tests and local runs.
// Setting Err makes every call fail with it wrapped in ErrStoreUnavailable.
type MemoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	events   map[string]*models.BillingWebhookEvent
	nextID   uint
	Err      error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: map[string]*models.Profile{},
		events:   map[string]*models.BillingWebhookEvent{},
	}
}

func (m *MemoryRepository) fail() error {
	if m.Err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, m.Err)
	}
	return nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	if p.SubscriptionTier != nil {
		tier := *p.SubscriptionTier
		cp.SubscriptionTier = &tier
	}
	if p.StripeSubscriptionID != nil {
		ref := *p.StripeSubscriptionID
		cp.StripeSubscriptionID = &ref
	}
	return &cp
}

// Put stores a profile as-is, replacing any profile for the same user.
func (m *MemoryRepository) Put(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := cloneProfile(p)
	if stored.ID == 0 {
		m.nextID++
		stored.ID = m.nextID
	}
	m.profiles[p.UserID] = stored
}

func (m *MemoryRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (m *MemoryRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p := m.bySubscription(subscriptionID)
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (m *MemoryRepository) bySubscription(subscriptionID string) *models.Profile {
	for _, p := range m.profiles {
		if p.SubscriptionRef() == subscriptionID {
			return p
		}
	}
	return nil
}

func (m *MemoryRepository) ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}

	p, ok := m.profiles[userID]
	if !ok {
		m.nextID++
		p = &models.Profile{ID: m.nextID, UserID: userID, CreatedAt: time.Now()}
		m.profiles[userID] = p
	}
	tierValue := string(tier)
	ref := subscriptionID
	p.SubscriptionTier = &tierValue
	p.StripeSubscriptionID = &ref
	p.SubscriptionActive = true
	if email != "" {
		p.Email = email
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) DeactivateSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	return m.update(subscriptionID, func(p *models.Profile) {
		p.SubscriptionActive = false
	})
}

func (m *MemoryRepository) ClearSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	return m.update(subscriptionID, func(p *models.Profile) {
		p.SubscriptionTier = nil
		p.StripeSubscriptionID = nil
		p.SubscriptionActive = false
	})
}

func (m *MemoryRepository) update(subscriptionID string, fn func(*models.Profile)) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p := m.bySubscription(subscriptionID)
	if p == nil {
		return nil, ErrProfileNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now()
	return cloneProfile(p), nil
}

func (m *MemoryRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return false, nil, err
	}

	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := m.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	m.nextID++
	stored := *event
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.events[key] = &stored
	cp := stored
	return true, &cp, nil
}

func (m *MemoryRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for _, e := range m.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("webhook event %d not found", id)
}
