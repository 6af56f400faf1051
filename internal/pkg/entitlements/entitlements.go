// Package entitlements decides whether a principal may use gated features.
package entitlements

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/app/models"
	"github.com/ManuelReschke/MealPilot/internal/pkg/billing"
	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

// Decision reasons.
const (
	ReasonActive           = "active"
	ReasonInactive         = "inactive"
	ReasonNoProfile        = "no_profile"
	ReasonNoPrincipal      = "no_principal"
	ReasonStoreUnavailable = "store_unavailable"
)

const defaultTTL = 30 * time.Second

// ProfileReader reads subscription records. Lookups that match nothing must
// return billing.ErrProfileNotFound.
type ProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Decision is the outcome of an entitlement check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	// Cached is set when the answer came from the snapshot cache.
	Cached bool `json:"-"`
}

// Gate answers entitlement checks. Answers read from the store are cached per
// principal for ttl, so a lapsed subscription may keep access for up to one
// ttl window. Store failures deny access and are never cached.
type Gate struct {
	reader ProfileReader
	cache  *cache.Service
	ttl    time.Duration
	logger *zap.Logger
}

// NewGate creates a gate. c may be a disabled cache.
func NewGate(reader ProfileReader, c *cache.Service, ttl time.Duration, logger *zap.Logger) *Gate {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Gate{
		reader: reader,
		cache:  c,
		ttl:    ttl,
		logger: logging.OrNop(logger).Named("entitlements"),
	}
}

func snapshotKey(userID string) string {
	return cache.Key("entitlement", userID)
}

// CheckEntitlement reports whether userID currently has access.
func (g *Gate) CheckEntitlement(ctx context.Context, userID string) Decision {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Decision{Reason: ReasonNoPrincipal}
	}

	var cached Decision
	if g.cache.Get(ctx, snapshotKey(userID), &cached) {
		cached.Cached = true
		return cached
	}

	d, ok := g.read(ctx, userID)
	if ok {
		g.cache.Set(ctx, snapshotKey(userID), d, g.ttl)
	}
	return d
}

// read returns the store-backed decision and whether it may be cached.
func (g *Gate) read(ctx context.Context, userID string) (Decision, bool) {
	profile, err := g.reader.FindByUserID(ctx, userID)
	switch {
	case errors.Is(err, billing.ErrProfileNotFound):
		return Decision{Reason: ReasonNoProfile}, true
	case err != nil:
		g.logger.Warn("entitlement check failed closed", zap.String("user_id", userID), zap.Error(err))
		return Decision{Reason: ReasonStoreUnavailable}, false
	case profile.IsEntitled():
		return Decision{Allowed: true, Reason: ReasonActive}, true
	default:
		return Decision{Reason: ReasonInactive}, true
	}
}

// Invalidate drops the cached decision for userID.
func (g *Gate) Invalidate(ctx context.Context, userID string) {
	g.cache.Delete(ctx, snapshotKey(userID))
}
