package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
)

// Profile mirrors a user's subscription state as last confirmed by the payment
// provider. Rows are never deleted; cancellation clears the subscription
// fields and keeps the row.
//
// Invariants: SubscriptionActive implies StripeSubscriptionID != nil, and
// SubscriptionTier == nil implies !SubscriptionActive.
type Profile struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_profiles_user_id" json:"user_id"`
	Email                string    `gorm:"type:varchar(200);default:''" json:"email"`
	SubscriptionTier     *string   `gorm:"type:varchar(32);default:null" json:"subscription_tier"`
	StripeSubscriptionID *string   `gorm:"type:varchar(191);default:null;uniqueIndex:ux_profiles_stripe_subscription_id" json:"stripe_subscription_id"`
	SubscriptionActive   bool      `gorm:"not null;default:false;index" json:"subscription_active"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Tier returns the subscription tier or "" when none is set.
func (p *Profile) Tier() string {
	if p == nil || p.SubscriptionTier == nil {
		return ""
	}
	return *p.SubscriptionTier
}

// SubscriptionRef returns the provider subscription id or "".
func (p *Profile) SubscriptionRef() string {
	if p == nil || p.StripeSubscriptionID == nil {
		return ""
	}
	return *p.StripeSubscriptionID
}

// IsEntitled reports whether the profile currently grants gated access.
func (p *Profile) IsEntitled() bool {
	return p != nil && p.SubscriptionActive
}
