package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestProfileAccessors(t *testing.T) {
	var nilProfile *Profile
	assert.Equal(t, "", nilProfile.Tier())
	assert.Equal(t, "", nilProfile.SubscriptionRef())
	assert.False(t, nilProfile.IsEntitled())

	p := &Profile{
		UserID:               "user_1",
		SubscriptionTier:     strPtr("month"),
		StripeSubscriptionID: strPtr("sub_1"),
		SubscriptionActive:   true,
	}
	assert.Equal(t, "month", p.Tier())
	assert.Equal(t, "sub_1", p.SubscriptionRef())
	assert.True(t, p.IsEntitled())

	p.SubscriptionActive = false
	assert.False(t, p.IsEntitled())
}

func TestBillingWebhookEventSucceeded(t *testing.T) {
	now := time.Now()

	assert.False(t, (*BillingWebhookEvent)(nil).Succeeded())
	assert.False(t, (&BillingWebhookEvent{}).Succeeded())
	assert.False(t, (&BillingWebhookEvent{ProcessedAt: &now, ProcessingError: "boom"}).Succeeded())
	assert.True(t, (&BillingWebhookEvent{ProcessedAt: &now}).Succeeded())
}
