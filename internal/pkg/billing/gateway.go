package billing

import "context"

// CheckoutRequest describes a hosted checkout session for one plan.
type CheckoutRequest struct {
	UserID     string
	Email      string
	Plan       Plan
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// GatewaySubscription is the part of a processor subscription the service
// needs.
type GatewaySubscription struct {
	ID                string
	ItemID            string
	Status            string
	CancelAtPeriodEnd bool
}

// PaymentGateway is the payment processor API used for user-initiated
// changes.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*GatewaySubscription, error)
	ChangeSubscriptionPlan(ctx context.Context, subscriptionID, itemID, priceID string) (*GatewaySubscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*GatewaySubscription, error)
}
