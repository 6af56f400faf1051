package billing

// Stripe event types handled by the reconciler.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventPaymentFailed        = "invoice.payment_failed"
	EventSubscriptionCanceled = "customer.subscription.deleted"
)

// Checkout session metadata keys. The legacy keys are accepted for sessions
// created before the rename.
const (
	MetadataUserID       = "user_id"
	MetadataPlan         = "plan_type"
	legacyMetadataUserID = "clerkUserId"
	legacyMetadataPlan   = "planType"
)

// Event is a verified, parsed billing event. The set of implementations is
// closed.
type Event interface {
	ID() string
	Type() string
	isEvent()
}

// CheckoutCompleted activates a subscription for a principal.
type CheckoutCompleted struct {
	EventID        string
	UserID         string
	Email          string
	SubscriptionID string
	Tier           Plan
}

// PaymentFailed deactivates the subscription but keeps tier and reference.
type PaymentFailed struct {
	EventID        string
	SubscriptionID string
}

// SubscriptionCanceled clears tier and reference and deactivates.
type SubscriptionCanceled struct {
	EventID        string
	SubscriptionID string
}

// Unhandled is any other event type. It is acknowledged without effect.
type Unhandled struct {
	EventID   string
	EventType string
}

func (e CheckoutCompleted) ID() string    { return e.EventID }
func (e PaymentFailed) ID() string        { return e.EventID }
func (e SubscriptionCanceled) ID() string { return e.EventID }
func (e Unhandled) ID() string            { return e.EventID }

func (CheckoutCompleted) Type() string    { return EventCheckoutCompleted }
func (PaymentFailed) Type() string        { return EventPaymentFailed }
func (SubscriptionCanceled) Type() string { return EventSubscriptionCanceled }
func (e Unhandled) Type() string          { return e.EventType }

func (CheckoutCompleted) isEvent()    {}
func (PaymentFailed) isEvent()        {}
func (SubscriptionCanceled) isEvent() {}
func (Unhandled) isEvent()            {}
