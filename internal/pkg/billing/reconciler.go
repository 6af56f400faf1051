package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ManuelReschke/MealPilot/app/models"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

// SnapshotInvalidator drops any cached entitlement for a principal.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Outcome describes how an accepted delivery was handled.
type Outcome struct {
	EventID   string
	EventType string
	// Ignored is set for unhandled types, malformed events and events that
	// matched no profile.
	Ignored bool
	// Duplicate is set when an earlier delivery of the event already succeeded.
	Duplicate bool
}

// Reconciler turns verified Stripe webhook deliveries into subscription state.
// Every handler overwrites specific fields keyed by a stable identifier, so
// redelivery and reordering converge to the same record.
type Reconciler struct {
	repo          Repository
	webhookSecret string
	invalidator   SnapshotInvalidator
	logger        *zap.Logger
}

// NewReconciler creates a reconciler. invalidator may be nil.
func NewReconciler(repo Repository, webhookSecret string, invalidator SnapshotInvalidator, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:          repo,
		webhookSecret: webhookSecret,
		invalidator:   invalidator,
		logger:        logging.OrNop(logger).Named("billing"),
	}
}

// HandleWebhook verifies, parses and applies one delivery.
//
// Errors: ErrInvalidSignature and ErrMalformedPayload reject the delivery with
// no state change; ErrStoreUnavailable means the apply failed and the
// processor should redeliver. Malformed events and unknown types are
// acknowledged.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	if err := VerifyWebhookSignature(payload, signatureHeader, r.webhookSecret); err != nil {
		r.logger.Warn("webhook signature rejected", zap.Error(err))
		return Outcome{}, err
	}

	ev, err := ParseEvent(payload)
	if err != nil {
		var malformed *MalformedEventError
		if errors.As(err, &malformed) {
			r.logger.Warn("malformed event ignored",
				zap.String("event_id", malformed.EventID),
				zap.String("event_type", malformed.Type),
				zap.String("reason", malformed.Reason),
			)
			return Outcome{EventID: malformed.EventID, EventType: malformed.Type, Ignored: true}, nil
		}
		r.logger.Warn("webhook payload rejected", zap.Error(err))
		return Outcome{}, err
	}

	out := Outcome{EventID: ev.ID(), EventType: ev.Type()}
	entry := r.record(ctx, ev, payload)
	if entry != nil && entry.Succeeded() {
		r.logger.Info("duplicate delivery acknowledged",
			zap.String("event_id", ev.ID()),
			zap.String("event_type", ev.Type()),
		)
		out.Duplicate = true
		return out, nil
	}

	applied, applyErr := r.Apply(ctx, ev)
	out.Ignored = !applied
	if entry != nil {
		msg := ""
		if applyErr != nil {
			msg = applyErr.Error()
		}
		if err := r.repo.MarkWebhookProcessed(ctx, entry.ID, msg); err != nil {
			r.logger.Warn("webhook ledger update failed", zap.String("event_id", ev.ID()), zap.Error(err))
		}
	}
	if applyErr != nil {
		r.logger.Error("webhook apply failed",
			zap.String("event_id", ev.ID()),
			zap.String("event_type", ev.Type()),
			zap.Error(applyErr),
		)
		return out, applyErr
	}
	return out, nil
}

// record writes the delivery to the ledger. The ledger is advisory, so
// failures are logged and nil is returned.
func (r *Reconciler) record(ctx context.Context, ev Event, payload []byte) *models.BillingWebhookEvent {
	if ev.ID() == "" {
		return nil
	}
	_, stored, err := r.repo.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: ev.ID(),
		EventType:       ev.Type(),
		Payload:         datatypes.JSON(payload),
	})
	if err != nil {
		r.logger.Warn("webhook ledger write failed", zap.String("event_id", ev.ID()), zap.Error(err))
		return nil
	}
	return stored
}

// Apply performs the state change for ev and reports whether a record was
// modified. Missing profiles are a no-op.
func (r *Reconciler) Apply(ctx context.Context, ev Event) (bool, error) {
	switch e := ev.(type) {
	case CheckoutCompleted:
		if e.UserID == "" || e.SubscriptionID == "" {
			r.logger.Warn("checkout event without principal or subscription ignored", zap.String("event_id", e.EventID))
			return false, nil
		}
		if err := r.repo.ActivateSubscription(ctx, e.UserID, e.Email, e.SubscriptionID, e.Tier); err != nil {
			return false, fmt.Errorf("activate subscription: %w", err)
		}
		r.invalidate(ctx, e.UserID)
		r.logger.Info("subscription activated",
			zap.String("user_id", e.UserID),
			zap.String("subscription_id", e.SubscriptionID),
			zap.String("tier", string(e.Tier)),
		)
		return true, nil

	case PaymentFailed:
		p, err := r.repo.DeactivateSubscription(ctx, e.SubscriptionID)
		if errors.Is(err, ErrProfileNotFound) {
			r.logger.Info("payment failure for unknown subscription", zap.String("subscription_id", e.SubscriptionID))
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("deactivate subscription: %w", err)
		}
		r.invalidate(ctx, p.UserID)
		r.logger.Info("subscription deactivated after failed payment",
			zap.String("user_id", p.UserID),
			zap.String("subscription_id", e.SubscriptionID),
		)
		return true, nil

	case SubscriptionCanceled:
		p, err := r.repo.ClearSubscription(ctx, e.SubscriptionID)
		if errors.Is(err, ErrProfileNotFound) {
			r.logger.Info("cancellation for unknown subscription", zap.String("subscription_id", e.SubscriptionID))
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("clear subscription: %w", err)
		}
		r.invalidate(ctx, p.UserID)
		r.logger.Info("subscription canceled",
			zap.String("user_id", p.UserID),
			zap.String("subscription_id", e.SubscriptionID),
		)
		return true, nil

	case Unhandled:
		r.logger.Debug("unhandled event type", zap.String("event_id", e.EventID), zap.String("event_type", e.EventType))
		return false, nil

	default:
		return false, fmt.Errorf("billing: unsupported event %T", ev)
	}
}

func (r *Reconciler) invalidate(ctx context.Context, userID string) {
	if r.invalidator != nil {
		r.invalidator.Invalidate(ctx, userID)
	}
}
