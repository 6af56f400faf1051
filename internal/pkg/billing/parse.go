package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
)

// ParseEvent decodes a verified webhook body. Unknown types become Unhandled.
// A body that is not an event yields ErrMalformedPayload; a known type with
// missing fields yields a *MalformedEventError.
func ParseEvent(payload []byte) (Event, error) {
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	eventType := string(ev.Type)
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	switch eventType {
	case EventCheckoutCompleted, EventPaymentFailed, EventSubscriptionCanceled:
	default:
		return Unhandled{EventID: ev.ID, EventType: eventType}, nil
	}

	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return nil, &MalformedEventError{EventID: ev.ID, Type: eventType, Reason: "missing data object"}
	}

	switch eventType {
	case EventCheckoutCompleted:
		return parseCheckoutCompleted(ev)
	case EventPaymentFailed:
		return parsePaymentFailed(ev)
	default:
		return parseSubscriptionCanceled(ev)
	}
}

func parseCheckoutCompleted(ev stripe.Event) (Event, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventCheckoutCompleted, Reason: err.Error()}
	}

	userID := metadataValue(session.Metadata, MetadataUserID, legacyMetadataUserID)
	if userID == "" {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventCheckoutCompleted, Reason: "missing user id"}
	}
	subID := ""
	if session.Subscription != nil {
		subID = strings.TrimSpace(session.Subscription.ID)
	}
	if subID == "" {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventCheckoutCompleted, Reason: "missing subscription id"}
	}
	tier, ok := ParsePlan(metadataValue(session.Metadata, MetadataPlan, legacyMetadataPlan))
	if !ok {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventCheckoutCompleted, Reason: "missing or unknown plan"}
	}

	email := strings.TrimSpace(session.CustomerEmail)
	if email == "" && session.CustomerDetails != nil {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}

	return CheckoutCompleted{
		EventID:        ev.ID,
		UserID:         userID,
		Email:          email,
		SubscriptionID: subID,
		Tier:           tier,
	}, nil
}

func parsePaymentFailed(ev stripe.Event) (Event, error) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(ev.Data.Raw, &invoice); err != nil {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventPaymentFailed, Reason: err.Error()}
	}
	if invoice.Subscription == nil || strings.TrimSpace(invoice.Subscription.ID) == "" {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventPaymentFailed, Reason: "missing subscription id"}
	}
	return PaymentFailed{EventID: ev.ID, SubscriptionID: strings.TrimSpace(invoice.Subscription.ID)}, nil
}

func parseSubscriptionCanceled(ev stripe.Event) (Event, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventSubscriptionCanceled, Reason: err.Error()}
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, &MalformedEventError{EventID: ev.ID, Type: EventSubscriptionCanceled, Reason: "missing subscription id"}
	}
	return SubscriptionCanceled{EventID: ev.ID, SubscriptionID: strings.TrimSpace(sub.ID)}, nil
}

func metadataValue(md map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return ""
}
