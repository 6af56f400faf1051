package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_KnownTypes(t *testing.T) {
	ev, err := ParseEvent(checkoutJSON(t, "evt_1", "user_1", "sub_1", "month"))
	require.NoError(t, err)
	assert.Equal(t, CheckoutCompleted{
		EventID:        "evt_1",
		UserID:         "user_1",
		Email:          "user@example.com",
		SubscriptionID: "sub_1",
		Tier:           PlanMonth,
	}, ev)

	ev, err = ParseEvent(paymentFailedJSON(t, "evt_2", "sub_1"))
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed{EventID: "evt_2", SubscriptionID: "sub_1"}, ev)

	ev, err = ParseEvent(canceledJSON(t, "evt_3", "sub_1"))
	require.NoError(t, err)
	assert.Equal(t, SubscriptionCanceled{EventID: "evt_3", SubscriptionID: "sub_1"}, ev)
}

func TestParseEvent_LegacyMetadataKeys(t *testing.T) {
	payload := eventJSON(t, "evt_1", EventCheckoutCompleted, map[string]interface{}{
		"id":           "cs_1",
		"object":       "checkout.session",
		"subscription": "sub_1",
		"metadata":     map[string]string{"clerkUserId": "user_1", "planType": "year"},
	})

	ev, err := ParseEvent(payload)
	require.NoError(t, err)
	checkout, ok := ev.(CheckoutCompleted)
	require.True(t, ok)
	assert.Equal(t, "user_1", checkout.UserID)
	assert.Equal(t, PlanYear, checkout.Tier)
}

func TestParseEvent_Unhandled(t *testing.T) {
	ev, err := ParseEvent(eventJSON(t, "evt_9", "customer.created", map[string]interface{}{"id": "cus_1"}))
	require.NoError(t, err)
	assert.Equal(t, Unhandled{EventID: "evt_9", EventType: "customer.created"}, ev)
	assert.Equal(t, "customer.created", ev.Type())
}

func TestParseEvent_MalformedEvents(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "checkout without user", payload: checkoutJSON(t, "e1", "", "sub_1", "month")},
		{name: "checkout without subscription", payload: checkoutJSON(t, "e2", "user_1", "", "month")},
		{name: "checkout without plan", payload: checkoutJSON(t, "e3", "user_1", "sub_1", "")},
		{name: "checkout with unknown plan", payload: checkoutJSON(t, "e4", "user_1", "sub_1", "lifetime")},
		{name: "invoice without subscription", payload: eventJSON(t, "e5", EventPaymentFailed, map[string]interface{}{"id": "in_1"})},
		{name: "subscription without id", payload: eventJSON(t, "e6", EventSubscriptionCanceled, map[string]interface{}{"object": "subscription"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(tt.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEvent), "got %v", err)

			var malformed *MalformedEventError
			require.ErrorAs(t, err, &malformed)
			assert.NotEmpty(t, malformed.Reason)
		})
	}
}

func TestParseEvent_MalformedPayload(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"id":"evt_1"}`, `[1,2]`} {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedPayload, body)
	}
}
