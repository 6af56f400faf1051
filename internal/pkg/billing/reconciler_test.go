package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ManuelReschke/MealPilot/app/models"
)

type snapshot struct {
	Tier   string
	Ref    string
	Active bool
}

func snapshotOf(t *testing.T, repo Repository, userID string) snapshot {
	t.Helper()
	p, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	return snapshot{Tier: p.Tier(), Ref: p.SubscriptionRef(), Active: p.SubscriptionActive}
}

func newTestReconciler(t *testing.T) (*Reconciler, *MemoryRepository, *recordingInvalidator) {
	t.Helper()
	repo := NewMemoryRepository()
	inv := &recordingInvalidator{}
	return NewReconciler(repo, testSecret, inv, zaptest.NewLogger(t)), repo, inv
}

func deliver(t *testing.T, r *Reconciler, payload []byte) (Outcome, error) {
	t.Helper()
	return r.HandleWebhook(context.Background(), payload, sign(payload, testSecret))
}

func TestHandleWebhook_CheckoutThenPaymentFailed(t *testing.T) {
	r, repo, inv := newTestReconciler(t)

	_, err := deliver(t, r, checkoutJSON(t, "evt_1", "p1", "ref1", "month"))
	require.NoError(t, err)
	assert.Equal(t, snapshot{Tier: "month", Ref: "ref1", Active: true}, snapshotOf(t, repo, "p1"))

	_, err = deliver(t, r, paymentFailedJSON(t, "evt_2", "ref1"))
	require.NoError(t, err)
	assert.Equal(t, snapshot{Tier: "month", Ref: "ref1", Active: false}, snapshotOf(t, repo, "p1"))

	_, err = deliver(t, r, canceledJSON(t, "evt_3", "ref1"))
	require.NoError(t, err)
	assert.Equal(t, snapshot{}, snapshotOf(t, repo, "p1"))

	p, err := repo.FindByUserID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, p.SubscriptionTier)
	assert.Nil(t, p.StripeSubscriptionID)

	assert.Equal(t, []string{"p1", "p1", "p1"}, inv.calls())
}

func TestApply_IdempotentForAllOrderings(t *testing.T) {
	events := []Event{
		CheckoutCompleted{EventID: "e1", UserID: "p1", SubscriptionID: "ref1", Tier: PlanMonth},
		PaymentFailed{EventID: "e2", SubscriptionID: "ref1"},
		SubscriptionCanceled{EventID: "e3", SubscriptionID: "ref1"},
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		ctx := context.Background()

		once := NewMemoryRepository()
		twice := NewMemoryRepository()
		// Seed both so lookups by principal succeed even when no checkout ran.
		for _, repo := range []*MemoryRepository{once, twice} {
			repo.Put(&models.Profile{UserID: "p1"})
		}

		rOnce := NewReconciler(once, testSecret, nil, nil)
		rTwice := NewReconciler(twice, testSecret, nil, nil)
		for _, i := range order {
			_, err := rOnce.Apply(ctx, events[i])
			require.NoError(t, err)
		}
		for pass := 0; pass < 2; pass++ {
			for _, i := range order {
				_, err := rTwice.Apply(ctx, events[i])
				require.NoError(t, err)
			}
		}

		assert.Equal(t, snapshotOf(t, once, "p1"), snapshotOf(t, twice, "p1"), "order %v", order)
	}
}

func TestHandleWebhook_InvalidSignatureLeavesStateUntouched(t *testing.T) {
	r, repo, inv := newTestReconciler(t)

	payload := checkoutJSON(t, "evt_1", "p1", "ref1", "month")
	header := sign(payload, testSecret)
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-3] ^= 0x01

	_, err := r.HandleWebhook(context.Background(), tampered, header)
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = repo.FindByUserID(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Empty(t, inv.calls())
	assert.Empty(t, repo.events)
}

func TestHandleWebhook_MalformedPayloadRejected(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	_, err := deliver(t, r, []byte(`{"not":"an event"`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestHandleWebhook_MalformedEventAcknowledged(t *testing.T) {
	r, repo, _ := newTestReconciler(t)

	out, err := deliver(t, r, checkoutJSON(t, "evt_1", "", "ref1", "month"))
	require.NoError(t, err)
	assert.True(t, out.Ignored)
	assert.Equal(t, EventCheckoutCompleted, out.EventType)
	assert.Empty(t, repo.profiles)
}

func TestHandleWebhook_UnhandledAndUnknownReference(t *testing.T) {
	r, repo, inv := newTestReconciler(t)

	out, err := deliver(t, r, eventJSON(t, "evt_1", "invoice.paid", map[string]interface{}{"id": "in_1"}))
	require.NoError(t, err)
	assert.True(t, out.Ignored)

	out, err = deliver(t, r, paymentFailedJSON(t, "evt_2", "ref_unknown"))
	require.NoError(t, err)
	assert.True(t, out.Ignored)

	out, err = deliver(t, r, canceledJSON(t, "evt_3", "ref_unknown"))
	require.NoError(t, err)
	assert.True(t, out.Ignored)

	assert.Empty(t, repo.profiles)
	assert.Empty(t, inv.calls())
}

func TestHandleWebhook_StoreUnavailableIsRetryable(t *testing.T) {
	r, repo, _ := newTestReconciler(t)
	repo.Err = errors.New("connection refused")

	_, err := deliver(t, r, checkoutJSON(t, "evt_1", "p1", "ref1", "week"))
	require.ErrorIs(t, err, ErrStoreUnavailable)

	repo.Err = nil
	out, err := deliver(t, r, checkoutJSON(t, "evt_1", "p1", "ref1", "week"))
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Equal(t, snapshot{Tier: "week", Ref: "ref1", Active: true}, snapshotOf(t, repo, "p1"))
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	r, repo, inv := newTestReconciler(t)
	payload := checkoutJSON(t, "evt_1", "p1", "ref1", "year")

	first, err := deliver(t, r, payload)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := deliver(t, r, payload)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Equal(t, snapshot{Tier: "year", Ref: "ref1", Active: true}, snapshotOf(t, repo, "p1"))
	assert.Len(t, inv.calls(), 1)
}

func TestHandleWebhook_FailedDeliveryIsReprocessed(t *testing.T) {
	r, repo, _ := newTestReconciler(t)
	ctx := context.Background()

	_, entry, err := repo.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       EventCheckoutCompleted,
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkWebhookProcessed(ctx, entry.ID, "store unavailable"))

	out, err := deliver(t, r, checkoutJSON(t, "evt_1", "p1", "ref1", "month"))
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.True(t, snapshotOf(t, repo, "p1").Active)
	assert.True(t, repo.events["stripe/evt_1"].Succeeded())
}
