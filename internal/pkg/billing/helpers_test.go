package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventJSON(t *testing.T, id, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":      id,
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return raw
}

func checkoutJSON(t *testing.T, id, userID, subID, plan string) []byte {
	metadata := map[string]string{}
	if userID != "" {
		metadata[MetadataUserID] = userID
	}
	if plan != "" {
		metadata[MetadataPlan] = plan
	}
	object := map[string]interface{}{
		"id":             "cs_" + id,
		"object":         "checkout.session",
		"customer_email": "user@example.com",
		"metadata":       metadata,
	}
	if subID != "" {
		object["subscription"] = subID
	}
	return eventJSON(t, id, EventCheckoutCompleted, object)
}

func paymentFailedJSON(t *testing.T, id, subID string) []byte {
	return eventJSON(t, id, EventPaymentFailed, map[string]interface{}{
		"id":           "in_" + id,
		"object":       "invoice",
		"subscription": subID,
	})
}

func canceledJSON(t *testing.T, id, subID string) []byte {
	return eventJSON(t, id, EventSubscriptionCanceled, map[string]interface{}{
		"id":     subID,
		"object": "subscription",
	})
}

type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}
