package billing

import (
	"errors"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	valid := sign(payload, testSecret)

	if err := VerifyWebhookSignature(payload, valid, testSecret); err != nil {
		t.Fatalf("expected signature to validate, got %v", err)
	}

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = 'X'

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
	}{
		{name: "altered byte", payload: tampered, header: valid, secret: testSecret},
		{name: "wrong secret", payload: payload, header: sign(payload, "whsec_other"), secret: testSecret},
		{name: "garbage header", payload: payload, header: "deadbeef", secret: testSecret},
		{name: "empty header", payload: payload, header: "", secret: testSecret},
		{name: "empty secret", payload: payload, header: valid, secret: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhookSignature(tt.payload, tt.header, tt.secret)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}
