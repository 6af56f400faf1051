package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74/webhook"
)

// SignatureHeader is the request header carrying the Stripe signature.
const SignatureHeader = "Stripe-Signature"

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// payload (HMAC-SHA256 over "<timestamp>.<payload>", with the default
// timestamp tolerance). It must run before the payload is parsed.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) error {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	if secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	if err := webhook.ValidatePayload(payload, sig, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
