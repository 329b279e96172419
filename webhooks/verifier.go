package webhooks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-payments/core"
	"github.com/stripe/stripe-go/v80/webhook"
)

// SignatureHeader is the header carrying "t=<unix>,v1=<hex hmac>".
const SignatureHeader = "Stripe-Signature"

var (
	errSecretMissing      = errors.New("webhooks: signing secret is not configured")
	errTimestampMissing   = errors.New("webhooks: signature timestamp is missing")
	errTimestampInFuture  = errors.New("webhooks: signature timestamp is in the future")
	errTimestampExpired   = errors.New("webhooks: signature timestamp is outside the tolerance")
	errSignatureMalformed = errors.New("webhooks: signature header is malformed")
)

type Verifier interface {
	Verify(ctx context.Context, payload []byte, header string) error
}

// StripeSignatureVerifier checks the HMAC-SHA256 signature over
// "{t}.{payload}" and rejects timestamps older than Tolerance or further than
// FutureSkew ahead of Now. Both windows are measured against Now.
type StripeSignatureVerifier struct {
	Secret     string
	Tolerance  time.Duration
	FutureSkew time.Duration
	Now        func() time.Time
}

func NewStripeSignatureVerifier(secret string, cfg core.WebhookConfig) *StripeSignatureVerifier {
	return &StripeSignatureVerifier{
		Secret:     strings.TrimSpace(secret),
		Tolerance:  cfg.Tolerance(),
		FutureSkew: cfg.FutureSkew(),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (v *StripeSignatureVerifier) Verify(_ context.Context, payload []byte, header string) error {
	if v == nil || strings.TrimSpace(v.Secret) == "" {
		return core.SignatureInvalid(errSecretMissing)
	}
	header = strings.TrimSpace(header)
	timestamp, err := signatureTimestamp(header)
	if err != nil {
		return core.SignatureInvalid(err)
	}
	now := v.now()
	if v.FutureSkew > 0 && timestamp.After(now.Add(v.FutureSkew)) {
		return core.SignatureInvalid(errTimestampInFuture)
	}
	if now.Sub(timestamp) > v.tolerance() {
		return core.SignatureInvalid(errTimestampExpired)
	}
	if err := webhook.ValidatePayloadIgnoringTolerance(payload, header, v.Secret); err != nil {
		return core.SignatureInvalid(err)
	}
	return nil
}

func (v *StripeSignatureVerifier) tolerance() time.Duration {
	if v.Tolerance > 0 {
		return v.Tolerance
	}
	return webhook.DefaultTolerance
}

func (v *StripeSignatureVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

func signatureTimestamp(header string) (time.Time, error) {
	if header == "" {
		return time.Time{}, errTimestampMissing
	}
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || key != "t" {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", errSignatureMalformed, err)
		}
		return time.Unix(seconds, 0).UTC(), nil
	}
	return time.Time{}, errTimestampMissing
}

var _ Verifier = (*StripeSignatureVerifier)(nil)
