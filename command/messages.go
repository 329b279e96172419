package command

import "strings"

const (
	TypeCreateCheckoutSession = "payments.command.checkout_session.create"
	TypeProcessWebhook        = "payments.command.webhook.process"
)

type CreateCheckoutSessionMessage struct {
	PackageID    string
	ConsultantID string
	SuccessURL   string
	CancelURL    string
}

func (CreateCheckoutSessionMessage) Type() string { return TypeCreateCheckoutSession }

func (m CreateCheckoutSessionMessage) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"package_id", m.PackageID},
		{"consultant_id", m.ConsultantID},
		{"success_url", m.SuccessURL},
		{"cancel_url", m.CancelURL},
	} {
		if strings.TrimSpace(field.value) == "" {
			return commandValidationError(field.name, field.name+" is required")
		}
	}
	return nil
}

// ProcessWebhookMessage carries the raw request body untouched; the
// signature covers the exact bytes.
type ProcessWebhookMessage struct {
	Payload   []byte
	Signature string
}

func (ProcessWebhookMessage) Type() string { return TypeProcessWebhook }

func (m ProcessWebhookMessage) Validate() error {
	if len(m.Payload) == 0 {
		return commandValidationError("payload", "payload is required")
	}
	if strings.TrimSpace(m.Signature) == "" {
		return commandValidationError("signature", "signature header is required")
	}
	return nil
}
