package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/webhooks"
)

type CheckoutService interface {
	CreateCheckoutSession(
		ctx context.Context,
		packageID string,
		consultantID string,
		successURL string,
		cancelURL string,
	) (core.CheckoutSession, error)
}

type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) webhooks.Result
}

type CreateCheckoutSessionCommand struct {
	service CheckoutService
}

func NewCreateCheckoutSessionCommand(service CheckoutService) *CreateCheckoutSessionCommand {
	return &CreateCheckoutSessionCommand{service: service}
}

func (c *CreateCheckoutSessionCommand) Execute(ctx context.Context, msg CreateCheckoutSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: checkout service is required")
	}
	out, err := c.service.CreateCheckoutSession(ctx, msg.PackageID, msg.ConsultantID, msg.SuccessURL, msg.CancelURL)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// ProcessWebhookCommand stores the Result for every delivery and returns
// its error only when the delivery failed.
type ProcessWebhookCommand struct {
	processor WebhookProcessor
}

func NewProcessWebhookCommand(processor WebhookProcessor) *ProcessWebhookCommand {
	return &ProcessWebhookCommand{processor: processor}
}

func (c *ProcessWebhookCommand) Execute(ctx context.Context, msg ProcessWebhookMessage) error {
	if c == nil || c.processor == nil {
		return commandDependencyError("command: webhook processor is required")
	}
	result := c.processor.Process(ctx, msg.Payload, msg.Signature)
	storeResult(ctx, result)
	if !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return commandDependencyError("command: webhook delivery failed")
	}
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
