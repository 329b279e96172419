package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	payments "github.com/goliatone/go-payments"
	paymentscommand "github.com/goliatone/go-payments/command"
	"github.com/goliatone/go-payments/core"
	paymentsquery "github.com/goliatone/go-payments/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Registration tracks the dispatcher subscriptions created for one facade.
type Registration struct {
	registry      *command.Registry
	subscriptions []commanddispatcher.Subscription
}

func (r *Registration) Registry() *command.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Unsubscribe removes every facade handler from the dispatcher.
func (r *Registration) Unsubscribe() {
	if r == nil {
		return
	}
	for _, subscription := range r.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	r.subscriptions = nil
}

// Register subscribes the facade command and query handlers on the go-command
// dispatcher and records them in registry. A nil registry gets a fresh one.
// Hosts call Initialize on the returned registry once all modules registered.
func Register(
	facade *payments.Facade,
	registry *command.Registry,
	runnerOpts ...runner.Option,
) (*Registration, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: payments facade is required")
	}
	if registry == nil {
		registry = command.NewRegistry()
	}
	reg := &Registration{registry: registry}
	commands := facade.Commands()
	queries := facade.Queries()

	steps := []func() (commanddispatcher.Subscription, any){
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeCommand[paymentscommand.CreateCheckoutSessionMessage](commands.CreateCheckoutSession, runnerOpts...), commands.CreateCheckoutSession
		},
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeCommand[paymentscommand.ProcessWebhookMessage](commands.ProcessWebhook, runnerOpts...), commands.ProcessWebhook
		},
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeQuery[paymentsquery.VerifyOnboardingMessage, paymentsquery.OnboardingStatus](queries.VerifyOnboarding, runnerOpts...), queries.VerifyOnboarding
		},
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeQuery[paymentsquery.GetBookingMessage, core.Booking](queries.GetBooking, runnerOpts...), queries.GetBooking
		},
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeQuery[paymentsquery.ListConsultantBookingsMessage, []core.Booking](queries.ListConsultantBookings, runnerOpts...), queries.ListConsultantBookings
		},
		func() (commanddispatcher.Subscription, any) {
			return commanddispatcher.SubscribeQuery[paymentsquery.QuoteFeesMessage, core.FeeQuote](queries.QuoteFees, runnerOpts...), queries.QuoteFees
		},
	}
	for _, step := range steps {
		subscription, handler := step()
		reg.subscriptions = append(reg.subscriptions, subscription)
		if err := registry.RegisterCommand(handler); err != nil {
			reg.Unsubscribe()
			return nil, err
		}
	}
	return reg, nil
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}
