package payments

import (
	"fmt"

	paymentscommand "github.com/goliatone/go-payments/command"
	paymentsquery "github.com/goliatone/go-payments/query"
)

type CommandQueryService interface {
	paymentscommand.CheckoutService
	paymentsquery.OnboardingReader
	paymentsquery.BookingReader
	paymentsquery.FeeQuoter
}

type Commands struct {
	CreateCheckoutSession *paymentscommand.CreateCheckoutSessionCommand
	ProcessWebhook        *paymentscommand.ProcessWebhookCommand
}

type Queries struct {
	VerifyOnboarding       *paymentsquery.VerifyOnboardingQuery
	GetBooking             *paymentsquery.GetBookingQuery
	ListConsultantBookings *paymentsquery.ListConsultantBookingsQuery
	QuoteFees              *paymentsquery.QuoteFeesQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	webhookProcessor paymentscommand.WebhookProcessor
}

func WithWebhookProcessor(processor paymentscommand.WebhookProcessor) FacadeOption {
	return func(options *facadeOptions) {
		options.webhookProcessor = processor
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("payments: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateCheckoutSession: paymentscommand.NewCreateCheckoutSessionCommand(service),
		ProcessWebhook:        paymentscommand.NewProcessWebhookCommand(cfg.webhookProcessor),
	}
	facade.queries = Queries{
		VerifyOnboarding:       paymentsquery.NewVerifyOnboardingQuery(service),
		GetBooking:             paymentsquery.NewGetBookingQuery(service),
		ListConsultantBookings: paymentsquery.NewListConsultantBookingsQuery(service),
		QuoteFees:              paymentsquery.NewQuoteFeesQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
