package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-payments/core"
	stripeapi "github.com/stripe/stripe-go/v80"
	stripeclient "github.com/stripe/stripe-go/v80/client"
)

const ProviderID = "stripe"

// Client is the PaymentProcessor backed by the Stripe API. Each Client owns
// its backends; the SDK's package-level key is never touched.
type Client struct {
	api    *stripeclient.API
	config Config
	logger core.Logger
}

func New(cfg Config, logger core.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = resolveLogger(logger)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	backendConfig := &stripeapi.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripeapi.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     leveledLogger{logger: logger},
	}
	if cfg.APIBaseURL != "" {
		backendConfig.URL = stripeapi.String(cfg.APIBaseURL)
	}
	backends := &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendConfig),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendConfig),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendConfig),
	}

	return &Client{
		api:    stripeclient.New(cfg.SecretKey, backends),
		config: cfg,
		logger: logger,
	}, nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) RetrieveAccount(ctx context.Context, externalAccountID string) (core.AccountCapabilities, error) {
	externalAccountID = strings.TrimSpace(externalAccountID)
	if externalAccountID == "" {
		return core.AccountCapabilities{}, core.InvalidArgument("external_account_id", "external account id is required")
	}
	params := &stripeapi.AccountParams{}
	params.Context = ctx
	account, err := c.api.Accounts.GetByID(externalAccountID, params)
	if err != nil {
		return core.AccountCapabilities{}, classifyError(err, "retrieve_account")
	}
	return core.AccountCapabilities{
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
	}, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req core.CheckoutSessionRequest) (core.CheckoutSession, error) {
	if strings.TrimSpace(req.PriceRef) == "" {
		return core.CheckoutSession{}, core.InvalidArgument("price_ref", "price reference is required")
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = string(stripeapi.CheckoutSessionModePayment)
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(mode),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		ClientReferenceID: stripeapi.String(req.ClientReferenceID),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(req.PriceRef),
				Quantity: stripeapi.Int64(quantity),
			},
		},
	}
	if destination := strings.TrimSpace(req.DestinationAccountID); destination != "" {
		params.PaymentIntentData = &stripeapi.CheckoutSessionPaymentIntentDataParams{
			TransferData: &stripeapi.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripeapi.String(destination),
			},
		}
		if req.ApplicationFeeAmount > 0 {
			params.PaymentIntentData.ApplicationFeeAmount = stripeapi.Int64(req.ApplicationFeeAmount)
		}
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return core.CheckoutSession{}, classifyError(err, "create_checkout_session")
	}
	return core.CheckoutSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// classifyError maps rejected requests to InvalidArgument and everything
// else (network, rate limit, 5xx) to UpstreamTransient.
func classifyError(err error, operation string) error {
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusTooManyRequests && status != http.StatusConflict {
			field := strings.TrimSpace(apiErr.Param)
			if field == "" {
				field = operation
			}
			return core.InvalidArgument(field, fmt.Sprintf("processor rejected %s: %s", operation, apiErr.Msg))
		}
	}
	return core.UpstreamTransient(err, operation)
}

var _ core.PaymentProcessor = (*Client)(nil)
