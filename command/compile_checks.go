package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateCheckoutSessionMessage] = (*CreateCheckoutSessionCommand)(nil)
	_ gocmd.Commander[ProcessWebhookMessage]        = (*ProcessWebhookCommand)(nil)
)
