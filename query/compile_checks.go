package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-payments/core"
)

var (
	_ gocmd.Querier[VerifyOnboardingMessage, OnboardingStatus]     = (*VerifyOnboardingQuery)(nil)
	_ gocmd.Querier[GetBookingMessage, core.Booking]               = (*GetBookingQuery)(nil)
	_ gocmd.Querier[ListConsultantBookingsMessage, []core.Booking] = (*ListConsultantBookingsQuery)(nil)
	_ gocmd.Querier[QuoteFeesMessage, core.FeeQuote]               = (*QuoteFeesQuery)(nil)
)
