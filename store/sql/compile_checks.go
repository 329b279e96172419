package sqlstore

import (
	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/webhooks"
)

var (
	_ core.BookingRepository   = (*BookingStore)(nil)
	_ core.BookingTransitioner = (*BookingStore)(nil)
	_ core.BookingLister       = (*BookingStore)(nil)
	_ webhooks.DeliveryLog     = (*DeliveryStore)(nil)
)
