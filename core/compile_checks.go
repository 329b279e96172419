package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ BookingRepository   = (*MemoryBookingRepository)(nil)
	_ BookingTransitioner = (*MemoryBookingRepository)(nil)
	_ BookingLister       = (*MemoryBookingRepository)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
