package stripe

import (
	"fmt"

	"github.com/goliatone/go-payments/core"
	glog "github.com/goliatone/go-logger/glog"
	stripeapi "github.com/stripe/stripe-go/v80"
)

func resolveLogger(logger core.Logger) core.Logger {
	_, resolved := glog.Resolve("payments.stripe", nil, logger)
	return glog.Ensure(resolved)
}

// leveledLogger routes SDK transport logs (retries, request failures) into
// the service logger.
type leveledLogger struct {
	logger core.Logger
}

func (l leveledLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "provider", ProviderID)
}

func (l leveledLogger) Infof(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), "provider", ProviderID)
}

func (l leveledLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "provider", ProviderID)
}

func (l leveledLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "provider", ProviderID)
}

var _ stripeapi.LeveledLoggerInterface = leveledLogger{}
