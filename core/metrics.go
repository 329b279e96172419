package core

import "context"

// Operations observed by the payments core. Each one reports
// payments.<operation>.total and payments.<operation>.duration_ms, tagged
// with operation and status plus event_type and error_kind when known.
const (
	OperationVerifyOnboarding      = "verify_onboarding"
	OperationCreateCheckoutSession = "create_checkout_session"
	OperationProcessWebhook        = "process_webhook"
)

const metricsPrefix = "payments."

// CounterMetric returns the counter name for an operation.
func CounterMetric(operation string) string {
	return metricsPrefix + normalizeOperation(operation) + ".total"
}

// DurationMetric returns the histogram name for an operation, in milliseconds.
func DurationMetric(operation string) string {
	return metricsPrefix + normalizeOperation(operation) + ".duration_ms"
}

// NopMetricsRecorder is the recorder used when the host wires none.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
