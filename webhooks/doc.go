// Package webhooks verifies, classifies and applies signed processor
// notifications.
//
// Deliveries are at-least-once. A completed checkout is stored through a
// single conditional insert keyed by the session id, so a repeated or
// concurrent delivery of the same event yields one booking and reports
// Duplicate. Follow-up events only move a booking forward and never out of a
// terminal status.
package webhooks
