// Package providers groups payment processor clients that satisfy
// core.PaymentProcessor. The stripe subpackage is the only built-in client.
package providers
