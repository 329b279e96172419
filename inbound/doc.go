// Package inbound exposes the webhook processor over net/http.
//
// The handler hands the unmodified request body to the processor; any
// re-encoding would break the signature.
package inbound
