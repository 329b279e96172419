package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/webhooks"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultMaxBodyBytes bounds webhook bodies. Processor events are well below
// this size.
const DefaultMaxBodyBytes int64 = 64 * 1024

type Processor interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) webhooks.Result
}

type WebhookHandler struct {
	processor    Processor
	maxBodyBytes int64
	logger       core.Logger
}

type HandlerOption func(*WebhookHandler)

func WithMaxBodyBytes(limit int64) HandlerOption {
	return func(h *WebhookHandler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

func WithLogger(logger core.Logger) HandlerOption {
	return func(h *WebhookHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewWebhookHandler(processor Processor, opts ...HandlerOption) *WebhookHandler {
	handler := &WebhookHandler{
		processor:    processor,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(handler)
	}
	_, resolved := glog.Resolve("payments.inbound", nil, handler.logger)
	handler.logger = glog.Ensure(resolved)
	return handler
}

type responseBody struct {
	Received  bool           `json:"received"`
	Duplicate bool           `json:"duplicate,omitempty"`
	EventID   string         `json:"event_id,omitempty"`
	Error     *responseError `json:"error,omitempty"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, inboundMethodNotAllowed(r.Method))
		return
	}
	if h == nil || h.processor == nil {
		h.writeError(w, inboundInternal("inbound: webhook processor is not configured", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("webhook payload rejected", "limit_bytes", h.maxBodyBytes)
			h.writeError(w, inboundPayloadTooLarge(h.maxBodyBytes))
			return
		}
		h.writeError(w, inboundBadInput("inbound: read webhook body failed", map[string]any{"error": err.Error()}))
		return
	}

	result := h.processor.Process(r.Context(), payload, r.Header.Get(webhooks.SignatureHeader))
	status := result.StatusCode
	if status == 0 {
		status = core.HTTPStatus(result.Error)
	}
	if !result.Success {
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		h.write(w, status, responseBody{
			EventID: result.EventID,
			Error:   toResponseError(result.Error),
		})
		return
	}
	h.write(w, status, responseBody{
		Received:  true,
		Duplicate: result.Duplicate,
		EventID:   result.EventID,
	})
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, err error) {
	h.write(w, core.HTTPStatus(err), responseBody{Error: toResponseError(err)})
}

func (h *WebhookHandler) write(w http.ResponseWriter, status int, body responseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h != nil && h.logger != nil {
		h.logger.Error("webhook response write failed", "error", err.Error())
	}
}

func toResponseError(err error) *responseError {
	if err == nil {
		return &responseError{Code: core.ErrorInternal, Message: "webhook delivery failed"}
	}
	return &responseError{Code: core.ErrorKind(err), Message: err.Error()}
}
