package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-payments/core"
)

func inboundError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundBadInput(message string, metadata map[string]any) error {
	return inboundError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ErrorInvalidArgument,
		metadata,
	)
}

func inboundPayloadTooLarge(limit int64) error {
	return inboundError(
		"inbound: webhook payload too large",
		goerrors.CategoryBadInput,
		http.StatusRequestEntityTooLarge,
		core.ErrorInvalidArgument,
		map[string]any{"limit_bytes": limit},
	)
}

func inboundMethodNotAllowed(method string) error {
	return inboundError(
		"inbound: method not allowed",
		goerrors.CategoryBadInput,
		http.StatusMethodNotAllowed,
		core.ErrorInvalidArgument,
		map[string]any{"method": method},
	)
}

func inboundInternal(message string, metadata map[string]any) error {
	return inboundError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.ErrorInternal,
		metadata,
	)
}
