package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorInvalidArgument   = "PAYMENTS_INVALID_ARGUMENT"
	ErrorNotFound          = "PAYMENTS_NOT_FOUND"
	ErrorSignatureInvalid  = "PAYMENTS_SIGNATURE_INVALID"
	ErrorMalformedEvent    = "PAYMENTS_MALFORMED_EVENT"
	ErrorUpstreamTransient = "PAYMENTS_UPSTREAM_TRANSIENT"
	ErrorPayeeNotReady     = "PAYMENTS_PAYEE_NOT_READY"
	ErrorPackageInactive   = "PAYMENTS_PACKAGE_INACTIVE"
	ErrorPersistence       = "PAYMENTS_PERSISTENCE_FAILED"
	ErrorInternal          = "PAYMENTS_INTERNAL_ERROR"
)

func paymentsError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func paymentsWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return paymentsError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func InvalidArgument(field string, message string) error {
	return paymentsError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		ErrorInvalidArgument,
		map[string]any{"field": field},
	)
}

// NotFound reports a missing referenced resource, e.g. NotFound("Package", id).
func NotFound(resource string, id string) error {
	return paymentsError(
		resource+" not found",
		goerrors.CategoryNotFound,
		http.StatusNotFound,
		ErrorNotFound,
		map[string]any{"resource": resource, "id": id},
	)
}

func SignatureInvalid(cause error) error {
	return paymentsWrapError(
		cause,
		goerrors.CategoryAuth,
		"webhook signature invalid",
		http.StatusBadRequest,
		ErrorSignatureInvalid,
		map[string]any{"security_event": true},
	)
}

func MalformedEvent(eventType string, message string) error {
	return paymentsError(
		message,
		goerrors.CategoryBadInput,
		http.StatusUnprocessableEntity,
		ErrorMalformedEvent,
		map[string]any{"event_type": eventType},
	)
}

func UpstreamTransient(cause error, operation string) error {
	return paymentsWrapError(
		cause,
		goerrors.CategoryExternal,
		"payment processor call failed: "+operation,
		http.StatusBadGateway,
		ErrorUpstreamTransient,
		map[string]any{"operation": operation},
	)
}

func PayeeNotReady(consultantID string) error {
	return paymentsError(
		"payee account is not ready to receive funds",
		goerrors.CategoryConflict,
		http.StatusConflict,
		ErrorPayeeNotReady,
		map[string]any{"consultant_id": consultantID},
	)
}

func PackageInactive(packageID string) error {
	return paymentsError(
		"package is not available for purchase",
		goerrors.CategoryConflict,
		http.StatusConflict,
		ErrorPackageInactive,
		map[string]any{"package_id": packageID},
	)
}

func PersistenceFailed(cause error, operation string) error {
	return paymentsWrapError(
		cause,
		goerrors.CategoryInternal,
		"persistence failed: "+operation,
		http.StatusInternalServerError,
		ErrorPersistence,
		map[string]any{"operation": operation},
	)
}

func InternalError(message string) error {
	return paymentsError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		ErrorInternal,
		nil,
	)
}

// ErrorKind returns the text code carried by err, or ErrorInternal for
// errors outside the payments taxonomy. Nil yields "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && strings.TrimSpace(richErr.TextCode) != "" {
		return richErr.TextCode
	}
	return ErrorInternal
}

func IsKind(err error, kind string) bool {
	return err != nil && ErrorKind(err) == kind
}

// HTTPStatus maps an error to the status an inbound route should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

// Retryable reports whether repeating the same call may succeed.
func Retryable(err error) bool {
	switch ErrorKind(err) {
	case ErrorUpstreamTransient, ErrorPersistence, ErrorInternal:
		return true
	default:
		return false
	}
}

func isNotFound(err error, sentinel error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sentinel) {
		return true
	}
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryNotFound
}
