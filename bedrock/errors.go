package bedrock

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the base error for a non-2xx response from the Bedrock runtime.
// The typed errors below embed it.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Type is the service exception name, e.g. "ValidationException".
	Type string

	// Message is the service-provided message.
	Message string

	// RequestID is the x-amzn-RequestId response header, if present.
	RequestID string

	// ModelID is the model the request was addressed to.
	ModelID string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("bedrock")
	if e.ModelID != "" {
		fmt.Fprintf(&b, " [%s]", e.ModelID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " %s", e.Type)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// API returns e. It is promoted to every typed error embedding APIError.
func (e *APIError) API() *APIError {
	return e
}

// IsRetryable reports whether the request may succeed when repeated.
// The base implementation returns false; typed errors override it.
func (e *APIError) IsRetryable() bool {
	return false
}

// ValidationError is returned when the request body is rejected (400).
type ValidationError struct {
	APIError
}

// AccessDeniedError is returned for invalid or insufficient credentials (401, 403).
type AccessDeniedError struct {
	APIError
}

// ResourceNotFoundError is returned for an unknown model or endpoint (404).
type ResourceNotFoundError struct {
	APIError
}

// ModelError is returned when the model itself failed to process the input (424).
type ModelError struct {
	APIError
}

// ThrottlingError is returned when the account is rate limited (429).
type ThrottlingError struct {
	APIError
}

// IsRetryable returns true.
func (e *ThrottlingError) IsRetryable() bool {
	return true
}

// ModelTimeoutError is returned when the model did not answer in time (408).
type ModelTimeoutError struct {
	APIError
}

// IsRetryable returns true.
func (e *ModelTimeoutError) IsRetryable() bool {
	return true
}

// ServiceUnavailableError covers 5xx responses.
type ServiceUnavailableError struct {
	APIError
}

// IsRetryable returns true.
func (e *ServiceUnavailableError) IsRetryable() bool {
	return true
}

// ParseError converts a non-2xx Bedrock response into a typed error.
//
// Classification prefers the X-Amzn-ErrorType header and falls back to the
// status code. The message is taken from the JSON body ("message" or
// "Message"), or the raw body when it is not JSON.
func ParseError(statusCode int, header http.Header, body []byte) error {
	base := APIError{
		StatusCode: statusCode,
		Type:       errorType(header),
		Message:    errorMessage(body),
	}
	if header != nil {
		base.RequestID = header.Get("X-Amzn-RequestId")
	}
	if base.Message == "" {
		base.Message = fmt.Sprintf("HTTP %d error", statusCode)
	}

	switch base.Type {
	case "ValidationException", "ServiceQuotaExceededException":
		return &ValidationError{base}
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException",
		"InvalidSignatureException", "IncompleteSignature", "MissingAuthenticationTokenException":
		return &AccessDeniedError{base}
	case "ResourceNotFoundException":
		return &ResourceNotFoundError{base}
	case "ThrottlingException", "TooManyRequestsException", "ModelNotReadyException":
		return &ThrottlingError{base}
	case "ModelTimeoutException":
		return &ModelTimeoutError{base}
	case "ModelErrorException":
		return &ModelError{base}
	case "ServiceUnavailableException", "InternalServerException":
		return &ServiceUnavailableError{base}
	}

	switch {
	case statusCode == http.StatusBadRequest:
		return &ValidationError{base}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AccessDeniedError{base}
	case statusCode == http.StatusNotFound:
		return &ResourceNotFoundError{base}
	case statusCode == http.StatusRequestTimeout:
		return &ModelTimeoutError{base}
	case statusCode == http.StatusFailedDependency:
		return &ModelError{base}
	case statusCode == http.StatusTooManyRequests:
		return &ThrottlingError{base}
	case statusCode >= 500:
		return &ServiceUnavailableError{base}
	default:
		return &base
	}
}

// AsAPIError returns the APIError embedded in any typed Bedrock error in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	type apiError interface {
		API() *APIError
	}

	var e apiError
	if errors.As(err, &e) {
		return e.API(), true
	}
	return nil, false
}

// IsRetryable reports whether err, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	type retryable interface {
		IsRetryable() bool
	}

	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// errorType strips the namespace suffix from X-Amzn-ErrorType, which looks
// like "ValidationException:http://internal.amazon.com/coral/...".
func errorType(header http.Header) string {
	if header == nil {
		return ""
	}
	t := header.Get("X-Amzn-ErrorType")
	if i := strings.IndexByte(t, ':'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func errorMessage(body []byte) string {
	var payload struct {
		Message      string `json:"message"`
		MessageUpper string `json:"Message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.MessageUpper != "" {
			return payload.MessageUpper
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}
