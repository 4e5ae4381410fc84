package stripe

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v82"
)

// StripeError represents an error raised by this package. Errors returned by
// the Stripe API are not wrapped: they reach the caller as *stripeapi.Error.
type StripeError struct {
	Code    string
	Message string
	Type    string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a StripeError with the same code.
func (e *StripeError) Is(target error) bool {
	t, ok := target.(*StripeError)
	return ok && t.Code == e.Code
}

// Common Stripe errors
var (
	ErrActiveSubscriptionExists = &StripeError{
		Code:    "active_subscription_exists",
		Message: "customer has an active subscription for this price",
		Type:    "conflict",
	}
	ErrInvalidResponse = &StripeError{
		Code:    "invalid_response",
		Message: "stripe response does not match the expected record",
		Type:    "validation",
	}
	ErrInvalidConfiguration = &StripeError{Code: "invalid_configuration", Message: "invalid stripe configuration"}
	ErrInvalidRequest       = &StripeError{Code: "invalid_request", Message: "invalid request parameters"}
)

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// invalidResponse wraps a parse failure of a Stripe response.
func invalidResponse(err error) *StripeError {
	return &StripeError{
		Code:    ErrInvalidResponse.Code,
		Message: ErrInvalidResponse.Message,
		Type:    ErrInvalidResponse.Type,
		Err:     err,
	}
}

// IsRetryableError determines if an error returned by the Stripe API may
// succeed if the same request is sent again: rate limits, lock conflicts and
// server side failures.
func IsRetryableError(err error) bool {
	var apiErr *stripeapi.Error
	if !errors.As(err, &apiErr) {
		return IsTemporaryError(err)
	}
	switch {
	case apiErr.HTTPStatusCode == http.StatusTooManyRequests,
		apiErr.HTTPStatusCode == http.StatusConflict,
		apiErr.HTTPStatusCode >= http.StatusInternalServerError:
		return true
	default:
		return apiErr.Type == stripeapi.ErrorTypeAPI
	}
}

// IsTemporaryError determines if an error is temporary: rate limits,
// unavailability of the Stripe API or network timeouts.
func IsTemporaryError(err error) bool {
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNotFound reports whether err is a Stripe API error for a missing object.
func IsNotFound(err error) bool {
	var apiErr *stripeapi.Error
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound
}
