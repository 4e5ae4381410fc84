// Package errors provides custom error types and definitions for the application.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 401, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault, or the fault of the payment
// provider, and they return HTTP Status 500 or 502.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, DON'T fill it: that code was used in the past and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	// Authentication errors (401)
	ErrUnauthorized = Error{Code: 40001, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("authentication required"), LogLevel: "info"}

	// Validation errors (400)
	ErrEmailMalformed    = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid email format")}
	ErrMalformedBody     = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrMalformedURLParam = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrInvalidData       = Error{Code: 40037, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid data provided")}
	ErrPaymentRejected   = Error{Code: 40039, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("payment provider rejected the request"), LogLevel: "info"}

	// Not found errors (404)
	ErrSubscriptionNotFound = Error{Code: 40040, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("subscription not found")}
	ErrStripeNotFound       = Error{Code: 40041, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("payment provider object not found")}

	// Conflict errors (409)
	ErrDuplicateConflict        = Error{Code: 40901, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("resource already exists")}
	ErrActiveSubscriptionExists = Error{Code: 40902, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("customer has an active subscription for this price"), LogLevel: "info"}

	// Server errors (500, 502) - These should be used sparingly and only for true internal errors
	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: failed to process response"), LogLevel: "error"}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrStripeError                = Error{Code: 50005, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("server error: payment processing failed"), LogLevel: "error"}
	ErrStripeInvalidResponse      = Error{Code: 50009, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("server error: invalid payment provider response"), LogLevel: "error"}
	ErrServiceStopped             = Error{Code: 50010, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("server error: service is shutting down"), LogLevel: "warn"}
)
