package api

import (
	"context"
	stderrors "errors"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/vocdoni/stripe-subscriptions/errors"
	"github.com/vocdoni/stripe-subscriptions/stripe"
	"github.com/vocdoni/stripe-subscriptions/workers"
)

// apiError translates an error returned by the stripe service into the API
// error to reply with. The original error stays wrapped.
func apiError(err error) errors.Error {
	var apiErr *stripeapi.Error
	switch {
	case stderrors.Is(err, stripe.ErrActiveSubscriptionExists):
		return errors.ErrActiveSubscriptionExists.WithErr(err)
	case stderrors.Is(err, stripe.ErrInvalidRequest):
		return errors.ErrInvalidData.WithErr(err)
	case stderrors.Is(err, stripe.ErrInvalidResponse):
		return errors.ErrStripeInvalidResponse.WithErr(err)
	case stderrors.Is(err, workers.ErrStopped):
		return errors.ErrServiceStopped.WithErr(err)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return errors.ErrGenericInternalServerError.WithErr(err)
	case stripe.IsNotFound(err):
		return errors.ErrStripeNotFound.WithErr(err)
	case stderrors.As(err, &apiErr):
		// the request was rejected, e.g. a declined card
		if apiErr.HTTPStatusCode >= http.StatusBadRequest && apiErr.HTTPStatusCode < http.StatusInternalServerError &&
			!stripe.IsRetryableError(err) && apiErr.HTTPStatusCode != http.StatusUnauthorized {
			return errors.ErrPaymentRejected.WithErr(err)
		}
		return errors.ErrStripeError.WithErr(err)
	default:
		return errors.ErrGenericInternalServerError.WithErr(err)
	}
}
