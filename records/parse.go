// Package records holds the typed snapshots of the Stripe objects handled by
// the subscription service. Every record is decoded from a raw API response
// and validated; a response that does not satisfy its record is rejected as a
// whole.
package records

import (
	"encoding/json"
	"fmt"

	"github.com/vocdoni/stripe-subscriptions/validator"
)

// record kinds reported by ParseError
const (
	KindCustomer        = "customer"
	KindProduct         = "product"
	KindPrice           = "price"
	KindPaymentMethod   = "payment_method"
	KindSubscription    = "subscription"
	KindCheckoutSession = "checkout_session"
	KindDeleted         = "deleted"
	KindList            = "list"
)

var validate = newValidator()

func newValidator() *validator.Validator {
	v := validator.New()
	v.RegisterCustomTypeFunc(timestampValue, Timestamp{})
	return v
}

// ParseError is returned when a response cannot be turned into a record.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parse[T any](kind string, data []byte) (*T, error) {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, &ParseError{Kind: kind, Err: err}
	}
	if err := validate.Validate(out); err != nil {
		return nil, &ParseError{Kind: kind, Err: err}
	}
	return out, nil
}

// ParseCustomer decodes and validates a customer.
func ParseCustomer(data []byte) (*Customer, error) {
	return parse[Customer](KindCustomer, data)
}

// ParseProduct decodes and validates a product.
func ParseProduct(data []byte) (*Product, error) {
	return parse[Product](KindProduct, data)
}

// ParsePrice decodes and validates a price.
func ParsePrice(data []byte) (*Price, error) {
	return parse[Price](KindPrice, data)
}

// ParsePaymentMethod decodes and validates a payment method.
func ParsePaymentMethod(data []byte) (*PaymentMethod, error) {
	return parse[PaymentMethod](KindPaymentMethod, data)
}

// ParseSubscription decodes and validates a subscription.
func ParseSubscription(data []byte) (*Subscription, error) {
	return parse[Subscription](KindSubscription, data)
}

// ParseCheckoutSession decodes and validates a checkout session.
func ParseCheckoutSession(data []byte) (*CheckoutSession, error) {
	return parse[CheckoutSession](KindCheckoutSession, data)
}

// ParseDeleted decodes a deletion acknowledgement.
func ParseDeleted(data []byte) (*Deleted, error) {
	return parse[Deleted](KindDeleted, data)
}

// ParseList unwraps a list envelope and parses each element with fn.
func ParseList[T any](data []byte, fn func([]byte) (*T, error)) ([]*T, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &ParseError{Kind: KindList, Err: err}
	}
	out := make([]*T, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		item, err := fn(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
