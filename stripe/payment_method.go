package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// paymentMethodTypeCard is the only payment method type created by this
// package.
const paymentMethodTypeCard = "card"

// Card holds the raw card details used to create a card payment method.
type Card struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

// PaymentMethodClient manages Stripe payment methods.
type PaymentMethodClient struct {
	api *stripeclient.API
}

// Create creates a card payment method. The method is not attached to any
// customer.
func (c *PaymentMethodClient) Create(ctx context.Context, card Card) (*records.PaymentMethod, error) {
	params := &stripeapi.PaymentMethodParams{
		Params: baseParams(ctx),
		Type:   stripeapi.String(paymentMethodTypeCard),
		Card: &stripeapi.PaymentMethodCardParams{
			Number:   stripeapi.String(card.Number),
			ExpMonth: stripeapi.Int64(card.ExpMonth),
			ExpYear:  stripeapi.Int64(card.ExpYear),
			CVC:      stripeapi.String(card.CVC),
		},
	}
	method, err := c.api.PaymentMethods.New(params)
	if err != nil {
		return nil, err
	}
	return decode(method.LastResponse, records.ParsePaymentMethod)
}

// List lists the card payment methods attached to the customer.
func (c *PaymentMethodClient) List(ctx context.Context, customerID string) ([]*records.PaymentMethod, error) {
	if err := requireID("customer", customerID); err != nil {
		return nil, err
	}
	params := &stripeapi.PaymentMethodListParams{
		ListParams: baseListParams(ctx),
		Customer:   stripeapi.String(customerID),
		Type:       stripeapi.String(paymentMethodTypeCard),
	}
	i := c.api.PaymentMethods.List(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	return decodeList(i.PaymentMethodList().LastResponse, records.ParsePaymentMethod)
}

// Attach attaches the payment method to the customer.
func (c *PaymentMethodClient) Attach(ctx context.Context, method *records.PaymentMethod,
	customer *records.Customer,
) (*records.PaymentMethod, error) {
	if method == nil {
		return nil, missing("payment method")
	}
	if customer == nil {
		return nil, missing("customer")
	}
	if err := requireID("payment method", method.ID); err != nil {
		return nil, err
	}
	if err := requireID("customer", customer.ID); err != nil {
		return nil, err
	}
	params := &stripeapi.PaymentMethodAttachParams{
		Params:   baseParams(ctx),
		Customer: stripeapi.String(customer.ID),
	}
	attached, err := c.api.PaymentMethods.Attach(method.ID, params)
	if err != nil {
		return nil, err
	}
	return decode(attached.LastResponse, records.ParsePaymentMethod)
}

// Detach detaches the payment method from its customer. A detached method
// cannot be used again.
func (c *PaymentMethodClient) Detach(ctx context.Context, methodID string) (*records.PaymentMethod, error) {
	if err := requireID("payment method", methodID); err != nil {
		return nil, err
	}
	params := &stripeapi.PaymentMethodDetachParams{
		Params: baseParams(ctx),
	}
	detached, err := c.api.PaymentMethods.Detach(methodID, params)
	if err != nil {
		return nil, err
	}
	return decode(detached.LastResponse, records.ParsePaymentMethod)
}
