package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// SubscriptionClient manages Stripe subscriptions and the checkout sessions
// that create them.
type SubscriptionClient struct {
	api *stripeclient.API
}

// requireCustomerAndPrice checks the arguments shared by subscription and
// checkout creation.
func requireCustomerAndPrice(customer *records.Customer, price *records.Price) error {
	if customer == nil {
		return missing("customer")
	}
	if price == nil {
		return missing("price")
	}
	if err := requireID("customer", customer.ID); err != nil {
		return err
	}
	return requireID("price", price.ID)
}

// Create subscribes the customer to the price, with a single item.
func (c *SubscriptionClient) Create(ctx context.Context, customer *records.Customer, price *records.Price,
) (*records.Subscription, error) {
	if err := requireCustomerAndPrice(customer, price); err != nil {
		return nil, err
	}
	params := &stripeapi.SubscriptionParams{
		Params:   baseParams(ctx),
		Customer: stripeapi.String(customer.ID),
		Items: []*stripeapi.SubscriptionItemsParams{
			{Price: stripeapi.String(price.ID)},
		},
	}
	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, err
	}
	return decode(sub.LastResponse, records.ParseSubscription)
}

// ListByCustomer lists the subscriptions of the customer in every status,
// canceled ones included.
func (c *SubscriptionClient) ListByCustomer(ctx context.Context, customerID string,
) ([]*records.Subscription, error) {
	if err := requireID("customer", customerID); err != nil {
		return nil, err
	}
	params := &stripeapi.SubscriptionListParams{
		ListParams: baseListParams(ctx),
		Customer:   stripeapi.String(customerID),
		Status:     stripeapi.String("all"),
	}
	i := c.api.Subscriptions.List(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	return decodeList(i.SubscriptionList().LastResponse, records.ParseSubscription)
}

// Retrieve retrieves a subscription by ID. It returns nil if Stripe replies
// with no object.
func (c *SubscriptionClient) Retrieve(ctx context.Context, subscriptionID string) (*records.Subscription, error) {
	if err := requireID("subscription", subscriptionID); err != nil {
		return nil, err
	}
	sub, err := c.api.Subscriptions.Get(subscriptionID, &stripeapi.SubscriptionParams{Params: baseParams(ctx)})
	if err != nil {
		return nil, err
	}
	if empty(sub.LastResponse) {
		return nil, nil
	}
	return decode(sub.LastResponse, records.ParseSubscription)
}

// CreateCheckoutSession creates a subscription mode checkout session for the
// customer, paying the price with a card. The session has one line item with
// quantity 1.
// Overview of stripe checkout mechanics: https://docs.stripe.com/checkout/custom/quickstart
func (c *SubscriptionClient) CreateCheckoutSession(ctx context.Context, successURL, cancelURL string,
	customer *records.Customer, price *records.Price,
) (*records.CheckoutSession, error) {
	if err := requireCustomerAndPrice(customer, price); err != nil {
		return nil, err
	}
	params := &stripeapi.CheckoutSessionParams{
		Params:             baseParams(ctx),
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		SuccessURL:         stripeapi.String(successURL),
		CancelURL:          stripeapi.String(cancelURL),
		PaymentMethodTypes: stripeapi.StringSlice([]string{paymentMethodTypeCard}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(price.ID),
				Quantity: stripeapi.Int64(1),
			},
		},
		Customer: stripeapi.String(customer.ID),
	}
	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return decode(session.LastResponse, records.ParseCheckoutSession)
}
