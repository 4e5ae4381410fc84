package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// CustomerClient manages Stripe customers.
type CustomerClient struct {
	api *stripeclient.API
}

// Get retrieves a customer by ID
func (c *CustomerClient) Get(ctx context.Context, customerID string) (*records.Customer, error) {
	if err := requireID("customer", customerID); err != nil {
		return nil, err
	}
	customer, err := c.api.Customers.Get(customerID, &stripeapi.CustomerParams{Params: baseParams(ctx)})
	if err != nil {
		return nil, err
	}
	return decode(customer.LastResponse, records.ParseCustomer)
}

// GetByEmail retrieves the first customer with the given email address, or
// nil if there is none.
func (c *CustomerClient) GetByEmail(ctx context.Context, email string) (*records.Customer, error) {
	params := &stripeapi.CustomerListParams{
		ListParams: baseListParams(ctx),
		Email:      stripeapi.String(email),
	}
	params.Limit = stripeapi.Int64(1)

	i := c.api.Customers.List(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	customers, err := decodeList(i.CustomerList().LastResponse, records.ParseCustomer)
	if err != nil || len(customers) == 0 {
		return nil, err
	}
	return customers[0], nil
}

// Create creates a customer with the given email address.
func (c *CustomerClient) Create(ctx context.Context, email string) (*records.Customer, error) {
	params := &stripeapi.CustomerParams{
		Params: baseParams(ctx),
		Email:  stripeapi.String(email),
	}
	customer, err := c.api.Customers.New(params)
	if err != nil {
		return nil, err
	}
	return decode(customer.LastResponse, records.ParseCustomer)
}

// Delete deletes a customer and reports whether Stripe acknowledged it.
func (c *CustomerClient) Delete(ctx context.Context, customerID string) (bool, error) {
	if err := requireID("customer", customerID); err != nil {
		return false, err
	}
	customer, err := c.api.Customers.Del(customerID, &stripeapi.CustomerParams{Params: baseParams(ctx)})
	if err != nil {
		return false, err
	}
	return decodeDeleted(customer.LastResponse)
}

// PaymentMethods lists the payment methods of every type attached to the
// customer.
func (c *CustomerClient) PaymentMethods(ctx context.Context, customerID string) ([]*records.PaymentMethod, error) {
	if err := requireID("customer", customerID); err != nil {
		return nil, err
	}
	params := &stripeapi.CustomerListPaymentMethodsParams{
		ListParams: baseListParams(ctx),
		Customer:   stripeapi.String(customerID),
	}
	i := c.api.Customers.ListPaymentMethods(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	return decodeList(i.PaymentMethodList().LastResponse, records.ParsePaymentMethod)
}

// SetDefaultPaymentMethod sets the payment method used by default for the
// invoices of the customer.
func (c *CustomerClient) SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string,
) (*records.Customer, error) {
	if err := requireID("customer", customerID); err != nil {
		return nil, err
	}
	params := &stripeapi.CustomerParams{
		Params: baseParams(ctx),
		InvoiceSettings: &stripeapi.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripeapi.String(methodID),
		},
	}
	customer, err := c.api.Customers.Update(customerID, params)
	if err != nil {
		return nil, err
	}
	return decode(customer.LastResponse, records.ParseCustomer)
}
