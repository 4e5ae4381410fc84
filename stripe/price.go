package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// PriceClient manages Stripe prices. Prices created by this package use the
// name of their product as lookup key.
type PriceClient struct {
	api *stripeclient.API
}

// Create creates a recurring price for the product. A zero currency means usd.
func (c *PriceClient) Create(ctx context.Context, amount int64, product *records.Product,
	recurring records.PriceRecurring, currency records.Currency,
) (*records.Price, error) {
	if product == nil {
		return nil, missing("product")
	}
	if err := requireID("product", product.ID); err != nil {
		return nil, err
	}
	price, err := c.api.Prices.New(newPriceParams(ctx, amount, product.ID, product.Name, recurring, currency))
	if err != nil {
		return nil, err
	}
	return decode(price.LastResponse, records.ParsePrice)
}

// GetByLookupKey retrieves the active price with the given lookup key, or nil
// if there is none.
func (c *PriceClient) GetByLookupKey(ctx context.Context, lookupKey string) (*records.Price, error) {
	params := &stripeapi.PriceListParams{
		ListParams: baseListParams(ctx),
		LookupKeys: stripeapi.StringSlice([]string{lookupKey}),
		Active:     stripeapi.Bool(true),
	}
	i := c.api.Prices.List(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	prices, err := decodeList(i.PriceList().LastResponse, records.ParsePrice)
	if err != nil || len(prices) == 0 {
		return nil, err
	}
	return prices[0], nil
}

// UpdateAmount replaces a price with one of a different amount. Stripe prices
// are immutable, so the old price is deactivated and a new one is created with
// the same currency, recurring policy and product. The lookup key moves to the
// new price: lookupKey if given, otherwise the key of the old price.
func (c *PriceClient) UpdateAmount(ctx context.Context, priceID string, amount int64, lookupKey string,
) (*records.Price, error) {
	if err := requireID("price", priceID); err != nil {
		return nil, err
	}
	deactivate := &stripeapi.PriceParams{
		Params: baseParams(ctx),
		Active: stripeapi.Bool(false),
	}
	deactivated, err := c.api.Prices.Update(priceID, deactivate)
	if err != nil {
		return nil, err
	}
	old, err := decode(deactivated.LastResponse, records.ParsePrice)
	if err != nil {
		return nil, err
	}

	if lookupKey == "" {
		lookupKey = old.LookupKey
	}
	var recurring records.PriceRecurring
	if old.Recurring != nil {
		recurring = *old.Recurring
	}
	params := newPriceParams(ctx, amount, old.Product.String(), lookupKey, recurring, old.Currency)
	if lookupKey != "" {
		params.TransferLookupKey = stripeapi.Bool(true)
	}
	price, err := c.api.Prices.New(params)
	if err != nil {
		return nil, err
	}
	return decode(price.LastResponse, records.ParsePrice)
}

func newPriceParams(ctx context.Context, amount int64, productID, lookupKey string,
	recurring records.PriceRecurring, currency records.Currency,
) *stripeapi.PriceParams {
	if currency == 0 {
		currency = records.CurrencyUSD
	}
	if recurring.Interval == 0 {
		recurring.Interval = records.IntervalMonth
	}
	if recurring.IntervalCount == 0 {
		recurring.IntervalCount = 1
	}
	params := &stripeapi.PriceParams{
		Params:     baseParams(ctx),
		UnitAmount: stripeapi.Int64(amount),
		Currency:   stripeapi.String(currency.String()),
		Product:    stripeapi.String(productID),
		Recurring: &stripeapi.PriceRecurringParams{
			Interval:      stripeapi.String(recurring.Interval.String()),
			IntervalCount: stripeapi.Int64(recurring.IntervalCount),
		},
	}
	if lookupKey != "" {
		params.LookupKey = stripeapi.String(lookupKey)
	}
	return params
}
