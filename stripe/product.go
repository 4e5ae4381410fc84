package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// ProductClient manages Stripe products. Products are identified by the url
// derived from their name, see records.ProductURL.
type ProductClient struct {
	api *stripeclient.API
}

// Create creates a product with the given name and its derived url.
func (c *ProductClient) Create(ctx context.Context, name string) (*records.Product, error) {
	params := &stripeapi.ProductParams{
		Params: baseParams(ctx),
		Name:   stripeapi.String(name),
		URL:    stripeapi.String(records.ProductURL(name)),
	}
	product, err := c.api.Products.New(params)
	if err != nil {
		return nil, err
	}
	return decode(product.LastResponse, records.ParseProduct)
}

// Get retrieves a product by ID
func (c *ProductClient) Get(ctx context.Context, productID string) (*records.Product, error) {
	if err := requireID("product", productID); err != nil {
		return nil, err
	}
	product, err := c.api.Products.Get(productID, &stripeapi.ProductParams{Params: baseParams(ctx)})
	if err != nil {
		return nil, err
	}
	return decode(product.LastResponse, records.ParseProduct)
}

// GetByName retrieves the first product whose url matches the one derived
// from name, or nil if there is none.
func (c *ProductClient) GetByName(ctx context.Context, name string) (*records.Product, error) {
	url := records.ProductURL(name)
	params := &stripeapi.ProductListParams{
		ListParams: baseListParams(ctx),
		URL:        stripeapi.String(url),
	}
	i := c.api.Products.List(params)
	if err := i.Err(); err != nil {
		return nil, err
	}
	products, err := decodeList(i.ProductList().LastResponse, records.ParseProduct)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		if product.URL == url {
			return product, nil
		}
	}
	return nil, nil
}

// Delete deletes a product and reports whether Stripe acknowledged it.
func (c *ProductClient) Delete(ctx context.Context, productID string) (bool, error) {
	if err := requireID("product", productID); err != nil {
		return false, err
	}
	product, err := c.api.Products.Del(productID, &stripeapi.ProductParams{Params: baseParams(ctx)})
	if err != nil {
		return false, err
	}
	return decodeDeleted(product.LastResponse)
}
