package stripe

import (
	"bytes"
	"context"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// listLimit is the page size requested on list calls.
const listLimit = 100

// Client groups the resource clients. All of them share one stripe-go client
// bound to the API key given in the configuration; the global stripe-go key is
// never used, so several clients with different keys can coexist.
type Client struct {
	Customers      *CustomerClient
	PaymentMethods *PaymentMethodClient
	Products       *ProductClient
	Prices         *PriceClient
	Subscriptions  *SubscriptionClient
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, NewStripeError(ErrInvalidConfiguration.Code, "config is required", nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backendConfig := &stripeapi.BackendConfig{
		LeveledLogger:     sdkLogger{},
		MaxNetworkRetries: stripeapi.Int64(config.MaxNetworkRetries),
	}
	if config.APIURL != "" {
		backendConfig.URL = stripeapi.String(config.APIURL)
	}
	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendConfig)
	api := stripeclient.New(config.APIKey, &stripeapi.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &Client{
		Customers:      &CustomerClient{api: api},
		PaymentMethods: &PaymentMethodClient{api: api},
		Products:       &ProductClient{api: api},
		Prices:         &PriceClient{api: api},
		Subscriptions:  &SubscriptionClient{api: api},
	}, nil
}

// body returns the raw body of a Stripe response, which is parsed and
// validated into a record instead of trusting the stripe-go types.
func body(resp *stripeapi.APIResponse) []byte {
	if resp == nil {
		return nil
	}
	return resp.RawJSON
}

// empty reports whether Stripe returned no object.
func empty(resp *stripeapi.APIResponse) bool {
	raw := bytes.TrimSpace(body(resp))
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}"))
}

// decode parses a response into a record.
func decode[T any](resp *stripeapi.APIResponse, parse func([]byte) (*T, error)) (*T, error) {
	record, err := parse(body(resp))
	if err != nil {
		return nil, invalidResponse(err)
	}
	return record, nil
}

// decodeList parses the first page of a list into records. Only the first
// page is read, listLimit items at most.
func decodeList[T any](resp *stripeapi.APIResponse, parse func([]byte) (*T, error)) ([]*T, error) {
	list, err := records.ParseList(body(resp), parse)
	if err != nil {
		return nil, invalidResponse(err)
	}
	return list, nil
}

// decodeDeleted parses a deletion acknowledgement.
func decodeDeleted(resp *stripeapi.APIResponse) (bool, error) {
	deleted, err := decode(resp, records.ParseDeleted)
	if err != nil {
		return false, err
	}
	return deleted.Deleted, nil
}

func baseParams(ctx context.Context) stripeapi.Params {
	return stripeapi.Params{Context: ctx}
}

func baseListParams(ctx context.Context) stripeapi.ListParams {
	return stripeapi.ListParams{Context: ctx, Limit: stripeapi.Int64(listLimit)}
}

func requireID(kind, id string) error {
	if id == "" {
		return NewStripeError(ErrInvalidRequest.Code, fmt.Sprintf("%s id is required", kind), nil)
	}
	return nil
}

// missing reports a required argument that was not given.
func missing(kind string) error {
	return NewStripeError(ErrInvalidRequest.Code, fmt.Sprintf("%s is required", kind), nil)
}
