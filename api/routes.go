package api

const (
	// health routes

	// GET /ping to check the service is alive
	pingEndpoint = "/ping"

	// customer routes

	// POST /customers to get or create a customer by email
	customersEndpoint = "/customers"
	// GET /customers/{email}/subscriptions to list the subscriptions of a customer
	customerSubscriptionsEndpoint = "/customers/{email}/subscriptions"

	// price routes

	// POST /prices to get or create a recurring price
	pricesEndpoint = "/prices"

	// payment method routes

	// POST /paymentmethods to get or create a card payment method of a customer
	paymentMethodsEndpoint = "/paymentmethods"

	// subscription routes

	// POST /subscriptions to subscribe a customer to a price unless an active
	// subscription exists
	subscriptionsEndpoint = "/subscriptions"
	// GET /subscriptions/{id} to retrieve a subscription
	subscriptionEndpoint = "/subscriptions/{id}"
	// POST /checkout to create a checkout session subscribing a customer
	checkoutEndpoint = "/checkout"
)
