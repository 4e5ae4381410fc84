package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/stripe-subscriptions/api/apicommon"
	"github.com/vocdoni/stripe-subscriptions/errors"
	"github.com/vocdoni/stripe-subscriptions/records"
	"github.com/vocdoni/stripe-subscriptions/stripe"
	"github.com/vocdoni/stripe-subscriptions/validator"
	"go.vocdoni.io/dvote/log"
)

// createCustomerHandler godoc
//
//	@Summary		Get or create a customer
//	@Description	Returns the Stripe customer with the given email, creating it if there is none.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		apicommon.CustomerRequest	true	"Customer email"
//	@Success		200		{object}	apicommon.CustomerResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/customers [post]
func (a *API) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validatedModel[apicommon.CustomerRequest](w, r)
	if !ok {
		return
	}
	res, err := a.service.GetOrCreateCustomer(r.Context(), req.Email).Await(r.Context())
	if err != nil {
		apiError(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.CustomerResponse{Customer: res.Record, Created: res.Created})
}

// createPriceHandler godoc
//
//	@Summary		Get or create a price
//	@Description	Returns the recurring price matching the product name, amount and recurrence, creating it
//	@Description	and its product if there is none.
//	@Tags			prices
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		apicommon.PriceRequest	true	"Price definition"
//	@Success		200		{object}	apicommon.PriceResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/prices [post]
func (a *API) createPriceHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validatedModel[apicommon.PriceRequest](w, r)
	if !ok {
		return
	}
	res, err := a.service.GetOrCreatePrice(r.Context(), req.Price()).Await(r.Context())
	if err != nil {
		apiError(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.PriceResponse{Price: res.Record, Created: res.Created})
}

// createPaymentMethodHandler godoc
//
//	@Summary		Get or create a card payment method
//	@Description	Returns the card of the customer matching the expiration and last four digits. If there is
//	@Description	none, the card is created, attached and set as default for invoices. Duplicated cards are
//	@Description	detached, keeping the newest one.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		apicommon.PaymentMethodRequest	true	"Card details"
//	@Success		200		{object}	apicommon.PaymentMethodResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data or card rejected"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/paymentmethods [post]
func (a *API) createPaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validatedModel[apicommon.PaymentMethodRequest](w, r)
	if !ok {
		return
	}
	res, err := a.service.GetOrCreatePaymentMethod(r.Context(), req.Card()).Await(r.Context())
	if err != nil {
		apiError(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.PaymentMethodResponse{PaymentMethod: res.Record, Created: res.Created})
}

// createSubscriptionHandler godoc
//
//	@Summary		Subscribe a customer to a price
//	@Description	Resolves the customer and the price, then subscribes the customer unless its latest
//	@Description	subscription to the price is active.
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		apicommon.SubscriptionRequest	true	"Customer and price"
//	@Success		200		{object}	records.Subscription
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		409		{object}	errors.Error	"Active subscription exists"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/subscriptions [post]
func (a *API) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validatedModel[apicommon.SubscriptionRequest](w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	customer, err := a.service.GetOrCreateCustomer(ctx, req.Email).Await(ctx)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	price, err := a.service.GetOrCreatePrice(ctx, req.Price()).Await(ctx)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	sub, err := a.service.CreateSubscriptionIfNotExist(ctx, customer.Record, price.Record).Await(ctx)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	log.Infow("subscription created", "customer", customer.Record.ID, "price", price.Record.ID,
		"subscription", sub.ID, "status", sub.Status.String())
	apicommon.HTTPWriteJSON(w, sub)
}

// customerSubscriptionsHandler godoc
//
//	@Summary		List the subscriptions of a customer
//	@Description	Lists the subscriptions of the customer in every status. The customer is created if it does
//	@Description	not exist.
//	@Tags			customers
//	@Produce		json
//	@Security		BearerAuth
//	@Param			email	path		string	true	"Customer email"
//	@Success		200		{object}	apicommon.SubscriptionsResponse
//	@Failure		400		{object}	errors.Error	"Invalid email"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/customers/{email}/subscriptions [get]
func (a *API) customerSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := a.validator.ValidateVar(email, "required,email"); err != nil {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	subs, err := a.service.GetCustomerSubscriptions(r.Context(), email).Await(r.Context())
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if subs == nil {
		subs = []*records.Subscription{}
	}
	apicommon.HTTPWriteJSON(w, &apicommon.SubscriptionsResponse{Subscriptions: subs})
}

// subscriptionHandler godoc
//
//	@Summary		Retrieve a subscription
//	@Tags			subscriptions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Subscription ID"
//	@Success		200	{object}	records.Subscription
//	@Failure		404	{object}	errors.Error	"Subscription not found"
//	@Failure		502	{object}	errors.Error	"Payment provider error"
//	@Router			/subscriptions/{id} [get]
func (a *API) subscriptionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		errors.ErrMalformedURLParam.With("missing subscription id").Write(w)
		return
	}
	sub, err := a.service.RetrieveSubscription(r.Context(), id).Await(r.Context())
	if err != nil {
		apiError(err).Write(w)
		return
	}
	if sub == nil {
		errors.ErrSubscriptionNotFound.Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, sub)
}

// createCheckoutHandler godoc
//
//	@Summary		Create a checkout session
//	@Description	Resolves the price and creates a subscription checkout session for the customer. The
//	@Description	customer completes the payment on the url of the session.
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		apicommon.CheckoutRequest	true	"Customer, price and redirect urls"
//	@Success		200		{object}	records.CheckoutSession
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment provider error"
//	@Router			/checkout [post]
func (a *API) createCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validatedModel[apicommon.CheckoutRequest](w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	price, err := a.service.GetOrCreatePrice(ctx, req.Price()).Await(ctx)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	session, err := a.service.CreateCheckoutSession(ctx, stripe.CheckoutRequest{
		CustomerEmail: req.Email,
		Price:         price.Record,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	}).Await(ctx)
	if err != nil {
		apiError(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, session)
}

// validatedModel returns the request body validated by the InputValidator
// middleware. If it is missing, an error is written and false is returned.
func validatedModel[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	model, ok := validator.GetValidatedModel(r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return nil, false
	}
	req, ok := model.(*T)
	if !ok {
		errors.ErrMalformedBody.Withf("unexpected request model %T", model).Write(w)
		return nil, false
	}
	return req, true
}
