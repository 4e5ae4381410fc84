package api

import (
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/stripe-subscriptions/api/apicommon"
	"github.com/vocdoni/stripe-subscriptions/errors"
	"github.com/vocdoni/stripe-subscriptions/records"
)

// apiErrorBody is the body of an API error response.
type apiErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Data  []struct {
		Field string `json:"field"`
	} `json:"data"`
}

func assertAPIError(c *qt.C, body []byte, status int, expected errors.Error) {
	c.Helper()
	c.Assert(status, qt.Equals, expected.HTTPstatus, qt.Commentf("body: %s", body))
	var res apiErrorBody
	c.Assert(json.Unmarshal(body, &res), qt.IsNil)
	c.Assert(res.Code, qt.Equals, expected.Code)
}

func TestAuthentication(t *testing.T) {
	c := qt.New(t)

	body, status := testRequest(c, http.MethodGet, "", nil, pingEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.Equals, ".")

	body, status = testRequest(c, http.MethodPost, "", &apicommon.CustomerRequest{Email: "a@test.com"},
		customersEndpoint)
	assertAPIError(c, body, status, errors.ErrUnauthorized)

	body, status = testRequest(c, http.MethodPost, "not-a-token", &apicommon.CustomerRequest{Email: "a@test.com"},
		customersEndpoint)
	assertAPIError(c, body, status, errors.ErrUnauthorized)

	other := New(&Config{Secret: "other-secret"})
	foreign, err := other.Token("operator@test.com")
	c.Assert(err, qt.IsNil)
	body, status = testRequest(c, http.MethodPost, foreign.Token, &apicommon.CustomerRequest{Email: "a@test.com"},
		customersEndpoint)
	assertAPIError(c, body, status, errors.ErrUnauthorized)

	_, err = New(&Config{}).Token("operator@test.com")
	c.Assert(err, qt.ErrorIs, errors.ErrUnauthorized)
}

func TestCustomerEndpoints(t *testing.T) {
	c := qt.New(t)
	token := testToken(c)

	body, status := testRequest(c, http.MethodPost, token, &apicommon.CustomerRequest{Email: "alice@test.com"},
		customersEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var created apicommon.CustomerResponse
	c.Assert(json.Unmarshal(body, &created), qt.IsNil)
	c.Assert(created.Created, qt.IsTrue)
	c.Assert(created.Customer.Email, qt.Equals, "alice@test.com")

	body, status = testRequest(c, http.MethodPost, token, &apicommon.CustomerRequest{Email: "alice@test.com"},
		customersEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK)
	var found apicommon.CustomerResponse
	c.Assert(json.Unmarshal(body, &found), qt.IsNil)
	c.Assert(found.Created, qt.IsFalse)
	c.Assert(found.Customer.ID, qt.Equals, created.Customer.ID)

	body, status = testRequest(c, http.MethodPost, token, &apicommon.CustomerRequest{Email: "not-an-email"},
		customersEndpoint)
	assertAPIError(c, body, status, errors.ErrMalformedBody)
	var res apiErrorBody
	c.Assert(json.Unmarshal(body, &res), qt.IsNil)
	c.Assert(res.Data, qt.HasLen, 1)
	c.Assert(res.Data[0].Field, qt.Equals, "email")

	body, status = testRequest(c, http.MethodGet, token, nil, "/customers/not-an-email/subscriptions")
	assertAPIError(c, body, status, errors.ErrEmailMalformed)

	body, status = testRequest(c, http.MethodGet, token, nil, "/customers/nobody@test.com/subscriptions")
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var subs apicommon.SubscriptionsResponse
	c.Assert(json.Unmarshal(body, &subs), qt.IsNil)
	c.Assert(subs.Subscriptions, qt.HasLen, 0)
}

func TestPriceEndpoint(t *testing.T) {
	c := qt.New(t)
	token := testToken(c)
	req := &apicommon.PriceRequest{ProductName: "api premium", Amount: 990, RecurringCount: 12, Yearly: true}

	body, status := testRequest(c, http.MethodPost, token, req, pricesEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var created apicommon.PriceResponse
	c.Assert(json.Unmarshal(body, &created), qt.IsNil)
	c.Assert(created.Created, qt.IsTrue)
	c.Assert(created.Price.UnitAmount, qt.Equals, int64(990))
	c.Assert(created.Price.LookupKey, qt.Equals, "api premium_990_12_times_yearly")
	c.Assert(created.Price.Recurring.Interval, qt.Equals, records.IntervalYear)
	c.Assert(created.Price.Recurring.IntervalCount, qt.Equals, int64(12))

	body, status = testRequest(c, http.MethodPost, token, req, pricesEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK)
	var found apicommon.PriceResponse
	c.Assert(json.Unmarshal(body, &found), qt.IsNil)
	c.Assert(found.Created, qt.IsFalse)
	c.Assert(found.Price.ID, qt.Equals, created.Price.ID)

	body, status = testRequest(c, http.MethodPost, token, &apicommon.PriceRequest{Amount: 10}, pricesEndpoint)
	assertAPIError(c, body, status, errors.ErrMalformedBody)
}

func TestPaymentMethodEndpoint(t *testing.T) {
	c := qt.New(t)
	token := testToken(c)
	req := &apicommon.PaymentMethodRequest{
		Email:      "card@test.com",
		CardNumber: "4242 4242 4242 4242",
		ExpMonth:   8,
		ExpYear:    31,
		CVC:        "123",
	}

	body, status := testRequest(c, http.MethodPost, token, req, paymentMethodsEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var created apicommon.PaymentMethodResponse
	c.Assert(json.Unmarshal(body, &created), qt.IsNil)
	c.Assert(created.Created, qt.IsTrue)
	c.Assert(created.PaymentMethod.Card.ExpYear, qt.Equals, int64(2031))
	c.Assert(created.PaymentMethod.Card.Last4, qt.Equals, "4242")

	req.ExpYear = 2031
	body, status = testRequest(c, http.MethodPost, token, req, paymentMethodsEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK)
	var found apicommon.PaymentMethodResponse
	c.Assert(json.Unmarshal(body, &found), qt.IsNil)
	c.Assert(found.Created, qt.IsFalse)
	c.Assert(found.PaymentMethod.ID, qt.Equals, created.PaymentMethod.ID)

	req.ExpMonth = 13
	body, status = testRequest(c, http.MethodPost, token, req, paymentMethodsEndpoint)
	assertAPIError(c, body, status, errors.ErrMalformedBody)

	req.ExpMonth = 8
	req.CardNumber = "4242-4242"
	body, status = testRequest(c, http.MethodPost, token, req, paymentMethodsEndpoint)
	assertAPIError(c, body, status, errors.ErrMalformedBody)
}

func TestSubscriptionEndpoints(t *testing.T) {
	c := qt.New(t)
	token := testToken(c)
	req := &apicommon.SubscriptionRequest{
		Email:        "subscriber@test.com",
		PriceRequest: apicommon.PriceRequest{ProductName: "api basic", Amount: 500},
	}

	body, status := testRequest(c, http.MethodPost, token, req, subscriptionsEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var sub records.Subscription
	c.Assert(json.Unmarshal(body, &sub), qt.IsNil)
	c.Assert(sub.ID, qt.Not(qt.Equals), "")
	c.Assert(sub.Items, qt.HasLen, 1)

	// the customer has no default payment method, so the subscription is
	// incomplete and a new one can be created
	body, status = testRequest(c, http.MethodPost, token, req, subscriptionsEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var second records.Subscription
	c.Assert(json.Unmarshal(body, &second), qt.IsNil)
	c.Assert(second.ID, qt.Not(qt.Equals), sub.ID)

	testStripe.SetSubscriptionStatus(second.ID, "active")
	body, status = testRequest(c, http.MethodPost, token, req, subscriptionsEndpoint)
	assertAPIError(c, body, status, errors.ErrActiveSubscriptionExists)

	body, status = testRequest(c, http.MethodGet, token, nil, "/customers/subscriber@test.com/subscriptions")
	c.Assert(status, qt.Equals, http.StatusOK)
	var subs apicommon.SubscriptionsResponse
	c.Assert(json.Unmarshal(body, &subs), qt.IsNil)
	c.Assert(subs.Subscriptions, qt.HasLen, 2)
	c.Assert(subs.Subscriptions[0].ID, qt.Equals, second.ID)
	c.Assert(subs.Subscriptions[0].Active(), qt.IsTrue)

	body, status = testRequest(c, http.MethodGet, token, nil, "/subscriptions/"+sub.ID)
	c.Assert(status, qt.Equals, http.StatusOK)
	var retrieved records.Subscription
	c.Assert(json.Unmarshal(body, &retrieved), qt.IsNil)
	c.Assert(retrieved.ID, qt.Equals, sub.ID)
	c.Assert(retrieved.Created.Equal(sub.Created), qt.IsTrue)

	body, status = testRequest(c, http.MethodGet, token, nil, "/subscriptions/sub_999999")
	assertAPIError(c, body, status, errors.ErrStripeNotFound)
}

func TestCheckoutEndpoint(t *testing.T) {
	c := qt.New(t)
	token := testToken(c)
	req := &apicommon.CheckoutRequest{
		Email:        "checkout@test.com",
		PriceRequest: apicommon.PriceRequest{ProductName: "api checkout", Amount: 1200},
		SuccessURL:   "https://app.test.com/success",
		CancelURL:    "https://app.test.com/cancel",
	}

	body, status := testRequest(c, http.MethodPost, token, req, checkoutEndpoint)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var session records.CheckoutSession
	c.Assert(json.Unmarshal(body, &session), qt.IsNil)
	c.Assert(session.URL, qt.Not(qt.Equals), "")
	c.Assert(session.SuccessURL, qt.Equals, req.SuccessURL)
	c.Assert(*session.AmountTotal, qt.Equals, int64(1200))

	req.CancelURL = "not a url"
	body, status = testRequest(c, http.MethodPost, token, req, checkoutEndpoint)
	assertAPIError(c, body, status, errors.ErrMalformedBody)
}
