package apicommon

import (
	"time"

	"github.com/vocdoni/stripe-subscriptions/records"
	"github.com/vocdoni/stripe-subscriptions/stripe"
)

// CustomerRequest identifies a customer by email.
type CustomerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CustomerResponse is the customer resolved by a get-or-create request.
type CustomerResponse struct {
	Customer *records.Customer `json:"customer"`
	Created  bool              `json:"created"`
}

// PriceRequest describes a recurring price. RecurringCount defaults to 1000
// billing periods and the billing period is a month unless Yearly is set.
type PriceRequest struct {
	ProductName    string `json:"productName" validate:"required,max=200"`
	Amount         int64  `json:"amount" validate:"min=0"`
	RecurringCount int64  `json:"recurringCount,omitempty" validate:"min=0"`
	Yearly         bool   `json:"yearly,omitempty"`
}

// Price returns the request of the stripe service.
func (p PriceRequest) Price() stripe.PriceRequest {
	return stripe.PriceRequest{
		ProductName:    p.ProductName,
		Amount:         p.Amount,
		RecurringCount: p.RecurringCount,
		Yearly:         p.Yearly,
	}
}

// PriceResponse is the price resolved by a get-or-create request.
type PriceResponse struct {
	Price   *records.Price `json:"price"`
	Created bool           `json:"created"`
}

// PaymentMethodRequest describes a card of a customer. The expiration year
// may have two digits.
type PaymentMethodRequest struct {
	Email      string `json:"email" validate:"required,email"`
	CardNumber string `json:"cardNumber" validate:"required,cardnumber"`
	ExpMonth   int64  `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear    int64  `json:"expYear" validate:"required,min=1"`
	CVC        string `json:"cvc,omitempty" validate:"omitempty,numeric,min=3,max=4"`
}

// Card returns the request of the stripe service.
func (p PaymentMethodRequest) Card() stripe.CardRequest {
	return stripe.CardRequest{
		CustomerEmail: p.Email,
		Number:        p.CardNumber,
		ExpMonth:      p.ExpMonth,
		ExpYear:       p.ExpYear,
		CVC:           p.CVC,
	}
}

// PaymentMethodResponse is the payment method resolved by a get-or-create
// request.
type PaymentMethodResponse struct {
	PaymentMethod *records.PaymentMethod `json:"paymentMethod"`
	Created       bool                   `json:"created"`
}

// SubscriptionRequest subscribes a customer to a price, which is created if
// needed.
type SubscriptionRequest struct {
	Email string `json:"email" validate:"required,email"`
	PriceRequest
}

// SubscriptionsResponse lists the subscriptions of a customer.
type SubscriptionsResponse struct {
	Subscriptions []*records.Subscription `json:"subscriptions"`
}

// CheckoutRequest creates a checkout session subscribing a customer to a
// price, which is created if needed.
type CheckoutRequest struct {
	Email string `json:"email" validate:"required,email"`
	PriceRequest
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
}

// TokenResponse holds a JWT token issued for an API operator.
type TokenResponse struct {
	Token    string    `json:"token"`
	Expirity time.Time `json:"expirity"`
}
