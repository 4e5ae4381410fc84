package records

// CheckoutSession is a Stripe checkout session in subscription mode.
type CheckoutSession struct {
	ID            string        `json:"id" validate:"required"`
	URL           string        `json:"url" validate:"required"`
	CancelURL     string        `json:"cancel_url" validate:"required"`
	SuccessURL    string        `json:"success_url" validate:"required"`
	PaymentIntent ID            `json:"payment_intent,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	Status        SessionStatus `json:"status,omitempty"`
	Customer      ID            `json:"customer,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	AmountTotal   *int64        `json:"amount_total,omitempty"`
}
