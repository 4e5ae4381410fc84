package records

// PaymentMethodCard is the card summary of a card payment method.
type PaymentMethodCard struct {
	ExpMonth int64  `json:"exp_month" validate:"min=1,max=12"`
	ExpYear  int64  `json:"exp_year" validate:"min=1"`
	Last4    string `json:"last4" validate:"required,last4"`
}

// PaymentMethod is a Stripe payment method.
type PaymentMethod struct {
	ID       string             `json:"id" validate:"required"`
	Customer ID                 `json:"customer,omitempty"`
	Type     string             `json:"type" validate:"required"`
	Created  Timestamp          `json:"created" validate:"required"`
	Card     *PaymentMethodCard `json:"card,omitempty"`
}

// Matches reports whether the method is a card with the given expiration and
// last four digits.
func (m *PaymentMethod) Matches(expMonth, expYear int64, last4 string) bool {
	return m.Card != nil &&
		m.Card.ExpMonth == expMonth &&
		m.Card.ExpYear == expYear &&
		m.Card.Last4 == last4
}
