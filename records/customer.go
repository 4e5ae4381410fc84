package records

// Customer is a Stripe customer. Customers are looked up by email and the
// first match wins.
type Customer struct {
	ID          string         `json:"id" validate:"required"`
	Object      string         `json:"object"`
	Email       string         `json:"email" validate:"required"`
	Balance     int64          `json:"balance"`
	Created     Timestamp      `json:"created" validate:"required"`
	Name        string         `json:"name,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Address     map[string]any `json:"address,omitempty"`
	Description string         `json:"description,omitempty"`
	Currency    string         `json:"currency,omitempty"`
}

// Deleted is the acknowledgement returned when an object is deleted.
type Deleted struct {
	ID      string `json:"id" validate:"required"`
	Deleted bool   `json:"deleted"`
}
