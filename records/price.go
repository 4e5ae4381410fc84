package records

import "encoding/json"

// PriceRecurring is the charging cadence of a price.
type PriceRecurring struct {
	Interval      Interval `json:"interval" validate:"required"`
	IntervalCount int64    `json:"interval_count" validate:"min=1"`
}

// UnmarshalJSON decodes the recurring policy, defaulting to one month.
func (r *PriceRecurring) UnmarshalJSON(data []byte) error {
	type plain PriceRecurring
	out := plain{Interval: IntervalMonth, IntervalCount: 1}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = PriceRecurring(out)
	return nil
}

// Price is a Stripe price. Prices are immutable on Stripe, so changing the
// amount means replacing the price.
type Price struct {
	ID         string          `json:"id" validate:"required"`
	UnitAmount int64           `json:"unit_amount" validate:"min=0"`
	Currency   Currency        `json:"currency" validate:"required"`
	Recurring  *PriceRecurring `json:"recurring" validate:"required"`
	Product    ID              `json:"product" validate:"required"`
	Active     bool            `json:"active"`
	LookupKey  string          `json:"lookup_key,omitempty"`
}

// UnmarshalJSON decodes the price, defaulting to an active usd price.
func (p *Price) UnmarshalJSON(data []byte) error {
	type plain Price
	out := plain{Currency: CurrencyUSD, Active: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Price(out)
	return nil
}
