package records

import (
	"bytes"
	"encoding/json"
)

// SubscriptionItem is one line of a subscription.
type SubscriptionItem struct {
	ID                 string    `json:"id" validate:"required"`
	Quantity           int64     `json:"quantity"`
	Price              Price     `json:"price"`
	CurrentPeriodStart Timestamp `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   Timestamp `json:"current_period_end,omitempty"`
}

// SubscriptionItems is the list of items of a subscription. Stripe wraps it
// in a list envelope, which is removed when decoding. Plain arrays, as
// produced by MarshalJSON, are accepted too.
type SubscriptionItems []SubscriptionItem

func (items *SubscriptionItems) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var plain []SubscriptionItem
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*items = plain
		return nil
	}
	var envelope struct {
		Data []SubscriptionItem `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*items = envelope.Data
	return nil
}

// MarshalJSON encodes the items as a plain array.
func (items SubscriptionItems) MarshalJSON() ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]SubscriptionItem(items))
}

// Subscription is a Stripe subscription.
type Subscription struct {
	ID                   string             `json:"id" validate:"required"`
	Customer             ID                 `json:"customer" validate:"required"`
	DefaultPaymentMethod ID                 `json:"default_payment_method,omitempty"`
	DaysUntilDue         *int64             `json:"days_until_due,omitempty"`
	LatestInvoice        ID                 `json:"latest_invoice,omitempty"`
	Status               SubscriptionStatus `json:"status" validate:"required"`
	CollectionMethod     CollectionMethod   `json:"collection_method,omitempty"`
	Created              Timestamp          `json:"created" validate:"required"`
	StartDate            Timestamp          `json:"start_date,omitempty"`
	EndedAt              Timestamp          `json:"ended_at,omitempty"`
	CanceledAt           Timestamp          `json:"canceled_at,omitempty"`
	CurrentPeriodStart   Timestamp          `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     Timestamp          `json:"current_period_end,omitempty"`
	Items                SubscriptionItems  `json:"items" validate:"dive"`
}

// Active reports whether the subscription status is active.
func (s *Subscription) Active() bool {
	return s.Status == SubscriptionStatusActive
}

// ContainsPriceID reports whether any item of the subscription bills the
// given price.
func (s *Subscription) ContainsPriceID(priceID string) bool {
	for _, item := range s.Items {
		if item.Price.ID == priceID {
			return true
		}
	}
	return false
}

// PeriodStart returns the start of the current billing period. Recent API
// versions only report it on the items, in which case the first item is used.
func (s *Subscription) PeriodStart() Timestamp {
	if s.CurrentPeriodStart.IsZero() && len(s.Items) > 0 {
		return s.Items[0].CurrentPeriodStart
	}
	return s.CurrentPeriodStart
}

// PeriodEnd returns the end of the current billing period, falling back to
// the first item like PeriodStart.
func (s *Subscription) PeriodEnd() Timestamp {
	if s.CurrentPeriodEnd.IsZero() && len(s.Items) > 0 {
		return s.Items[0].CurrentPeriodEnd
	}
	return s.CurrentPeriodEnd
}
