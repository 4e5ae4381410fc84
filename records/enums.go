package records

import (
	"encoding/json"
	"fmt"
)

// Currency is the currency of a price. Only usd is supported.
type Currency int

const (
	CurrencyUSD Currency = iota + 1
)

// Interval is the billing cadence unit of a recurring price.
type Interval int

const (
	IntervalDay Interval = iota + 1
	IntervalWeek
	IntervalMonth
	IntervalYear
)

// SubscriptionStatus is the lifecycle state of a subscription as reported by
// Stripe.
type SubscriptionStatus int

const (
	SubscriptionStatusIncomplete SubscriptionStatus = iota + 1
	SubscriptionStatusIncompleteExpired
	SubscriptionStatusTrialing
	SubscriptionStatusActive
	SubscriptionStatusPastDue
	SubscriptionStatusCanceled
	SubscriptionStatusUnpaid
)

// CollectionMethod is how a subscription collects its invoices.
type CollectionMethod int

const (
	CollectionMethodChargeAutomatically CollectionMethod = iota + 1
	CollectionMethodSendInvoice
)

// PaymentStatus is the payment state of a checkout session.
type PaymentStatus int

const (
	PaymentStatusPaid PaymentStatus = iota + 1
	PaymentStatusUnpaid
	PaymentStatusNoPaymentRequired
)

// SessionStatus is the state of a checkout session.
type SessionStatus int

const (
	SessionStatusOpen SessionStatus = iota + 1
	SessionStatusComplete
	SessionStatusExpired
)

// wire names, indexed by enum value. Index 0 is the unset value.
var (
	currencyNames           = enumNames{"", "usd"}
	intervalNames           = enumNames{"", "day", "week", "month", "year"}
	subscriptionStatusNames = enumNames{
		"", "incomplete", "incomplete_expired", "trialing", "active", "past_due", "canceled", "unpaid",
	}
	collectionMethodNames = enumNames{"", "charge_automatically", "send_invoice"}
	paymentStatusNames    = enumNames{"", "paid", "unpaid", "no_payment_required"}
	sessionStatusNames    = enumNames{"", "open", "complete", "expired"}
)

type enumNames []string

func (n enumNames) name(v int) string {
	if v <= 0 || v >= len(n) {
		return ""
	}
	return n[v]
}

func (n enumNames) value(kind, s string) (int, error) {
	for i := 1; i < len(n); i++ {
		if n[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func marshalEnum(name string) ([]byte, error) {
	if name == "" {
		return []byte("null"), nil
	}
	return json.Marshal(name)
}

// unmarshalEnum decodes a JSON string into dst using parse. A JSON null
// leaves dst untouched.
func unmarshalEnum[T ~int](data []byte, dst *T, parse func(string) (T, error)) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (c Currency) String() string { return currencyNames.name(int(c)) }

// ParseCurrency returns the Currency named s.
func ParseCurrency(s string) (Currency, error) {
	v, err := currencyNames.value("currency", s)
	return Currency(v), err
}

func (c Currency) MarshalJSON() ([]byte, error) { return marshalEnum(c.String()) }

func (c *Currency) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, c, ParseCurrency)
}

func (i Interval) String() string { return intervalNames.name(int(i)) }

// ParseInterval returns the Interval named s.
func ParseInterval(s string) (Interval, error) {
	v, err := intervalNames.value("interval", s)
	return Interval(v), err
}

func (i Interval) MarshalJSON() ([]byte, error) { return marshalEnum(i.String()) }

func (i *Interval) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, i, ParseInterval)
}

func (s SubscriptionStatus) String() string { return subscriptionStatusNames.name(int(s)) }

// ParseSubscriptionStatus returns the SubscriptionStatus named s.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	v, err := subscriptionStatusNames.value("subscription status", s)
	return SubscriptionStatus(v), err
}

func (s SubscriptionStatus) MarshalJSON() ([]byte, error) { return marshalEnum(s.String()) }

func (s *SubscriptionStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseSubscriptionStatus)
}

func (m CollectionMethod) String() string { return collectionMethodNames.name(int(m)) }

// ParseCollectionMethod returns the CollectionMethod named s.
func ParseCollectionMethod(s string) (CollectionMethod, error) {
	v, err := collectionMethodNames.value("collection method", s)
	return CollectionMethod(v), err
}

func (m CollectionMethod) MarshalJSON() ([]byte, error) { return marshalEnum(m.String()) }

func (m *CollectionMethod) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, m, ParseCollectionMethod)
}

func (p PaymentStatus) String() string { return paymentStatusNames.name(int(p)) }

// ParsePaymentStatus returns the PaymentStatus named s.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	v, err := paymentStatusNames.value("payment status", s)
	return PaymentStatus(v), err
}

func (p PaymentStatus) MarshalJSON() ([]byte, error) { return marshalEnum(p.String()) }

func (p *PaymentStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, p, ParsePaymentStatus)
}

func (s SessionStatus) String() string { return sessionStatusNames.name(int(s)) }

// ParseSessionStatus returns the SessionStatus named s.
func ParseSessionStatus(s string) (SessionStatus, error) {
	v, err := sessionStatusNames.value("session status", s)
	return SessionStatus(v), err
}

func (s SessionStatus) MarshalJSON() ([]byte, error) { return marshalEnum(s.String()) }

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseSessionStatus)
}
