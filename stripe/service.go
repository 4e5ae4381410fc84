// Package stripe provides get-or-create operations over the Stripe API for
// customers, prices, payment methods and subscriptions. Every operation reads
// the current state from Stripe; nothing is cached between calls.
package stripe

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vocdoni/stripe-subscriptions/records"
	"go.vocdoni.io/dvote/log"
)

const (
	// DefaultRecurringCount is the number of billing periods of a price when
	// the request does not set one.
	DefaultRecurringCount = 1000

	// twoDigitYearBase is added to card expiration years below 100.
	twoDigitYearBase = 2000
)

// CustomerAPI is the subset of the customer operations used by Service.
type CustomerAPI interface {
	GetByEmail(ctx context.Context, email string) (*records.Customer, error)
	Create(ctx context.Context, email string) (*records.Customer, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) (*records.Customer, error)
}

// PaymentMethodAPI is the subset of the payment method operations used by
// Service.
type PaymentMethodAPI interface {
	Create(ctx context.Context, card Card) (*records.PaymentMethod, error)
	List(ctx context.Context, customerID string) ([]*records.PaymentMethod, error)
	Attach(ctx context.Context, method *records.PaymentMethod, customer *records.Customer) (*records.PaymentMethod, error)
	Detach(ctx context.Context, methodID string) (*records.PaymentMethod, error)
}

// ProductAPI is the subset of the product operations used by Service.
type ProductAPI interface {
	Create(ctx context.Context, name string) (*records.Product, error)
	GetByName(ctx context.Context, name string) (*records.Product, error)
}

// PriceAPI is the subset of the price operations used by Service.
type PriceAPI interface {
	Create(ctx context.Context, amount int64, product *records.Product,
		recurring records.PriceRecurring, currency records.Currency) (*records.Price, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*records.Price, error)
}

// SubscriptionAPI is the subset of the subscription operations used by
// Service.
type SubscriptionAPI interface {
	Create(ctx context.Context, customer *records.Customer, price *records.Price) (*records.Subscription, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*records.Subscription, error)
	Retrieve(ctx context.Context, subscriptionID string) (*records.Subscription, error)
	CreateCheckoutSession(ctx context.Context, successURL, cancelURL string,
		customer *records.Customer, price *records.Price) (*records.CheckoutSession, error)
}

// Clients holds the resource clients a Service is built on.
type Clients struct {
	Customers      CustomerAPI
	PaymentMethods PaymentMethodAPI
	Products       ProductAPI
	Prices         PriceAPI
	Subscriptions  SubscriptionAPI
}

// Operations are the workflows offered by Service. AsyncService runs them on a
// worker pool.
type Operations interface {
	GetOrCreateCustomer(ctx context.Context, email string) (*records.Customer, bool, error)
	GetOrCreatePrice(ctx context.Context, req PriceRequest) (*records.Price, bool, error)
	GetOrCreatePaymentMethod(ctx context.Context, req CardRequest) (*records.PaymentMethod, bool, error)
	CreateSubscriptionIfNotExist(ctx context.Context, customer *records.Customer,
		price *records.Price) (*records.Subscription, error)
	GetCustomerSubscriptions(ctx context.Context, email string) ([]*records.Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*records.Subscription, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*records.CheckoutSession, error)
}

// PriceRequest describes a recurring price. Two requests with the same fields
// always resolve to the same price.
type PriceRequest struct {
	ProductName string
	Amount      int64
	// RecurringCount is the number of billing periods, DefaultRecurringCount
	// if zero.
	RecurringCount int64
	// Yearly bills every year instead of every month.
	Yearly bool
}

// Key returns the composite key of the price, used both as the price lookup
// key and as the name of its product:
// {name}_{amount}_{count}_times_{yearly|monthly}.
func (r PriceRequest) Key() string {
	count := r.RecurringCount
	if count == 0 {
		count = DefaultRecurringCount
	}
	cadence := "monthly"
	if r.Yearly {
		cadence = "yearly"
	}
	return fmt.Sprintf("%s_%d_%d_times_%s", r.ProductName, r.Amount, count, cadence)
}

// Recurring returns the recurring policy of the price.
func (r PriceRequest) Recurring() records.PriceRecurring {
	recurring := records.PriceRecurring{
		Interval:      records.IntervalMonth,
		IntervalCount: r.RecurringCount,
	}
	if recurring.IntervalCount == 0 {
		recurring.IntervalCount = DefaultRecurringCount
	}
	if r.Yearly {
		recurring.Interval = records.IntervalYear
	}
	return recurring
}

// CardRequest describes a card payment method of a customer.
type CardRequest struct {
	CustomerEmail string
	Number        string
	ExpMonth      int64
	// ExpYear may have two digits, in which case 2000 is added.
	ExpYear int64
	CVC     string
}

// Card returns the card with its number cleaned and its year normalized.
func (r CardRequest) Card() Card {
	year := r.ExpYear
	if year < 100 {
		year += twoDigitYearBase
	}
	return Card{
		Number:   strings.ReplaceAll(r.Number, " ", ""),
		ExpMonth: r.ExpMonth,
		ExpYear:  year,
		CVC:      r.CVC,
	}
}

// Last4 returns the last four digits of the card number.
func (c Card) Last4() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// CheckoutRequest describes a checkout session for a customer and a price.
type CheckoutRequest struct {
	CustomerEmail string
	Price         *records.Price
	SuccessURL    string
	CancelURL     string
}

// Service implements the get-or-create workflows on top of the resource
// clients.
type Service struct {
	customers      CustomerAPI
	paymentMethods PaymentMethodAPI
	products       ProductAPI
	prices         PriceAPI
	subscriptions  SubscriptionAPI
	lockManager    *LockManager
}

var _ Operations = (*Service)(nil)

// NewService creates a new Stripe service bound to the API key of config.
func NewService(config *Config) (*Service, error) {
	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	var locks *LockManager
	if config.SerializeKeys {
		locks = NewLockManager()
	}
	return NewServiceWithClients(Clients{
		Customers:      client.Customers,
		PaymentMethods: client.PaymentMethods,
		Products:       client.Products,
		Prices:         client.Prices,
		Subscriptions:  client.Subscriptions,
	}, locks), nil
}

// NewServiceWithClients creates a service on the given clients. If locks is
// not nil, workflows on the same key are serialized.
func NewServiceWithClients(clients Clients, locks *LockManager) *Service {
	return &Service{
		customers:      clients.Customers,
		paymentMethods: clients.PaymentMethods,
		products:       clients.Products,
		prices:         clients.Prices,
		subscriptions:  clients.Subscriptions,
		lockManager:    locks,
	}
}

// CleanupLocks releases the memory of the per-key locks that are not held. It
// does nothing if serialization is disabled.
func (s *Service) CleanupLocks() {
	if s.lockManager != nil {
		s.lockManager.CleanupLocks()
	}
}

// lock acquires the lock of key if serialization is enabled.
func (s *Service) lock(kind, key string) func() {
	if s.lockManager == nil {
		return func() {}
	}
	return s.lockManager.Lock(kind + ":" + key)
}

// GetOrCreateCustomer returns the first customer with the given email,
// creating one if there is none. The boolean reports whether it was created.
func (s *Service) GetOrCreateCustomer(ctx context.Context, email string) (*records.Customer, bool, error) {
	unlock := s.lock("customer", email)
	defer unlock()
	return s.getOrCreateCustomer(ctx, email)
}

func (s *Service) getOrCreateCustomer(ctx context.Context, email string) (*records.Customer, bool, error) {
	if email == "" {
		return nil, false, NewStripeError(ErrInvalidRequest.Code, "customer email is required", nil)
	}
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if customer != nil {
		log.Debugw("stripe customer found", "email", email, "customer", customer.ID)
		return customer, false, nil
	}
	customer, err = s.customers.Create(ctx, email)
	if err != nil {
		return nil, false, err
	}
	log.Debugw("stripe customer created", "email", email, "customer", customer.ID)
	return customer, true, nil
}

// GetOrCreatePrice returns the price identified by the request key, creating
// it (and its product, if needed) when there is none. The boolean reports
// whether the price was created.
func (s *Service) GetOrCreatePrice(ctx context.Context, req PriceRequest) (*records.Price, bool, error) {
	if req.ProductName == "" {
		return nil, false, NewStripeError(ErrInvalidRequest.Code, "product name is required", nil)
	}
	key := req.Key()
	unlock := s.lock("price", key)
	defer unlock()

	price, err := s.prices.GetByLookupKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if price != nil {
		log.Debugw("stripe price found", "key", key, "price", price.ID)
		return price, false, nil
	}

	product, err := s.products.GetByName(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		if product, err = s.products.Create(ctx, key); err != nil {
			return nil, false, err
		}
		log.Debugw("stripe product created", "name", key, "product", product.ID)
	}

	price, err = s.prices.Create(ctx, req.Amount, product, req.Recurring(), records.CurrencyUSD)
	if err != nil {
		return nil, false, err
	}
	log.Debugw("stripe price created", "key", key, "price", price.ID, "product", product.ID)
	return price, true, nil
}

// GetOrCreatePaymentMethod returns the card payment method of the customer
// matching the expiration and the last four digits of the card, creating,
// attaching and setting it as default for invoices when there is none. When
// several methods match, the newest one is returned and the older ones are
// detached. The boolean reports whether the method was created.
func (s *Service) GetOrCreatePaymentMethod(ctx context.Context, req CardRequest,
) (*records.PaymentMethod, bool, error) {
	unlock := s.lock("paymentmethod", req.CustomerEmail)
	defer unlock()

	customer, _, err := s.GetOrCreateCustomer(ctx, req.CustomerEmail)
	if err != nil {
		return nil, false, err
	}
	methods, err := s.paymentMethods.List(ctx, customer.ID)
	if err != nil {
		return nil, false, err
	}

	card := req.Card()
	var matches []*records.PaymentMethod
	for _, method := range methods {
		if method.Matches(card.ExpMonth, card.ExpYear, card.Last4()) {
			matches = append(matches, method)
		}
	}

	if len(matches) > 0 {
		slices.SortStableFunc(matches, func(a, b *records.PaymentMethod) int {
			return b.Created.Compare(a.Created.Time)
		})
		newest := matches[0]
		for _, duplicate := range matches[1:] {
			if _, err := s.paymentMethods.Detach(ctx, duplicate.ID); err != nil {
				return nil, false, fmt.Errorf("could not detach duplicate payment method %s: %w", duplicate.ID, err)
			}
			log.Debugw("stripe duplicate payment method detached",
				"customer", customer.ID, "method", duplicate.ID, "kept", newest.ID)
		}
		log.Debugw("stripe payment method found", "customer", customer.ID, "method", newest.ID)
		return newest, false, nil
	}

	method, err := s.paymentMethods.Create(ctx, card)
	if err != nil {
		return nil, false, err
	}
	attached, err := s.paymentMethods.Attach(ctx, method, customer)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.customers.SetDefaultPaymentMethod(ctx, customer.ID, attached.ID); err != nil {
		return nil, false, err
	}
	log.Debugw("stripe payment method created", "customer", customer.ID, "method", attached.ID)
	return attached, true, nil
}

// CreateSubscriptionIfNotExist subscribes the customer to the price unless the
// most recent subscription of the customer to that price is active, in which
// case ErrActiveSubscriptionExists is returned and nothing is created. Older
// subscriptions are ignored and never canceled.
func (s *Service) CreateSubscriptionIfNotExist(ctx context.Context, customer *records.Customer,
	price *records.Price,
) (*records.Subscription, error) {
	if customer == nil || price == nil {
		return nil, NewStripeError(ErrInvalidRequest.Code, "customer and price are required", nil)
	}
	unlock := s.lock("subscription", customer.ID+":"+price.ID)
	defer unlock()

	subscriptions, err := s.subscriptions.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	var latest *records.Subscription
	for _, sub := range subscriptions {
		if !sub.ContainsPriceID(price.ID) {
			continue
		}
		if latest == nil || sub.Created.After(latest.Created.Time) {
			latest = sub
		}
	}
	if latest != nil && latest.Active() {
		log.Debugw("stripe active subscription found",
			"customer", customer.ID, "price", price.ID, "subscription", latest.ID)
		return nil, fmt.Errorf("subscription %s: %w", latest.ID, ErrActiveSubscriptionExists)
	}

	sub, err := s.subscriptions.Create(ctx, customer, price)
	if err != nil {
		return nil, err
	}
	log.Debugw("stripe subscription created",
		"customer", customer.ID, "price", price.ID, "subscription", sub.ID, "status", sub.Status.String())
	return sub, nil
}

// GetCustomerSubscriptions lists the subscriptions of the customer with the
// given email. The customer is created if it does not exist.
func (s *Service) GetCustomerSubscriptions(ctx context.Context, email string) ([]*records.Subscription, error) {
	customer, _, err := s.GetOrCreateCustomer(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.subscriptions.ListByCustomer(ctx, customer.ID)
}

// RetrieveSubscription retrieves a subscription by ID, nil if Stripe returns
// no object.
func (s *Service) RetrieveSubscription(ctx context.Context, subscriptionID string) (*records.Subscription, error) {
	return s.subscriptions.Retrieve(ctx, subscriptionID)
}

// CreateCheckoutSession creates a checkout session subscribing the customer
// with the given email to the price. The customer is created if it does not
// exist.
func (s *Service) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*records.CheckoutSession, error) {
	if req.Price == nil {
		return nil, NewStripeError(ErrInvalidRequest.Code, "price is required", nil)
	}
	customer, _, err := s.GetOrCreateCustomer(ctx, req.CustomerEmail)
	if err != nil {
		return nil, err
	}
	session, err := s.subscriptions.CreateCheckoutSession(ctx, req.SuccessURL, req.CancelURL, customer, req.Price)
	if err != nil {
		return nil, err
	}
	log.Debugw("stripe checkout session created",
		"customer", customer.ID, "price", req.Price.ID, "session", session.ID)
	return session, nil
}
