package stripe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/stripe-subscriptions/records"
)

// fakeStripe is an in-memory implementation of the resource clients used by
// Service. Its get-then-create sequences are not atomic, like the real API.
type fakeStripe struct {
	mu  sync.Mutex
	seq int64
	// delay is slept between reads and writes to widen races in tests.
	delay time.Duration

	customers      []*records.Customer
	paymentMethods []*records.PaymentMethod
	products       []*records.Product
	prices         []*records.Price
	subscriptions  []*records.Subscription

	created  map[string]int
	detached []string
	defaults map[string]string
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{created: map[string]int{}, defaults: map[string]string{}}
}

func (f *fakeStripe) clients() Clients {
	return Clients{
		Customers:      fakeCustomers{f},
		PaymentMethods: fakePaymentMethods{f},
		Products:       fakeProducts{f},
		Prices:         fakePrices{f},
		Subscriptions:  fakeSubscriptions{f},
	}
}

// next returns a new id and creation time. Callers hold the lock.
func (f *fakeStripe) next(prefix string) (string, records.Timestamp) {
	f.seq++
	f.created[prefix]++
	return fmt.Sprintf("%s_%d", prefix, f.seq), records.Unix(1700000000 + f.seq)
}

func (f *fakeStripe) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[prefix]
}

func (f *fakeStripe) addSubscription(customerID string, price *records.Price, status records.SubscriptionStatus,
) *records.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, created := f.next("sub")
	sub := &records.Subscription{
		ID:       id,
		Customer: records.ID(customerID),
		Status:   status,
		Created:  created,
		Items:    records.SubscriptionItems{{ID: "si_" + id, Quantity: 1, Price: *price}},
	}
	f.subscriptions = append(f.subscriptions, sub)
	return sub
}

func (f *fakeStripe) addPaymentMethod(customerID string, expMonth, expYear int64, last4 string,
) *records.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, created := f.next("pm")
	pm := &records.PaymentMethod{
		ID:       id,
		Customer: records.ID(customerID),
		Type:     paymentMethodTypeCard,
		Created:  created,
		Card:     &records.PaymentMethodCard{ExpMonth: expMonth, ExpYear: expYear, Last4: last4},
	}
	f.paymentMethods = append(f.paymentMethods, pm)
	return pm
}

type fakeCustomers struct{ f *fakeStripe }

func (c fakeCustomers) GetByEmail(_ context.Context, email string) (*records.Customer, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	for _, customer := range c.f.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, nil
}

func (c fakeCustomers) Create(_ context.Context, email string) (*records.Customer, error) {
	time.Sleep(c.f.delay)
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	id, created := c.f.next("cus")
	customer := &records.Customer{ID: id, Object: "customer", Email: email, Created: created}
	c.f.customers = append(c.f.customers, customer)
	return customer, nil
}

func (c fakeCustomers) SetDefaultPaymentMethod(_ context.Context, customerID, methodID string,
) (*records.Customer, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.defaults[customerID] = methodID
	for _, customer := range c.f.customers {
		if customer.ID == customerID {
			return customer, nil
		}
	}
	return nil, fmt.Errorf("no such customer: %s", customerID)
}

type fakePaymentMethods struct{ f *fakeStripe }

func (p fakePaymentMethods) Create(_ context.Context, card Card) (*records.PaymentMethod, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	id, created := p.f.next("pm")
	return &records.PaymentMethod{
		ID:      id,
		Type:    paymentMethodTypeCard,
		Created: created,
		Card:    &records.PaymentMethodCard{ExpMonth: card.ExpMonth, ExpYear: card.ExpYear, Last4: card.Last4()},
	}, nil
}

func (p fakePaymentMethods) List(_ context.Context, customerID string) ([]*records.PaymentMethod, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	var out []*records.PaymentMethod
	for _, pm := range p.f.paymentMethods {
		if pm.Customer.String() == customerID {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (p fakePaymentMethods) Attach(_ context.Context, method *records.PaymentMethod,
	customer *records.Customer,
) (*records.PaymentMethod, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	attached := *method
	attached.Customer = records.ID(customer.ID)
	p.f.paymentMethods = append(p.f.paymentMethods, &attached)
	return &attached, nil
}

func (p fakePaymentMethods) Detach(_ context.Context, methodID string) (*records.PaymentMethod, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	for _, pm := range p.f.paymentMethods {
		if pm.ID == methodID {
			pm.Customer = ""
			p.f.detached = append(p.f.detached, methodID)
			return pm, nil
		}
	}
	return nil, fmt.Errorf("no such payment method: %s", methodID)
}

type fakeProducts struct{ f *fakeStripe }

func (p fakeProducts) Create(_ context.Context, name string) (*records.Product, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	id, _ := p.f.next("prod")
	product := &records.Product{ID: id, Name: name, URL: records.ProductURL(name)}
	p.f.products = append(p.f.products, product)
	return product, nil
}

func (p fakeProducts) GetByName(_ context.Context, name string) (*records.Product, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	for _, product := range p.f.products {
		if product.URL == records.ProductURL(name) {
			return product, nil
		}
	}
	return nil, nil
}

type fakePrices struct{ f *fakeStripe }

func (p fakePrices) Create(_ context.Context, amount int64, product *records.Product,
	recurring records.PriceRecurring, currency records.Currency,
) (*records.Price, error) {
	time.Sleep(p.f.delay)
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	id, _ := p.f.next("price")
	price := &records.Price{
		ID:         id,
		UnitAmount: amount,
		Currency:   currency,
		Recurring:  &recurring,
		Product:    records.ID(product.ID),
		Active:     true,
		LookupKey:  product.Name,
	}
	p.f.prices = append(p.f.prices, price)
	return price, nil
}

func (p fakePrices) GetByLookupKey(_ context.Context, lookupKey string) (*records.Price, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	for _, price := range p.f.prices {
		if price.Active && price.LookupKey == lookupKey {
			return price, nil
		}
	}
	return nil, nil
}

type fakeSubscriptions struct{ f *fakeStripe }

func (s fakeSubscriptions) Create(_ context.Context, customer *records.Customer, price *records.Price,
) (*records.Subscription, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	id, created := s.f.next("sub")
	sub := &records.Subscription{
		ID:       id,
		Customer: records.ID(customer.ID),
		Status:   records.SubscriptionStatusActive,
		Created:  created,
		Items:    records.SubscriptionItems{{ID: "si_" + id, Quantity: 1, Price: *price}},
	}
	s.f.subscriptions = append(s.f.subscriptions, sub)
	return sub, nil
}

func (s fakeSubscriptions) ListByCustomer(_ context.Context, customerID string) ([]*records.Subscription, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*records.Subscription
	for _, sub := range s.f.subscriptions {
		if sub.Customer.String() == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s fakeSubscriptions) Retrieve(_ context.Context, subscriptionID string) (*records.Subscription, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, sub := range s.f.subscriptions {
		if sub.ID == subscriptionID {
			return sub, nil
		}
	}
	return nil, nil
}

func (s fakeSubscriptions) CreateCheckoutSession(_ context.Context, successURL, cancelURL string,
	customer *records.Customer, price *records.Price,
) (*records.CheckoutSession, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	id, _ := s.f.next("cs")
	amount := price.UnitAmount
	return &records.CheckoutSession{
		ID:          id,
		URL:         "https://checkout.example.com/" + id,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Customer:    records.ID(customer.ID),
		Status:      records.SessionStatusOpen,
		AmountTotal: &amount,
	}, nil
}
