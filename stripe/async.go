package stripe

import (
	"context"
	"sync"

	"github.com/vocdoni/stripe-subscriptions/records"
	"github.com/vocdoni/stripe-subscriptions/workers"
)

// Result is the outcome of a get-or-create operation.
type Result[T any] struct {
	Record  *T
	Created bool
}

// Future holds the result of an operation running on a worker pool.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve sets the result. Only the first call has effect.
func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result. If ctx ends first, its error is returned; the
// operation itself keeps running with the context it was submitted with.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AsyncService runs the operations of a service on a worker pool. Results,
// errors and side effects are those of the synchronous call. The pool is
// owned by the caller, who must stop it.
type AsyncService struct {
	ops  Operations
	pool *workers.Pool
}

// NewAsyncService creates an AsyncService running ops on pool.
func NewAsyncService(ops Operations, pool *workers.Pool) *AsyncService {
	return &AsyncService{ops: ops, pool: pool}
}

// submit runs fn on the pool and returns its future. If the task cannot run,
// the future fails with the reason.
func submit[T any](pool *workers.Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	fail := func(err error) {
		var zero T
		f.resolve(zero, err)
	}
	if err := pool.Submit(func() { f.resolve(fn()) }, fail); err != nil {
		fail(err)
	}
	return f
}

func result[T any](record *T, created bool, err error) (Result[T], error) {
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Record: record, Created: created}, nil
}

// GetOrCreateCustomer runs Service.GetOrCreateCustomer on the pool.
func (a *AsyncService) GetOrCreateCustomer(ctx context.Context, email string) *Future[Result[records.Customer]] {
	return submit(a.pool, func() (Result[records.Customer], error) {
		return result[records.Customer](a.ops.GetOrCreateCustomer(ctx, email))
	})
}

// GetOrCreatePrice runs Service.GetOrCreatePrice on the pool.
func (a *AsyncService) GetOrCreatePrice(ctx context.Context, req PriceRequest) *Future[Result[records.Price]] {
	return submit(a.pool, func() (Result[records.Price], error) {
		return result[records.Price](a.ops.GetOrCreatePrice(ctx, req))
	})
}

// GetOrCreatePaymentMethod runs Service.GetOrCreatePaymentMethod on the pool.
func (a *AsyncService) GetOrCreatePaymentMethod(ctx context.Context, req CardRequest,
) *Future[Result[records.PaymentMethod]] {
	return submit(a.pool, func() (Result[records.PaymentMethod], error) {
		return result[records.PaymentMethod](a.ops.GetOrCreatePaymentMethod(ctx, req))
	})
}

// CreateSubscriptionIfNotExist runs Service.CreateSubscriptionIfNotExist on the
// pool.
func (a *AsyncService) CreateSubscriptionIfNotExist(ctx context.Context, customer *records.Customer,
	price *records.Price,
) *Future[*records.Subscription] {
	return submit(a.pool, func() (*records.Subscription, error) {
		return a.ops.CreateSubscriptionIfNotExist(ctx, customer, price)
	})
}

// GetCustomerSubscriptions runs Service.GetCustomerSubscriptions on the pool.
func (a *AsyncService) GetCustomerSubscriptions(ctx context.Context, email string) *Future[[]*records.Subscription] {
	return submit(a.pool, func() ([]*records.Subscription, error) {
		return a.ops.GetCustomerSubscriptions(ctx, email)
	})
}

// RetrieveSubscription runs Service.RetrieveSubscription on the pool.
func (a *AsyncService) RetrieveSubscription(ctx context.Context, subscriptionID string,
) *Future[*records.Subscription] {
	return submit(a.pool, func() (*records.Subscription, error) {
		return a.ops.RetrieveSubscription(ctx, subscriptionID)
	})
}

// CreateCheckoutSession runs Service.CreateCheckoutSession on the pool.
func (a *AsyncService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest,
) *Future[*records.CheckoutSession] {
	return submit(a.pool, func() (*records.CheckoutSession, error) {
		return a.ops.CreateCheckoutSession(ctx, req)
	})
}
