// Package api provides the HTTP API of the subscription service
//
//	@title						Stripe Subscriptions API
//	@version					1.0
//	@description				Get-or-create operations over Stripe customers, prices, payment methods and subscriptions
//
//	@contact.name				API Support
//	@contact.url				https://vocdoni.io
//	@contact.email				info@vocdoni.io
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8080
//	@BasePath					/
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT token.
//
//	@tag.name					customers
//	@tag.description			Customer operations
//
//	@tag.name					prices
//	@tag.description			Price operations
//
//	@tag.name					subscriptions
//	@tag.description			Subscription and checkout operations
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/vocdoni/stripe-subscriptions/api/apicommon"
	"github.com/vocdoni/stripe-subscriptions/stripe"
	"github.com/vocdoni/stripe-subscriptions/validator"
	"go.vocdoni.io/dvote/log"
)

// Config holds the configuration of the API.
type Config struct {
	Host string
	Port int
	// Secret signs the JWT tokens. If empty, the API is public.
	Secret string
	// Service runs the Stripe operations. Its worker pool is owned by the
	// caller.
	Service *stripe.AsyncService
}

// API type represents the API HTTP server with optional JWT authentication.
type API struct {
	auth      *jwtauth.JWTAuth
	host      string
	port      int
	router    *chi.Mux
	service   *stripe.AsyncService
	validator *validator.Validator
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	a := &API{
		host:      conf.Host,
		port:      conf.Port,
		service:   conf.Service,
		validator: validator.New(),
	}
	if conf.Secret != "" {
		a.auth = jwtauth.New("HS256", []byte(conf.Secret), nil)
	}
	a.router = a.initRouter()
	return a
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// Router returns the HTTP handler of the API.
func (a *API) Router() http.Handler {
	return a.router
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() *chi.Mux {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.Timeout(45 * time.Second))

	// Public routes
	r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		apicommon.HTTPWriteOK(w)
	})

	// Stripe routes, protected when a secret is configured
	r.Group(func(r chi.Router) {
		if a.auth != nil {
			// seek, verify and validate JWT tokens
			r.Use(jwtauth.Verifier(a.auth))
			// handle valid JWT tokens
			r.Use(a.authenticator)
		}
		// get or create a customer
		log.Infow("new route", "method", "POST", "path", customersEndpoint)
		r.With(a.validateInputModel(apicommon.CustomerRequest{}), a.InputValidator).
			Post(customersEndpoint, a.createCustomerHandler)
		// list the subscriptions of a customer
		log.Infow("new route", "method", "GET", "path", customerSubscriptionsEndpoint)
		r.Get(customerSubscriptionsEndpoint, a.customerSubscriptionsHandler)
		// get or create a price
		log.Infow("new route", "method", "POST", "path", pricesEndpoint)
		r.With(a.validateInputModel(apicommon.PriceRequest{}), a.InputValidator).
			Post(pricesEndpoint, a.createPriceHandler)
		// get or create a payment method
		log.Infow("new route", "method", "POST", "path", paymentMethodsEndpoint)
		r.With(a.validateInputModel(apicommon.PaymentMethodRequest{}), a.InputValidator).
			Post(paymentMethodsEndpoint, a.createPaymentMethodHandler)
		// subscribe a customer to a price
		log.Infow("new route", "method", "POST", "path", subscriptionsEndpoint)
		r.With(a.validateInputModel(apicommon.SubscriptionRequest{}), a.InputValidator).
			Post(subscriptionsEndpoint, a.createSubscriptionHandler)
		// retrieve a subscription
		log.Infow("new route", "method", "GET", "path", subscriptionEndpoint)
		r.Get(subscriptionEndpoint, a.subscriptionHandler)
		// create a checkout session
		log.Infow("new route", "method", "POST", "path", checkoutEndpoint)
		r.With(a.validateInputModel(apicommon.CheckoutRequest{}), a.InputValidator).
			Post(checkoutEndpoint, a.createCheckoutHandler)
	})
	return r
}
