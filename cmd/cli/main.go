// Package main provides a CLI tool that subscribes a customer to a recurring
// price on Stripe. Every step is a get-or-create operation, so running it
// twice with the same arguments creates nothing new:
// 1. resolves the customer by email
// 2. resolves the price (and its product) by name, amount and recurrence
// 3. resolves the card payment method of the customer, if a card is given
// 4. subscribes the customer unless its latest subscription to the price is
// active, or creates a checkout session if redirect urls are given
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/stripe-subscriptions/stripe"
	"go.vocdoni.io/dvote/log"
)

func main() {
	// Define command-line flags
	flag.StringP("email", "e", "", "customer email (required)")
	flag.StringP("product", "n", "", "product name (required)")
	flag.Int64P("amount", "a", 0, "price amount in cents")
	flag.Int64("recurringCount", stripe.DefaultRecurringCount, "number of billing periods")
	flag.Bool("yearly", false, "bill every year instead of every month")
	flag.String("cardNumber", "", "card number, the card step is skipped if empty")
	flag.Int64("expMonth", 0, "card expiration month")
	flag.Int64("expYear", 0, "card expiration year, two or four digits")
	flag.String("cvc", "", "card verification code")
	flag.String("successUrl", "", "checkout success url, a checkout session is created instead of a subscription")
	flag.String("cancelUrl", "", "checkout cancel url")
	flag.String("stripeApiSecret", "", "Stripe API secret key")
	flag.String("stripeApiUrl", "", "Stripe API url, to target a mock server")
	flag.Duration("timeout", time.Minute, "timeout of the whole flow")

	// Parse flags
	flag.Parse()

	// Initialize Viper for environment variable support
	viper.SetEnvPrefix("VOCDONI")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		log.Fatalf("could not bind flags: %v", err)
	}
	viper.AutomaticEnv()

	// Initialize logger
	log.Init("info", "stdout", nil)

	email := viper.GetString("email")
	product := viper.GetString("product")
	if email == "" {
		log.Fatal("email is required")
	}
	if product == "" {
		log.Fatal("product is required")
	}

	service, err := stripe.NewService(&stripe.Config{
		APIKey:            viper.GetString("stripeApiSecret"),
		APIURL:            viper.GetString("stripeApiUrl"),
		MaxNetworkRetries: stripe.DefaultMaxNetworkRetries,
	})
	if err != nil {
		log.Fatalf("could not create the Stripe service: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	customer, created, err := service.GetOrCreateCustomer(ctx, email)
	if err != nil {
		log.Fatalf("could not get customer: %v", err)
	}
	log.Infow("customer", "id", customer.ID, "email", customer.Email, "created", created)

	price, created, err := service.GetOrCreatePrice(ctx, stripe.PriceRequest{
		ProductName:    product,
		Amount:         viper.GetInt64("amount"),
		RecurringCount: viper.GetInt64("recurringCount"),
		Yearly:         viper.GetBool("yearly"),
	})
	if err != nil {
		log.Fatalf("could not get price: %v", err)
	}
	log.Infow("price", "id", price.ID, "lookupKey", price.LookupKey, "amount", price.UnitAmount, "created", created)

	if number := viper.GetString("cardNumber"); number != "" {
		method, created, err := service.GetOrCreatePaymentMethod(ctx, stripe.CardRequest{
			CustomerEmail: email,
			Number:        number,
			ExpMonth:      viper.GetInt64("expMonth"),
			ExpYear:       viper.GetInt64("expYear"),
			CVC:           viper.GetString("cvc"),
		})
		if err != nil {
			log.Fatalf("could not get payment method: %v", err)
		}
		log.Infow("payment method", "id", method.ID, "last4", method.Card.Last4, "created", created)
	}

	if successURL := viper.GetString("successUrl"); successURL != "" {
		session, err := service.CreateCheckoutSession(ctx, stripe.CheckoutRequest{
			CustomerEmail: email,
			Price:         price,
			SuccessURL:    successURL,
			CancelURL:     viper.GetString("cancelUrl"),
		})
		if err != nil {
			log.Fatalf("could not create checkout session: %v", err)
		}
		log.Infow("checkout session", "id", session.ID, "url", session.URL)
		return
	}

	sub, err := service.CreateSubscriptionIfNotExist(ctx, customer, price)
	switch {
	case errors.Is(err, stripe.ErrActiveSubscriptionExists):
		log.Infow("customer already subscribed", "error", err.Error())
	case err != nil:
		log.Fatalf("could not create subscription: %v", err)
	default:
		log.Infow("subscription created", "id", sub.ID, "status", sub.Status.String())
	}

	subs, err := service.GetCustomerSubscriptions(ctx, email)
	if err != nil {
		log.Fatalf("could not list subscriptions: %v", err)
	}
	out, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		log.Fatalf("could not encode subscriptions: %v", err)
	}
	fmt.Println(string(out))
}
