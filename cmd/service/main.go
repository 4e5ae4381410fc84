package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/stripe-subscriptions/api"
	"github.com/vocdoni/stripe-subscriptions/stripe"
	"github.com/vocdoni/stripe-subscriptions/workers"
	"go.vocdoni.io/dvote/log"
)

// lockCleanupInterval is how often the unused per-key locks are released.
const lockCleanupInterval = 10 * time.Minute

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "API secret to sign JWT tokens, the API is public if empty")
	flag.StringP("logLevel", "l", "info", "log level (debug, info, warn, error)")
	flag.String("stripeApiSecret", "", "Stripe API secret key")
	flag.String("stripeApiUrl", "", "Stripe API url, to target a mock server")
	flag.Int64("stripeMaxRetries", stripe.DefaultMaxNetworkRetries, "network retries of failed Stripe requests")
	flag.Bool("stripeSerializeKeys", true, "serialize the get-or-create operations sharing a key")
	flag.IntP("workers", "w", workers.DefaultSize, "number of concurrent Stripe operations")
	flag.String("issueToken", "", "print a JWT token for the given subject and exit")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("VOCDONI")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	log.Init(viper.GetString("logLevel"), "stdout", nil)

	stripeConfig := &stripe.Config{
		APIKey:            viper.GetString("stripeApiSecret"),
		APIURL:            viper.GetString("stripeApiUrl"),
		MaxNetworkRetries: viper.GetInt64("stripeMaxRetries"),
		SerializeKeys:     viper.GetBool("stripeSerializeKeys"),
	}
	service, err := stripe.NewService(stripeConfig)
	if err != nil {
		log.Fatalf("could not create the Stripe service: %v", err)
	}
	pool := workers.New(viper.GetInt("workers"))
	defer pool.Stop()

	server := api.New(&api.Config{
		Host:    host,
		Port:    port,
		Secret:  secret,
		Service: stripe.NewAsyncService(service, pool),
	})
	if subject := viper.GetString("issueToken"); subject != "" {
		token, err := server.Token(subject)
		if err != nil {
			log.Fatalf("could not issue token: %v", err)
		}
		fmt.Println(token.Token)
		return
	}
	if secret == "" {
		log.Warn("no API secret configured, the API is public")
	}
	// start the API server
	server.Start()
	log.Infow("server started", "host", host, "port", port, "workers", pool.Size())

	ticker := time.NewTicker(lockCleanupInterval)
	defer ticker.Stop()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case <-ticker.C:
			service.CleanupLocks()
		case sig := <-c:
			log.Infow("shutting down", "signal", sig.String(), "pending", pool.Pending())
			return
		}
	}
}
