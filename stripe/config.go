package stripe

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultMaxNetworkRetries is the number of times stripe-go retries a request
// that failed with a retryable error.
const DefaultMaxNetworkRetries = 2

// Config holds the Stripe configuration of a Service. The API key is bound to
// every call made through the service.
type Config struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	// APIURL overrides the Stripe API base url, e.g. to target a mock.
	APIURL            string `yaml:"api_url" json:"api_url"`
	MaxNetworkRetries int64  `yaml:"max_network_retries" json:"max_network_retries"`
	// SerializeKeys serializes the check-then-create workflows that share a
	// key (email, price key) within this process.
	SerializeKeys bool `yaml:"serialize_keys" json:"serialize_keys"`
}

// NewConfig creates a new Stripe configuration from environment variables
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("VOCDONI_STRIPEAPISECRET")
	if apiKey == "" {
		return nil, fmt.Errorf("VOCDONI_STRIPEAPISECRET environment variable is required")
	}

	retries, err := strconv.ParseInt(getEnvOrDefault("VOCDONI_STRIPEMAXRETRIES",
		strconv.Itoa(DefaultMaxNetworkRetries)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VOCDONI_STRIPEMAXRETRIES: %w", err)
	}

	serialize, err := strconv.ParseBool(getEnvOrDefault("VOCDONI_STRIPESERIALIZEKEYS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid VOCDONI_STRIPESERIALIZEKEYS: %w", err)
	}

	config := &Config{
		APIKey:            apiKey,
		APIURL:            os.Getenv("VOCDONI_STRIPEAPIURL"),
		MaxNetworkRetries: retries,
		SerializeKeys:     serialize,
	}
	return config, config.Validate()
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return NewStripeError(ErrInvalidConfiguration.Code, "api key is required", nil)
	}
	if c.MaxNetworkRetries < 0 {
		return NewStripeError(ErrInvalidConfiguration.Code, "max network retries cannot be negative", nil)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
