package test

import (
	"context"
	"fmt"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// StripeMockImage is the image of the official Stripe API mock.
	StripeMockImage = "stripe/stripe-mock:latest"
	// StripeMockHTTPPort is the HTTP port served by stripe-mock.
	StripeMockHTTPPort = 12111
	// StripeMockAPIKey is accepted by stripe-mock, which checks only the
	// key format.
	StripeMockAPIKey = "sk_test_123"
)

// StartStripeMock starts a stripe-mock container. stripe-mock validates the
// requests against the Stripe OpenAPI specification and replies with fixture
// objects, so it checks the wire format of the calls but keeps no state.
func StartStripeMock(ctx context.Context) (testcontainers.Container, error) {
	exposedPort := fmt.Sprintf("%d/tcp", StripeMockHTTPPort)
	return testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        StripeMockImage,
				ExposedPorts: []string{exposedPort},
				WaitingFor:   wait.ForListeningPort(nat.Port(exposedPort)),
			},
			Started: true,
		})
}

// StripeMockURL returns the base url of the API served by a stripe-mock
// container.
func StripeMockURL(ctx context.Context, container testcontainers.Container) (string, error) {
	port, err := container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", StripeMockHTTPPort)))
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%s", host, port.Port()), nil
}
