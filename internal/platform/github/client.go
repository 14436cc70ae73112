// Package github provides authenticated GitHub API clients.
package github

import (
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewTokenClient creates a GitHub API client authenticated with a personal
// or workflow token.
func NewTokenClient(token string) *gogithub.Client {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	return gogithub.NewClient(httpClient).WithAuthToken(token)
}

// NewAppClient creates a GitHub API client authenticated as a GitHub App
// installation. The ghinstallation transport handles token renewal.
func NewAppClient(appID, installationID int64, privateKeyPEM string) (*gogithub.Client, error) {
	transport, err := ghinstallation.New(
		otelhttp.NewTransport(http.DefaultTransport),
		appID, installationID, []byte(privateKeyPEM),
	)
	if err != nil {
		return nil, fmt.Errorf("creating github installation transport: %w", err)
	}
	return gogithub.NewClient(&http.Client{Transport: transport}), nil
}
