// Package config provides process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the runner needs from its environment. Deployment
// inputs themselves are resolved separately, with their own precedence rules.
type Config struct {
	GitHubToken string // personal/installation token for status reporting
	Repository  string // "owner/repo" of the triggering repository
	EventPath   string // path to the inbound event document
	LogLevel    string

	// Credential material (optional): raw kubeconfig contents, or a
	// base64-encoded variant decoded before use.
	KubeconfigFile       string
	KubeconfigFileBase64 string

	// GitHub App auth (optional, all three or none). Takes precedence over
	// the token when configured.
	GitHubAppID          int64
	GitHubInstallationID int64
	GitHubPrivateKey     string // PEM file contents

	// OpenTelemetry (optional)
	OTelEnabled bool
}

// Load reads configuration from environment variables and applies defaults.
// Nothing here is strictly required: a run without GitHub credentials just
// skips status reporting.
func Load() (Config, error) {
	cfg := Config{
		GitHubToken:          os.Getenv("GITHUB_TOKEN"),
		Repository:           os.Getenv("GITHUB_REPOSITORY"),
		EventPath:            os.Getenv("GITHUB_EVENT_PATH"),
		LogLevel:             "info",
		KubeconfigFile:       os.Getenv("KUBECONFIG_FILE"),
		KubeconfigFileBase64: os.Getenv("KUBECONFIG_FILE_BASE64"),
		OTelEnabled:          os.Getenv("OTEL_ENABLED") == "true",
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := loadAppAuth(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadAppAuth(cfg *Config) error {
	appID := os.Getenv("GITHUB_APP_ID")
	installID := os.Getenv("GITHUB_INSTALLATION_ID")
	key := os.Getenv("GITHUB_PRIVATE_KEY")

	if appID == "" && installID == "" && key == "" {
		return nil // app auth is optional
	}
	if appID == "" || installID == "" || key == "" {
		return errors.New("GITHUB_APP_ID, GITHUB_INSTALLATION_ID, and GITHUB_PRIVATE_KEY must be set together")
	}

	var err error
	cfg.GitHubAppID, err = parseInt64("GITHUB_APP_ID", appID)
	if err != nil {
		return err
	}
	cfg.GitHubInstallationID, err = parseInt64("GITHUB_INSTALLATION_ID", installID)
	if err != nil {
		return err
	}
	cfg.GitHubPrivateKey = key
	return nil
}

// HasAppAuth reports whether GitHub App installation auth is configured.
func (c Config) HasAppAuth() bool {
	return c.GitHubAppID != 0 && c.GitHubInstallationID != 0 && c.GitHubPrivateKey != ""
}

// OwnerRepo splits the "owner/repo" slug. Both parts are empty when the
// slug is absent or malformed.
func (c Config) OwnerRepo() (owner, repo string) {
	parts := strings.SplitN(c.Repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

func parseInt64(envKey, v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return id, nil
}
