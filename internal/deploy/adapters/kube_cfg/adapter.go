// Package kubecfg manages the local credential document: persisting
// environment-supplied kubeconfig material and injecting an ephemeral
// bearer-token identity for the tool variant without native token support.
package kubecfg

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// OutputPath is the fixed-name derived credential file in the working
// directory. Both material persistence and token injection write here.
const OutputPath = "./kubeconfig.yml"

// injectedUser is the deterministic name of the appended identity.
const injectedUser = "helm-deploy"

// Inline maps preserve sections this rewrite does not touch (clusters,
// current-context, preferences) across the round trip.
type document struct {
	Contexts []contextEntry `yaml:"contexts"`
	Users    []userEntry    `yaml:"users,omitempty"`
	Rest     map[string]any `yaml:",inline"`
}

type contextEntry struct {
	Name    string         `yaml:"name"`
	Context contextDetails `yaml:"context"`
}

type contextDetails struct {
	User string         `yaml:"user"`
	Rest map[string]any `yaml:",inline"`
}

type userEntry struct {
	Name string         `yaml:"name"`
	User map[string]any `yaml:"user"`
}

// Adapter implements ports.KubeconfigPort.
type Adapter struct {
	raw     string // raw credential-file contents from the environment
	encoded string // base64-encoded variant, used when raw is empty
	logger  *slog.Logger
}

// New creates the adapter with the environment-supplied credential
// material, either of which may be empty.
func New(raw, encoded string, logger *slog.Logger) *Adapter {
	return &Adapter{raw: raw, encoded: encoded, logger: logger}
}

// WriteMaterial persists the supplied credential contents to OutputPath and
// reports whether anything was written. Decodes the base64 variant when the
// raw one is absent.
func (a *Adapter) WriteMaterial() (string, bool, error) {
	data := []byte(a.raw)
	if len(data) == 0 {
		if a.encoded == "" {
			return "", false, nil
		}
		decoded, err := base64.StdEncoding.DecodeString(a.encoded)
		if err != nil {
			return "", false, fmt.Errorf("decoding credential material: %w", err)
		}
		data = decoded
	}

	if err := os.WriteFile(OutputPath, data, 0o600); err != nil {
		return "", false, fmt.Errorf("writing credential file: %w", err)
	}
	a.logger.Info("wrote credential file from environment material", "path", OutputPath)
	return OutputPath, true, nil
}

// InjectToken rewrites the credential document at path (default location
// under the user's home directory when empty) with one appended identity
// carrying the raw token, repoints every context at it, and writes the
// derived document to OutputPath. The injected token is a single blanket
// credential across the file: prior per-context identity bindings are
// discarded, existing identities with other names are kept.
func (a *Adapter) InjectToken(path, token string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".kube", "config")
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrCredentialFileNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("reading credential file %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrMalformedCredentialDocument, path, err)
	}
	if len(doc.Contexts) == 0 {
		// Token injection is meaningless without a context to bind.
		return "", fmt.Errorf("%w: %s", domain.ErrNoContextsDefined, path)
	}

	for i := range doc.Contexts {
		doc.Contexts[i].Context.User = injectedUser
	}
	doc.Users = append(doc.Users, userEntry{
		Name: injectedUser,
		User: map[string]any{"token": token},
	})

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("serializing credential document: %w", err)
	}
	if err := os.WriteFile(OutputPath, out, 0o600); err != nil {
		return "", fmt.Errorf("writing derived credential file: %w", err)
	}

	a.logger.Info("injected ephemeral token identity",
		"source", path, "derived", OutputPath, "contexts", len(doc.Contexts))
	return OutputPath, nil
}
