package ports

import (
	"context"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// ResolverPort merges configured inputs, environment fallbacks, and the
// inbound event override into one immutable deployment request.
type ResolverPort interface {
	Resolve() (domain.DeploymentRequest, error)
}

// ExecutorPort runs a single external invocation with its environment
// overlay applied to the spawned process only.
type ExecutorPort interface {
	Run(ctx context.Context, inv domain.Invocation) error
}

// RendererPort owns the local value files: writing the default values blob
// and expanding templates in place across the declared files.
type RendererPort interface {
	WriteValues(blob string) (path string, err error)
	Render(ctx context.Context, paths []string, data map[string]any) error
}

// KubeconfigPort manages the derived credential document. WriteMaterial
// persists environment-supplied credential contents, if any. InjectToken
// rewrites the document at path (or the default location when empty) with
// an ephemeral bearer identity and returns the derived document's path.
type KubeconfigPort interface {
	WriteMaterial() (path string, written bool, err error)
	InjectToken(path, token string) (string, error)
}

// StatusPort reports a lifecycle transition, best effort. Implementations
// must swallow their own failures; reporting never alters the run outcome.
type StatusPort interface {
	Report(ctx context.Context, state domain.State)
}
