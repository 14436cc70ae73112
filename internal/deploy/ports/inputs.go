package ports

import "context"

// DeployUseCase is the driving port: one full deployment run.
type DeployUseCase interface {
	Execute(ctx context.Context) error
}
