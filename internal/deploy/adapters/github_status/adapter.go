// Package githubstatus reports deployment lifecycle transitions to the
// GitHub Deployments API, best effort.
package githubstatus

import (
	"context"
	"log/slog"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// Adapter implements ports.StatusPort. Reporting is a no-op when no client
// is configured or the run was not triggered by a deployment event, and
// failures to reach the API are logged and discarded: status reporting
// never alters the run's outcome.
type Adapter struct {
	client       *gogithub.Client
	owner        string
	repo         string
	deploymentID int64
	logger       *slog.Logger
}

// New creates a status reporter. client may be nil and deploymentID may be
// zero; either disables reporting.
func New(client *gogithub.Client, owner, repo string, deploymentID int64, logger *slog.Logger) *Adapter {
	return &Adapter{
		client:       client,
		owner:        owner,
		repo:         repo,
		deploymentID: deploymentID,
		logger:       logger,
	}
}

// Report posts one lifecycle state for the triggering deployment.
func (a *Adapter) Report(ctx context.Context, state domain.State) {
	if a.client == nil || a.deploymentID == 0 || a.owner == "" {
		a.logger.Info("status reporting not configured, skipping", "state", state)
		return
	}

	_, _, err := a.client.Repositories.CreateDeploymentStatus(
		ctx, a.owner, a.repo, a.deploymentID,
		&gogithub.DeploymentStatusRequest{State: gogithub.Ptr(string(state))},
	)
	if err != nil {
		a.logger.Warn("failed to report deployment status",
			"state", state, "deployment", a.deploymentID, "error", err)
		return
	}
	a.logger.Info("reported deployment status", "state", state, "deployment", a.deploymentID)
}
