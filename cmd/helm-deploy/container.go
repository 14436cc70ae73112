// Package main provides the helm-deploy runner: one release-management
// invocation per process.
package main

import (
	"fmt"
	"log/slog"
	"os"

	gogithub "github.com/google/go-github/v68/github"

	actionin "github.com/nathantilsley/helm-deploy/internal/deploy/adapters/action_in"
	githubstatus "github.com/nathantilsley/helm-deploy/internal/deploy/adapters/github_status"
	helmexec "github.com/nathantilsley/helm-deploy/internal/deploy/adapters/helm_exec"
	kubecfg "github.com/nathantilsley/helm-deploy/internal/deploy/adapters/kube_cfg"
	valuefiles "github.com/nathantilsley/helm-deploy/internal/deploy/adapters/value_files"
	"github.com/nathantilsley/helm-deploy/internal/deploy/app"
	"github.com/nathantilsley/helm-deploy/internal/deploy/ports"
	"github.com/nathantilsley/helm-deploy/internal/platform/config"
	ghclient "github.com/nathantilsley/helm-deploy/internal/platform/github"
)

// Container holds all application dependencies.
type Container struct {
	Config   config.Config
	Logger   *slog.Logger
	Deployer ports.DeployUseCase
}

// NewContainer builds and wires all dependencies.
func NewContainer(cfg config.Config, log *slog.Logger) (*Container, error) {
	event, err := actionin.LoadEvent(cfg.EventPath)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}

	// Status reporting is best effort: without credentials the adapter
	// degrades to a logged no-op.
	var client *gogithub.Client
	switch {
	case cfg.HasAppAuth():
		client, err = ghclient.NewAppClient(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("creating github client: %w", err)
		}
	case cfg.GitHubToken != "":
		client = ghclient.NewTokenClient(cfg.GitHubToken)
	default:
		log.Info("no github credentials configured, status reporting disabled")
	}

	owner, repo := cfg.OwnerRepo()
	var deploymentID int64
	if event != nil {
		deploymentID = event.ID
	}

	resolver := actionin.NewResolver(nil, os.Getenv, event)
	executor := helmexec.New(log)
	renderer := valuefiles.New(log)
	kube := kubecfg.New(cfg.KubeconfigFile, cfg.KubeconfigFileBase64, log)
	status := githubstatus.New(client, owner, repo, deploymentID, log)

	deployer := app.NewDeployService(
		resolver,
		executor,
		renderer,
		kube,
		status,
		event.PayloadData(),
		log,
	)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Deployer: deployer,
	}, nil
}
