// Package app orchestrates a single deployment run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
	"github.com/nathantilsley/helm-deploy/internal/deploy/ports"
)

// DeployService implements ports.DeployUseCase: resolution, credential
// handling, command synthesis, rendering, and the external invocations, in
// a fixed sequential order, with lifecycle status reported around the run.
type DeployService struct {
	resolver ports.ResolverPort
	executor ports.ExecutorPort
	renderer ports.RendererPort
	kubecfg  ports.KubeconfigPort
	status   ports.StatusPort

	eventPayload map[string]any // template context from the inbound event
	logger       *slog.Logger
}

// NewDeployService wires the service with its driven ports. eventPayload
// may be nil when the run was not triggered by a deployment event.
func NewDeployService(
	resolver ports.ResolverPort,
	executor ports.ExecutorPort,
	renderer ports.RendererPort,
	kubecfg ports.KubeconfigPort,
	status ports.StatusPort,
	eventPayload map[string]any,
	logger *slog.Logger,
) *DeployService {
	return &DeployService{
		resolver:     resolver,
		executor:     executor,
		renderer:     renderer,
		kubecfg:      kubecfg,
		status:       status,
		eventPayload: eventPayload,
		logger:       logger,
	}
}

// Execute performs the run. Status transitions: pending at start, then
// success (deploy), inactive (remove), or failure (any error). Status
// reporting itself never affects the returned error.
func (s *DeployService) Execute(ctx context.Context) error {
	s.status.Report(ctx, domain.StatePending)

	task, err := s.run(ctx)
	if err != nil {
		s.status.Report(ctx, domain.StateFailure)
		return err
	}

	s.status.Report(ctx, domain.FinalState(task))
	return nil
}

func (s *DeployService) run(ctx context.Context) (domain.Task, error) {
	req, err := s.resolver.Resolve()
	if err != nil {
		return domain.TaskDeploy, err
	}
	s.logger.Info("resolved deployment request",
		"release", req.Release,
		"namespace", req.Namespace,
		"chart", req.Chart,
		"track", req.Track,
		"task", req.Task,
		"helm", req.Helm,
	)

	// Environment-supplied credential material becomes the active
	// credential file for every invocation in this run.
	var kubeconfigPath string
	path, written, err := s.kubecfg.WriteMaterial()
	if err != nil {
		return req.Task, err
	}
	if written {
		kubeconfigPath = path
	}

	if req.Task == domain.TaskRemove {
		inv := withKubeconfig(domain.DeleteCommand(req, req.Release), kubeconfigPath)
		return req.Task, s.executor.Run(ctx, inv)
	}

	// v2 lacks a native token flag; inject the token into the credential
	// document and point the run at the derived file. v3 carries the token
	// as a command flag instead, so the document is left alone.
	if req.KubeToken != "" && req.Helm == domain.HelmV2 {
		derived, err := s.kubecfg.InjectToken(kubeconfigPath, req.KubeToken)
		if err != nil {
			return req.Task, fmt.Errorf("injecting kube token: %w", err)
		}
		kubeconfigPath = derived
	}

	if _, err := s.renderer.WriteValues(req.Values); err != nil {
		return req.Task, err
	}

	if req.Repository.URL != "" {
		if err := s.executor.Run(ctx, withKubeconfig(domain.RepoAddCommand(req), kubeconfigPath)); err != nil {
			return req.Task, fmt.Errorf("registering chart repository: %w", err)
		}
		if err := s.executor.Run(ctx, withKubeconfig(domain.RepoUpdateCommand(req), kubeconfigPath)); err != nil {
			return req.Task, fmt.Errorf("updating chart repositories: %w", err)
		}
	}

	files := append(slices.Clone(req.ValueFiles), domain.DefaultValuesFile)
	data := map[string]any{
		"secrets":    req.Secrets,
		"deployment": s.eventPayload,
	}
	if err := s.renderer.Render(ctx, files, data); err != nil {
		return req.Task, err
	}

	if req.RemoveCanary {
		s.logger.Info("removing canary release", "release", domain.CanaryRelease(req.App))
		inv := withKubeconfig(domain.DeleteCommand(req, domain.CanaryRelease(req.App)), kubeconfigPath)
		if err := s.executor.Run(ctx, inv); err != nil {
			return req.Task, err
		}
	}

	return req.Task, s.executor.Run(ctx, withKubeconfig(domain.UpgradeCommand(req), kubeconfigPath))
}

// withKubeconfig appends the active credential file to an invocation's
// environment overlay. The overlay must be complete before the process is
// spawned; ambient environment is never touched.
func withKubeconfig(inv domain.Invocation, path string) domain.Invocation {
	if path != "" {
		inv.Env = append(slices.Clone(inv.Env), "KUBECONFIG="+path)
	}
	return inv
}
