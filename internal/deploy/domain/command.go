package domain

// helmConfigDir is a fixed writable directory for the tool's configuration.
// The invoking identity may have no home directory, so both variants are
// pointed here explicitly.
const helmConfigDir = "/root/.helm/"

// DefaultValuesFile is the fixed-name rendered values file consumed by the
// main invocation. It is always the last --values flag so it takes override
// precedence under the tool's last-wins merge semantics.
const DefaultValuesFile = "./values.yml"

// Invocation is an ordered argument list plus a process-environment overlay
// for a single external invocation. The overlay is applied to the spawned
// process only, never to ambient process state. Built fresh per run and
// never mutated after construction.
type Invocation struct {
	Name          string
	Args          []string
	Env           []string // KEY=VALUE pairs
	IgnoreFailure bool
}

// Executable returns the binary name for the variant. The runner image
// ships helm v2 as "helm" and v3 as "helm3".
func (v ToolVariant) Executable() string {
	if v == HelmV3 {
		return "helm3"
	}
	return "helm"
}

// configEnv returns the configuration-directory overlay for the variant.
// v3 follows the XDG convention; v2 uses the single legacy HELM_HOME.
func (v ToolVariant) configEnv() []string {
	if v == HelmV3 {
		return []string{
			"XDG_DATA_HOME=" + helmConfigDir,
			"XDG_CACHE_HOME=" + helmConfigDir,
			"XDG_CONFIG_HOME=" + helmConfigDir,
		}
	}
	return []string{"HELM_HOME=" + helmConfigDir}
}

// UpgradeCommand synthesizes the main upgrade invocation for the request.
// Flag order is fixed; conditional flags appear only when the corresponding
// field resolved.
func UpgradeCommand(req DeploymentRequest) Invocation {
	args := []string{
		"upgrade", req.Release, req.Chart,
		"--install", "--wait", "--atomic",
		"--namespace=" + req.Namespace,
	}

	if req.DryRun {
		args = append(args, "--dry-run")
	}
	if req.App != "" {
		args = append(args, "--set=app.name="+req.App)
	}
	if req.AppVersion != "" {
		args = append(args, "--set=app.version="+req.AppVersion)
	}
	if req.ChartVersion != "" {
		args = append(args, "--version="+req.ChartVersion)
	}
	if req.Timeout != "" {
		args = append(args, "--timeout="+req.Timeout)
	}
	for _, f := range req.ValueFiles {
		args = append(args, "--values="+f)
	}
	args = append(args, "--values="+DefaultValuesFile)

	if req.Track == TrackCanary {
		// Canary releases suppress their own network-facing resources and
		// rely on the stable release's service and ingress for traffic entry.
		args = append(args, "--set=service.enabled=false", "--set=ingress.enabled=false")
	}

	if req.KubeContext != "" {
		args = append(args, "--kube-context="+req.KubeContext)
	}
	if req.KubeToken != "" && req.Helm == HelmV3 {
		// v2 lacks a native token flag; the token is routed through the
		// credential-document rewrite instead, mutually exclusive with this.
		args = append(args, "--kube-token="+req.KubeToken)
	}

	return Invocation{
		Name: req.Helm.Executable(),
		Args: args,
		Env:  req.Helm.configEnv(),
	}
}

// DeleteCommand synthesizes a release deletion. A missing prior release is
// an expected condition for canary cleanup and removal, so the invocation
// is marked ignorable.
func DeleteCommand(req DeploymentRequest, release string) Invocation {
	var args []string
	if req.Helm == HelmV3 {
		args = []string{"delete", "-n", req.Namespace, release}
	} else {
		args = []string{"delete", "--purge", release}
	}
	return Invocation{
		Name:          req.Helm.Executable(),
		Args:          args,
		Env:           req.Helm.configEnv(),
		IgnoreFailure: true,
	}
}

// RepoAddCommand registers the configured chart repository.
func RepoAddCommand(req DeploymentRequest) Invocation {
	args := []string{"repo", "add", req.Repository.Alias, req.Repository.URL}
	if req.Repository.Username != "" {
		args = append(args, "--username="+req.Repository.Username)
	}
	if req.Repository.Password != "" {
		args = append(args, "--password="+req.Repository.Password)
	}
	return Invocation{
		Name: req.Helm.Executable(),
		Args: args,
		Env:  req.Helm.configEnv(),
	}
}

// RepoUpdateCommand refreshes the local repository index after RepoAddCommand.
func RepoUpdateCommand(req DeploymentRequest) Invocation {
	return Invocation{
		Name: req.Helm.Executable(),
		Args: []string{"repo", "update"},
		Env:  req.Helm.configEnv(),
	}
}
