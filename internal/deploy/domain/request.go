// Package domain holds the deployment request model, the helm command
// synthesis, and the error taxonomy shared by all adapters.
package domain

// Deployment tracks. Any other value is a valid custom track and only
// affects release naming.
const (
	TrackStable = "stable"
	TrackCanary = "canary"
)

// Task selects what the run does with the release.
type Task string

const (
	TaskDeploy Task = "deploy"
	TaskRemove Task = "remove"
)

// ToolVariant identifies which major version of the release tool is invoked.
// The two variants differ in deletion syntax, token-flag support, and
// configuration-directory conventions.
type ToolVariant string

const (
	HelmV2 ToolVariant = "helm2"
	HelmV3 ToolVariant = "helm3"
)

// appChartPath is where the built-in application chart lives inside the
// runner image.
const appChartPath = "/usr/src/charts/app"

// Repository describes an optional chart repository to register before the
// main invocation.
type Repository struct {
	URL      string
	Alias    string
	Username string
	Password string
}

// DeploymentRequest carries every resolved parameter for a single run. It is
// built once by the resolver and never mutated afterwards.
type DeploymentRequest struct {
	Track        string
	App          string // application name, as configured
	Release      string // derived: App, or App-Track for non-stable tracks
	Namespace    string
	Chart        string
	ChartVersion string
	Values       string // canonical textual blob written to the default values file
	Task         Task
	AppVersion   string
	ValueFiles   []string
	RemoveCanary bool
	Helm         ToolVariant
	Timeout      string
	Repository   Repository
	DryRun       bool
	Secrets      any // structured data, or an opaque string when unparsable
	KubeContext  string
	KubeToken    string
}

// ReleaseName derives the release name from the application name and track.
// The stable track deploys under the bare application name; every other
// track gets a suffixed release so it can coexist with stable.
func ReleaseName(app, track string) string {
	if track == TrackStable {
		return app
	}
	return app + "-" + track
}

// ChartPath maps the symbolic chart name "app" to the built-in chart path.
// Any other value is treated as a chart reference or repository-qualified
// name and passed through unchanged.
func ChartPath(chart string) string {
	if chart == "app" {
		return appChartPath
	}
	return chart
}

// CanaryRelease names the canary release cleaned up by the remove-canary flag.
func CanaryRelease(app string) string {
	return app + "-" + TrackCanary
}
