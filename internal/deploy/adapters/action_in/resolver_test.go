package actionin

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func strPtr(s string) *string { return &s }

func baseInputs() map[string]string {
	return map[string]string{
		"release":   "api",
		"namespace": "prod",
		"chart":     "app",
	}
}

func TestResolve_RequiredInputs(t *testing.T) {
	tests := []struct {
		name      string
		inputs    map[string]string
		wantField string
	}{
		{"missing release", map[string]string{"namespace": "prod", "chart": "app"}, "release"},
		{"missing namespace", map[string]string{"release": "api", "chart": "app"}, "namespace"},
		{"missing chart", map[string]string{"release": "api", "namespace": "prod"}, "chart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.inputs, nil, nil).Resolve()
			var missing domain.MissingInputError
			if !errors.As(err, &missing) {
				t.Fatalf("Resolve() error = %v, want MissingInputError", err)
			}
			if missing.Field != tt.wantField {
				t.Errorf("MissingInputError.Field = %q, want %q", missing.Field, tt.wantField)
			}
		})
	}
}

func TestResolve_Defaults(t *testing.T) {
	req, err := NewResolver(baseInputs(), nil, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	if req.Track != "stable" {
		t.Errorf("Track = %q, want %q", req.Track, "stable")
	}
	if req.Release != "api" {
		t.Errorf("Release = %q, want %q", req.Release, "api")
	}
	if req.Chart != "/usr/src/charts/app" {
		t.Errorf("Chart = %q, want %q", req.Chart, "/usr/src/charts/app")
	}
	if req.Task != domain.TaskDeploy {
		t.Errorf("Task = %q, want %q", req.Task, domain.TaskDeploy)
	}
	if req.Helm != domain.HelmV2 {
		t.Errorf("Helm = %q, want %q", req.Helm, domain.HelmV2)
	}
	if req.Values != "{}" {
		t.Errorf("Values = %q, want empty object", req.Values)
	}
}

func TestResolve_CanaryExample(t *testing.T) {
	inputs := map[string]string{
		"release":   "api",
		"track":     "canary",
		"namespace": "prod",
		"chart":     "app",
	}
	req, err := NewResolver(inputs, nil, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	if req.Release != "api-canary" {
		t.Errorf("Release = %q, want %q", req.Release, "api-canary")
	}
	inv := domain.UpgradeCommand(req)
	for _, want := range []string{
		"--namespace=prod",
		"/usr/src/charts/app",
		"--set=service.enabled=false",
		"--set=ingress.enabled=false",
	} {
		if !slices.Contains(inv.Args, want) {
			t.Errorf("command args %v missing %q", inv.Args, want)
		}
	}
}

func TestResolve_EnvironmentFallback(t *testing.T) {
	env := envOf(map[string]string{
		"INPUT_RELEASE":       "api",
		"INPUT_NAMESPACE":     "prod",
		"INPUT_CHART":         "app",
		"INPUT_CHART_VERSION": "2.0.0", // normalized spelling only
	})
	req, err := NewResolver(nil, env, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if req.ChartVersion != "2.0.0" {
		t.Errorf("ChartVersion = %q, want fallback to normalized env spelling", req.ChartVersion)
	}
}

func TestResolve_PrimaryEnvSpellingWins(t *testing.T) {
	env := envOf(map[string]string{
		"INPUT_RELEASE":       "api",
		"INPUT_NAMESPACE":     "prod",
		"INPUT_CHART":         "app",
		"INPUT_CHART-VERSION": "1.0.0",
		"INPUT_CHART_VERSION": "2.0.0",
	})
	req, err := NewResolver(nil, env, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if req.ChartVersion != "1.0.0" {
		t.Errorf("ChartVersion = %q, the primary spelling must win", req.ChartVersion)
	}
}

func TestResolve_EventOverrides(t *testing.T) {
	tests := []struct {
		name  string
		event *Event
		check func(t *testing.T, req domain.DeploymentRequest)
	}{
		{
			name:  "top level overrides input",
			event: &Event{Fields: Fields{Namespace: strPtr("staging")}},
			check: func(t *testing.T, req domain.DeploymentRequest) {
				if req.Namespace != "staging" {
					t.Errorf("Namespace = %q, want %q", req.Namespace, "staging")
				}
			},
		},
		{
			name: "nested payload beats top level",
			event: &Event{
				Fields:  Fields{Namespace: strPtr("staging")},
				Payload: Fields{Namespace: strPtr("qa")},
			},
			check: func(t *testing.T, req domain.DeploymentRequest) {
				if req.Namespace != "qa" {
					t.Errorf("Namespace = %q, want %q", req.Namespace, "qa")
				}
			},
		},
		{
			name:  "falsy-but-defined override wins",
			event: &Event{Fields: Fields{Timeout: strPtr("")}},
			check: func(t *testing.T, req domain.DeploymentRequest) {
				if req.Timeout != "" {
					t.Errorf("Timeout = %q, want the empty override as-is", req.Timeout)
				}
			},
		},
		{
			name:  "empty track override still defaults to stable",
			event: &Event{Fields: Fields{Track: strPtr("")}},
			check: func(t *testing.T, req domain.DeploymentRequest) {
				if req.Track != "stable" {
					t.Errorf("Track = %q, want %q", req.Track, "stable")
				}
			},
		},
	}

	inputs := baseInputs()
	inputs["timeout"] = "300s"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewResolver(inputs, nil, tt.event).Resolve()
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			tt.check(t, req)
		})
	}
}

func TestResolve_ValueFiles(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]string
		event  *Event
		want   []string
	}{
		{
			name:   "serialized array",
			inputs: map[string]string{"value-files": `["a.yml","b.yml"]`},
			want:   []string{"a.yml", "b.yml"},
		},
		{
			name:   "bare path becomes single entry",
			inputs: map[string]string{"value-files": "c.yml"},
			want:   []string{"c.yml"},
		},
		{
			name:   "empty entries dropped, order kept",
			inputs: map[string]string{"value-files": `["a.yml","","b.yml"]`},
			want:   []string{"a.yml", "b.yml"},
		},
		{
			name:   "absent resolves to nil",
			inputs: nil,
			want:   nil,
		},
		{
			name:  "structural list override",
			event: &Event{Payload: Fields{ValueFiles: json.RawMessage(`["x.yml"]`)}},
			want:  []string{"x.yml"},
		},
		{
			name:  "string override parsed as array",
			event: &Event{Fields: Fields{ValueFiles: json.RawMessage(`"[\"y.yml\"]"`)}},
			want:  []string{"y.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := baseInputs()
			for k, v := range tt.inputs {
				inputs[k] = v
			}
			req, err := NewResolver(inputs, nil, tt.event).Resolve()
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if !slices.Equal(req.ValueFiles, tt.want) {
				t.Errorf("ValueFiles = %v, want %v", req.ValueFiles, tt.want)
			}
		})
	}
}

func TestResolve_Values(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]string
		event  *Event
		want   string
	}{
		{
			name:   "literal text passes through",
			inputs: map[string]string{"values": "replicas: 3"},
			want:   "replicas: 3",
		},
		{
			name:  "structured override serialized",
			event: &Event{Payload: Fields{Values: json.RawMessage(`{"replicas": 3}`)}},
			want:  `{"replicas":3}`,
		},
		{
			name: "absent resolves to empty object",
			want: "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := baseInputs()
			for k, v := range tt.inputs {
				inputs[k] = v
			}
			req, err := NewResolver(inputs, nil, tt.event).Resolve()
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if req.Values != tt.want {
				t.Errorf("Values = %q, want %q", req.Values, tt.want)
			}
		})
	}
}

func TestResolve_Secrets(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]string
		event  *Event
		want   any
	}{
		{
			name:   "parsable text becomes structured",
			inputs: map[string]string{"secrets": `{"DB_PASS":"x"}`},
			want:   map[string]any{"DB_PASS": "x"},
		},
		{
			name:   "unparsable text stays opaque",
			inputs: map[string]string{"secrets": "not json"},
			want:   "not json",
		},
		{
			name:  "structured override passes through",
			event: &Event{Fields: Fields{Secrets: json.RawMessage(`{"A":"1"}`)}},
			want:  map[string]any{"A": "1"},
		},
		{
			name: "absent is nil",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := baseInputs()
			for k, v := range tt.inputs {
				inputs[k] = v
			}
			req, err := NewResolver(inputs, nil, tt.event).Resolve()
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(req.Secrets, tt.want) {
				t.Errorf("Secrets = %#v, want %#v", req.Secrets, tt.want)
			}
		})
	}
}

func TestResolve_BoolsAndVariant(t *testing.T) {
	inputs := baseInputs()
	inputs["helm"] = "helm3"
	inputs["dry-run"] = "true"
	inputs["remove-canary"] = "1"

	req, err := NewResolver(inputs, nil, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if req.Helm != domain.HelmV3 {
		t.Errorf("Helm = %q, want %q", req.Helm, domain.HelmV3)
	}
	if !req.DryRun {
		t.Error("DryRun = false, want true")
	}
	if !req.RemoveCanary {
		t.Error("RemoveCanary = false, want true")
	}
}

func TestResolve_BoolOverride(t *testing.T) {
	inputs := baseInputs()
	inputs["dry-run"] = "true"

	event := &Event{Payload: Fields{DryRun: json.RawMessage(`false`)}}
	req, err := NewResolver(inputs, nil, event).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if req.DryRun {
		t.Error("DryRun = true, the falsy override must win")
	}
}

func TestResolve_RepositoryAliasDefault(t *testing.T) {
	inputs := baseInputs()
	inputs["repository"] = "https://charts.example.com"

	req, err := NewResolver(inputs, nil, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if req.Repository.Alias != "repo" {
		t.Errorf("Repository.Alias = %q, want default %q", req.Repository.Alias, "repo")
	}
}
