package actionin

import (
	"encoding/json"
	"strings"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// Resolver implements ports.ResolverPort. Per-field precedence, lowest to
// highest: configured input, environment probe, event top-level override,
// event payload override. A defined override wins even when it is empty;
// callers testing empty-string overrides get the empty string back.
type Resolver struct {
	inputs map[string]string
	getenv func(string) string
	event  *Event
}

// NewResolver creates a resolver over explicitly configured inputs, an
// environment lookup, and an optional inbound event. Both inputs and event
// may be nil.
func NewResolver(inputs map[string]string, getenv func(string) string, event *Event) *Resolver {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Resolver{inputs: inputs, getenv: getenv, event: event}
}

// Resolve builds the immutable deployment request or fails with a
// domain.MissingInputError naming the first required field that resolved
// to empty.
func (r *Resolver) Resolve() (domain.DeploymentRequest, error) {
	track := r.stringField("track", func(f *Fields) *string { return f.Track })
	if track == "" {
		track = domain.TrackStable
	}

	app := r.stringField("release", func(f *Fields) *string { return f.Release })
	if app == "" {
		return domain.DeploymentRequest{}, domain.MissingInputError{Field: "release"}
	}
	namespace := r.stringField("namespace", func(f *Fields) *string { return f.Namespace })
	if namespace == "" {
		return domain.DeploymentRequest{}, domain.MissingInputError{Field: "namespace"}
	}
	chart := r.stringField("chart", func(f *Fields) *string { return f.Chart })
	if chart == "" {
		return domain.DeploymentRequest{}, domain.MissingInputError{Field: "chart"}
	}

	task := r.stringField("task", func(f *Fields) *string { return f.Task })
	if task == "" {
		task = string(domain.TaskDeploy)
	}

	variant := domain.HelmV2
	if r.stringField("helm", func(f *Fields) *string { return f.Helm }) == "helm3" {
		variant = domain.HelmV3
	}

	repoURL := r.stringField("repository", func(f *Fields) *string { return f.Repository })
	repoAlias := r.stringField("repository-alias", func(f *Fields) *string { return f.RepositoryAlias })
	if repoURL != "" && repoAlias == "" {
		repoAlias = "repo"
	}

	req := domain.DeploymentRequest{
		Track:        track,
		App:          app,
		Release:      domain.ReleaseName(app, track),
		Namespace:    namespace,
		Chart:        domain.ChartPath(chart),
		ChartVersion: r.stringField("chart-version", func(f *Fields) *string { return f.ChartVersion }),
		Values:       r.resolveValues(),
		Task:         domain.Task(task),
		AppVersion:   r.stringField("version", func(f *Fields) *string { return f.Version }),
		ValueFiles:   r.resolveValueFiles(),
		RemoveCanary: r.boolField("remove-canary", func(f *Fields) json.RawMessage { return f.RemoveCanary }),
		Helm:         variant,
		Timeout:      r.stringField("timeout", func(f *Fields) *string { return f.Timeout }),
		Repository: domain.Repository{
			URL:      repoURL,
			Alias:    repoAlias,
			Username: r.stringField("repository-username", func(f *Fields) *string { return f.RepositoryUsername }),
			Password: r.stringField("repository-password", func(f *Fields) *string { return f.RepositoryPassword }),
		},
		DryRun:      r.boolField("dry-run", func(f *Fields) json.RawMessage { return f.DryRun }),
		Secrets:     r.resolveSecrets(),
		KubeContext: r.stringField("kube-context", func(f *Fields) *string { return f.KubeContext }),
		KubeToken:   r.stringField("kube-token", func(f *Fields) *string { return f.KubeToken }),
	}
	return req, nil
}

// input resolves the pre-override value for an input name: the explicitly
// configured value, then the INPUT_<NAME> environment probe, then the
// normalized spelling (separator replaced) only if the primary probe is
// empty.
func (r *Resolver) input(name string) string {
	if v, ok := r.inputs[name]; ok {
		return v
	}
	key := "INPUT_" + strings.ToUpper(name)
	if v := r.getenv(key); v != "" {
		return v
	}
	if strings.Contains(name, "-") {
		return r.getenv(strings.ReplaceAll(key, "-", "_"))
	}
	return ""
}

func (r *Resolver) stringField(name string, pick func(*Fields) *string) string {
	v := r.input(name)
	if r.event != nil {
		if p := pick(&r.event.Fields); p != nil {
			v = *p
		}
		if p := pick(&r.event.Payload); p != nil {
			v = *p
		}
	}
	return v
}

// rawOverride returns the highest-precedence raw override for a field, the
// nested payload beating the top level.
func (r *Resolver) rawOverride(pick func(*Fields) json.RawMessage) (json.RawMessage, bool) {
	if r.event == nil {
		return nil, false
	}
	var raw json.RawMessage
	var ok bool
	if m := pick(&r.event.Fields); m != nil {
		raw, ok = m, true
	}
	if m := pick(&r.event.Payload); m != nil {
		raw, ok = m, true
	}
	return raw, ok
}

func (r *Resolver) boolField(name string, pick func(*Fields) json.RawMessage) bool {
	v := parseBool(r.input(name))
	if raw, ok := r.rawOverride(pick); ok {
		var o any
		if err := json.Unmarshal(raw, &o); err == nil {
			switch t := o.(type) {
			case bool:
				v = t
			case string:
				v = parseBool(t)
			default:
				v = false
			}
		}
	}
	return v
}

// resolveValues produces the textual values blob: structured overrides are
// serialized to canonical JSON (a YAML subset), literal text passes through,
// and absence resolves to an empty object.
func (r *Resolver) resolveValues() string {
	s := r.input("values")
	if raw, ok := r.rawOverride(func(f *Fields) json.RawMessage { return f.Values }); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			if str, isStr := v.(string); isStr {
				s = str
			} else if v != nil {
				b, err := json.Marshal(v)
				if err == nil {
					return string(b)
				}
			}
		}
	}
	if s == "" {
		return "{}"
	}
	return s
}

// resolveSecrets keeps structured overrides as-is and attempts a structural
// parse of textual ones, retaining the opaque text on parse failure.
func (r *Resolver) resolveSecrets() any {
	if raw, ok := r.rawOverride(func(f *Fields) json.RawMessage { return f.Secrets }); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			if s, isStr := v.(string); isStr {
				return parseSecrets(s)
			}
			return v
		}
	}
	if s := r.input("secrets"); s != "" {
		return parseSecrets(s)
	}
	return nil
}

func parseSecrets(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// resolveValueFiles accepts a structural list, a serialized array, or a bare
// path treated as a single-entry list. Empty entries are dropped, order is
// preserved.
func (r *Resolver) resolveValueFiles() []string {
	if raw, ok := r.rawOverride(func(f *Fields) json.RawMessage { return f.ValueFiles }); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			switch t := v.(type) {
			case string:
				return parseFileList(t)
			case []any:
				return compactFileList(t)
			}
		}
		return nil
	}
	return parseFileList(r.input("value-files"))
}

func parseFileList(s string) []string {
	if s == "" {
		return nil
	}
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return []string{s}
	}
	return compactFileList(items)
}

func compactFileList(items []any) []string {
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseBool(s string) bool {
	return s == "true" || s == "1"
}
