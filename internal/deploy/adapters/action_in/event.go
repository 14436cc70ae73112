// Package actionin resolves deployment parameters from configured inputs,
// environment-variable fallbacks, and the inbound deployment event.
package actionin

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fields is the closed set of input names a deployment event may override,
// both at the top level of the deployment object and inside its nested
// payload. Pointer and RawMessage fields distinguish "absent" from
// "present but falsy": a defined override always wins, even when empty.
type Fields struct {
	Track              *string         `json:"track"`
	Release            *string         `json:"release"`
	Namespace          *string         `json:"namespace"`
	Chart              *string         `json:"chart"`
	ChartVersion       *string         `json:"chart_version"`
	Values             json.RawMessage `json:"values"`
	Task               *string         `json:"task"`
	Version            *string         `json:"version"`
	ValueFiles         json.RawMessage `json:"value_files"`
	RemoveCanary       json.RawMessage `json:"remove_canary"`
	Helm               *string         `json:"helm"`
	Timeout            *string         `json:"timeout"`
	Repository         *string         `json:"repository"`
	RepositoryAlias    *string         `json:"repository_alias"`
	RepositoryUsername *string         `json:"repository_username"`
	RepositoryPassword *string         `json:"repository_password"`
	DryRun             json.RawMessage `json:"dry_run"`
	Secrets            json.RawMessage `json:"secrets"`
	KubeContext        *string         `json:"kube_context"`
	KubeToken          *string         `json:"kube_token"`
}

// Event is the deployment object of an inbound deployment event: an id for
// status reporting, top-level override fields, and a nested payload whose
// matching fields take final precedence.
type Event struct {
	ID int64 `json:"id"`
	Fields
	Payload Fields `json:"payload"`

	payloadData map[string]any
}

// PayloadData returns the nested payload as generic data for template
// rendering. Nil when the event carries no payload.
func (e *Event) PayloadData() map[string]any {
	if e == nil {
		return nil
	}
	return e.payloadData
}

// LoadEvent reads the event document at path and extracts its deployment
// object. Returns nil without error when path is empty, the file is absent,
// or the event carries no deployment: a plain run has no override source.
func LoadEvent(path string) (*Event, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading event file %s: %w", path, err)
	}

	var envelope struct {
		Deployment *Event `json:"deployment"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parsing event file %s: %w", path, err)
	}
	if envelope.Deployment == nil {
		return nil, nil
	}

	// Second pass for the untyped payload used as template context.
	var generic struct {
		Deployment struct {
			Payload map[string]any `json:"payload"`
		} `json:"deployment"`
	}
	if err := json.Unmarshal(raw, &generic); err == nil {
		envelope.Deployment.payloadData = generic.Deployment.Payload
	}

	return envelope.Deployment, nil
}
