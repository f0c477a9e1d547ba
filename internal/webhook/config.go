// Package webhook delivers gallery lifecycle notifications to external
// endpoints (CRM integrations, portal sync jobs). Endpoints are declared in a
// YAML file and filtered per event.
package webhook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Endpoint is a single outbound webhook target.
type Endpoint struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret,omitempty"`
	Events []string `yaml:"events,omitempty"` // empty means all events
}

// Matches reports whether the endpoint subscribes to the given event name.
func (e Endpoint) Matches(event string) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, name := range e.Events {
		if name == event {
			return true
		}
	}
	return false
}

type endpointsFile struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// LoadEndpoints reads the endpoint declarations from a YAML file.
// A missing path returns an empty list so webhooks stay optional.
func LoadEndpoints(path string) ([]Endpoint, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read webhook endpoints file: %w", err)
	}

	var file endpointsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse webhook endpoints file: %w", err)
	}

	for i, ep := range file.Endpoints {
		if ep.Name == "" {
			return nil, fmt.Errorf("webhook endpoint %d: name is required", i)
		}
		if ep.URL == "" {
			return nil, fmt.Errorf("webhook endpoint %q: url is required", ep.Name)
		}
	}

	return file.Endpoints, nil
}
