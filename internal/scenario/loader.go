// Package scenario loads the YAML/JSON collaborator files the engine itself
// never parses directly: the scenarios document, the environment document,
// and the job's ExecConfig document. It mirrors the shape of
// original_source's model.rs (Root/Environment/Scenario/Request) while
// flattening into the single ordered []model.RequestTemplate the Load
// Engine expects.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/validation"
)

// Root is the top-level scenarios document shape: a version tag plus an
// ordered list of named scenarios, each its own ordered list of requests.
type Root struct {
	Version   string     `yaml:"version" json:"version"`
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`
}

// Scenario is a named, ordered group of request templates. ThreadCount is
// accepted for compatibility with the original document shape but is not
// consulted by the Load Engine: thread count is governed exclusively by
// ExecConfig.ThreadCount.
type Scenario struct {
	Name        string                  `yaml:"name" json:"name"`
	ThreadCount int                     `yaml:"thread_count,omitempty" json:"thread_count,omitempty"`
	Requests    []model.RequestTemplate `yaml:"requests" json:"requests"`
}

// LoadScenarios reads a scenarios file and flattens every scenario's
// requests, in document order, into a single ordered list. Each request is
// assigned a stable id and scanned for substitution markers.
func LoadScenarios(path string) ([]model.RequestTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading scenarios file: %v", model.ErrTemplateParse, err)
	}

	var root Root
	if err := unmarshalSelfDescribing(path, data, &root); err != nil {
		return nil, fmt.Errorf("%w: parsing scenarios file: %v", model.ErrTemplateParse, err)
	}

	var out []model.RequestTemplate
	for _, sc := range root.Scenarios {
		for _, req := range sc.Requests {
			req.ID = uuid.NewString()
			req.DetectPreprocessing()
			for _, ex := range req.Extractors {
				if err := ex.Validate(); err != nil {
					return nil, fmt.Errorf("scenario %q request %q: %w", sc.Name, req.Name, err)
				}
			}
			out = append(out, req)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: scenarios file declares no requests", model.ErrTemplateParse)
	}
	return out, nil
}

// Environment is the name->value substitution seed document.
type Environment struct {
	Variables map[string]string `yaml:"variables" json:"variables"`
}

// LoadEnvironment reads an (optional) environment file. A missing path
// returns an empty map, not an error.
func LoadEnvironment(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading environment file: %v", model.ErrTemplateParse, err)
	}
	var env Environment
	if err := unmarshalSelfDescribing(path, data, &env); err != nil {
		return nil, fmt.Errorf("%w: parsing environment file: %v", model.ErrTemplateParse, err)
	}
	if env.Variables == nil {
		env.Variables = map[string]string{}
	}
	return env.Variables, nil
}

// LoadExecConfig reads the job's execution configuration document. The
// format (JSON or YAML) is inferred from the file extension; the contract
// per the specification is a single self-describing document either way.
func LoadExecConfig(path string) (model.ExecConfig, error) {
	var cfg model.ExecConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: reading config file: %v", model.ErrConfigInvalid, err)
	}
	if err := unmarshalSelfDescribing(path, data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing config file: %v", model.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// ValidateTargets checks every request template's URL against an
// SSRF-conscious allow list before a job is dispatched. Templated URLs
// (those still carrying a "{{" marker) are skipped: their final host is
// only known after substitution runs on the node, request by request.
// allowPrivateTargets permits loopback/private/link-local hosts, the way a
// developer testing against a local service needs to.
func ValidateTargets(requests []model.RequestTemplate, allowPrivateTargets bool) error {
	validator := validation.NewURLValidator().
		WithAllowPrivateIPs(allowPrivateTargets).
		WithAllowLocalhost(allowPrivateTargets)

	for _, req := range requests {
		if strings.Contains(req.URL, model.TemplateMarker) {
			continue
		}
		if _, err := validator.ValidateURL(req.URL); err != nil {
			return fmt.Errorf("%w: request %q target %q: %v", model.ErrConfigInvalid, req.Name, req.URL, err)
		}
	}
	return nil
}

func unmarshalSelfDescribing(path string, data []byte, out interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}
