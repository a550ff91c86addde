// Package pipeline implements the pipeline execution core: the YAML
// configuration model and loader, the stage-type registry, the sequential
// execution engine and the run-scoped context that stages exchange
// artifacts through.
package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error describes a structurally invalid pipeline document, an unknown
// stage type or a missing required stage parameter.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// Stage is one declared pipeline step.
type Stage struct {
	Name string
	Uses string // dotted namespace.action identifier
	// With holds the structured stage parameters from the "with:" block.
	With map[string]any
	// Raw retains the full original stage mapping, including keys not yet
	// promoted into With. Legacy pipelines put parameters directly on the
	// stage entry, and the engine injects __pipeline_dir__ here.
	Raw map[string]any
}

// Namespace returns the token before the first dot of Uses, or all of Uses
// when it contains no dot.
func (s *Stage) Namespace() string {
	if i := strings.Index(s.Uses, "."); i >= 0 {
		return s.Uses[:i]
	}
	return s.Uses
}

// Action returns the remainder after the first dot of Uses, or "" when Uses
// contains no dot.
func (s *Stage) Action() string {
	if i := strings.Index(s.Uses, "."); i >= 0 {
		return s.Uses[i+1:]
	}
	return ""
}

// Config is one loaded pipeline document.
type Config struct {
	Version string
	Stages  []Stage
	// SourcePath is the document location, used as the base directory for
	// relative path resolution. Empty when loaded from an in-memory string.
	SourcePath string
}

// FindStage returns the first stage with the given name, or nil. Duplicate
// names are not rejected at load time, so first-match is the contract.
func (c *Config) FindStage(name string) *Stage {
	for i := range c.Stages {
		if c.Stages[i].Name == name {
			return &c.Stages[i]
		}
	}
	return nil
}

// StagesByNamespace returns all stages whose Uses namespace matches.
func (c *Config) StagesByNamespace(ns string) []*Stage {
	var out []*Stage
	for i := range c.Stages {
		if c.Stages[i].Namespace() == ns {
			out = append(out, &c.Stages[i])
		}
	}
	return out
}

// Load decodes a pipeline document from YAML bytes. The returned config has
// no SourcePath; relative paths inside it resolve against the working
// directory.
func Load(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{msg: "YAML parse error", err: err}
	}
	return buildConfig(doc, "")
}

// LoadFile reads and decodes a pipeline document, recording its path for
// relative path resolution.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{msg: "cannot read pipeline file", err: err}
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{msg: "YAML parse error", err: err}
	}
	return buildConfig(doc, path)
}

func buildConfig(doc any, sourcePath string) (*Config, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, errorf("pipeline root must be a mapping")
	}
	version := scalarString(root["version"])
	if version == "" {
		return nil, errorf("pipeline missing 'version'")
	}
	stagesRaw, ok := root["stages"].([]any)
	if !ok || len(stagesRaw) == 0 {
		return nil, errorf("pipeline 'stages' must be a non-empty list")
	}
	cfg := &Config{Version: version, SourcePath: sourcePath}
	for _, entry := range stagesRaw {
		st, err := coerceStage(entry)
		if err != nil {
			return nil, err
		}
		cfg.Stages = append(cfg.Stages, st)
	}
	return cfg, nil
}

func coerceStage(entry any) (Stage, error) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return Stage{}, errorf("stage entry must be a mapping")
	}
	name, _ := obj["name"].(string)
	if name == "" {
		return Stage{}, errorf("stage missing string 'name'")
	}
	uses, _ := obj["uses"].(string)
	if uses == "" {
		return Stage{}, errorf("stage %q missing string 'uses'", name)
	}
	with := map[string]any{}
	if w, present := obj["with"]; present && w != nil {
		with, ok = w.(map[string]any)
		if !ok {
			return Stage{}, errorf("stage %q field 'with' must be a mapping if present", name)
		}
	}
	return Stage{Name: name, Uses: uses, With: with, Raw: obj}, nil
}

// scalarString renders a scalar document value as a string. YAML decodes an
// unquoted version like 1.0 as a float, which is still an acceptable
// version tag.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
