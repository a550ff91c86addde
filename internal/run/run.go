// Package run persists per-execution bookkeeping: a directory per pipeline
// run under .pcb-maker/runs/ holding meta.json and any output artifacts.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run represents a single pipeline execution.
type Run struct {
	ID   string
	Dir  string
	Meta Meta
}

// Meta holds metadata about a run, persisted to meta.json.
type Meta struct {
	StartedAt time.Time     `json:"started_at"`
	Pipeline  string        `json:"pipeline"` // pipeline file path or name
	Version   string        `json:"version"`  // pipeline document version
	Status    string        `json:"status"`   // "running" | "completed" | "failed"
	Stages    []StageResult `json:"stages"`
	Error     string        `json:"error,omitempty"`
}

// StageResult records the outcome of a single stage.
type StageResult struct {
	Name       string `json:"name"`
	Uses       string `json:"uses"`
	Status     string `json:"status"` // "completed" | "failed"
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// New creates a new run directory under .pcb-maker/runs/. The ID combines a
// timestamp with a uuid suffix so two runs of the same pipeline in the same
// instant never collide.
func New(pipelineRef, version string) (*Run, error) {
	now := time.Now()
	id := fmt.Sprintf("%s-%s-%s",
		now.Format("20060102-150405"),
		uuid.NewString()[:8],
		sanitizeSlug(filepath.Base(pipelineRef)),
	)

	baseDir := filepath.Join(".pcb-maker", "runs")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating runs dir: %w", err)
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}

	r := &Run{
		ID:  id,
		Dir: dir,
		Meta: Meta{
			StartedAt: now,
			Pipeline:  pipelineRef,
			Version:   version,
			Status:    "running",
		},
	}

	if err := r.SaveMeta(); err != nil {
		return nil, err
	}

	if err := updateLatestLink(baseDir, id); err != nil {
		return nil, err
	}

	return r, nil
}

// SaveMeta writes meta.json to the run directory.
func (r *Run) SaveMeta() error {
	data, err := json.MarshalIndent(r.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	path := filepath.Join(r.Dir, "meta.json")
	return os.WriteFile(path, data, 0644)
}

// AddStageResult appends a stage result and persists the meta file.
func (r *Run) AddStageResult(sr StageResult) error {
	r.Meta.Stages = append(r.Meta.Stages, sr)
	return r.SaveMeta()
}

// Complete marks the run as completed.
func (r *Run) Complete() error {
	r.Meta.Status = "completed"
	return r.SaveMeta()
}

// Fail marks the run as failed with an error message.
func (r *Run) Fail(msg string) error {
	r.Meta.Status = "failed"
	r.Meta.Error = msg
	return r.SaveMeta()
}

// FilePath returns the absolute path to a file within this run directory.
func (r *Run) FilePath(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteFile writes content to a named file in the run directory.
func (r *Run) WriteFile(name, content string) error {
	path := r.FilePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// ReadFile reads a named file from the run directory.
func (r *Run) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(r.FilePath(name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// updateLatestLink atomically updates the "latest" symlink.
func updateLatestLink(baseDir, id string) error {
	latestPath := filepath.Join(baseDir, "latest")
	tmpPath := latestPath + ".tmp"

	// Remove any stale tmp link
	os.Remove(tmpPath)

	if err := os.Symlink(id, tmpPath); err != nil {
		return fmt.Errorf("creating temp symlink: %w", err)
	}
	if err := os.Rename(tmpPath, latestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("updating latest symlink: %w", err)
	}
	return nil
}

var nonAlphanumRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeSlug converts a string to a filename-friendly slug.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "run"
	}
	return s
}
