package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pgrudzien12/pcb-maker/internal/gbrjob"
	vlog "github.com/pgrudzien12/pcb-maker/internal/log"
	"github.com/pgrudzien12/pcb-maker/internal/run"
)

// Engine runs a loaded pipeline configuration, one stage after another.
// Execution is single-threaded and fail-fast: the first stage error ends the
// run with no retry and no rollback.
type Engine struct {
	Config  *Config
	Log     *slog.Logger // defaults to the process logger
	Run     *run.Run     // optional per-run bookkeeping
	Display *Display     // optional terminal progress output
}

// Execute runs all stages in declaration order and returns the run context.
//
// Every stage type is resolved before the first stage runs, so a pipeline
// referencing an unknown type fails up front rather than mid-run. Each stage
// receives the previous stage's output (nil for the first), the shared
// context and the logging sink; its output is stored under KeyLast.
func (e *Engine) Execute() (*Context, error) {
	log := e.Log
	if log == nil {
		log = vlog.Logger()
	}

	pipelineDir := ""
	if e.Config.SourcePath != "" {
		pipelineDir = filepath.Dir(e.Config.SourcePath)
	}

	impls := make([]stageImpl, len(e.Config.Stages))
	for i := range e.Config.Stages {
		st := &e.Config.Stages[i]
		if st.Raw == nil {
			st.Raw = map[string]any{}
		}
		if _, ok := st.Raw[pipelineDirKey]; !ok {
			st.Raw[pipelineDirKey] = pipelineDir
		}
		impl, err := resolveStage(st)
		if err != nil {
			return nil, err
		}
		impls[i] = impl
	}

	ctx := NewContext(e.Config.Version)
	var prev any
	for i, impl := range impls {
		st := &e.Config.Stages[i]
		log.Debug("running stage", "name", st.Name, "uses", st.Uses)
		if e.Display != nil {
			e.Display.StageStart(st.Name, st.Uses)
		}
		start := time.Now()

		out, err := impl.Run(prev, ctx, log)
		duration := time.Since(start)

		if err != nil {
			if e.Display != nil {
				e.Display.StageFailed(st.Name, st.Uses, err)
			}
			if e.Run != nil {
				if rerr := e.Run.AddStageResult(run.StageResult{
					Name: st.Name, Uses: st.Uses, Status: "failed",
					DurationMS: duration.Milliseconds(), Error: err.Error(),
				}); rerr != nil {
					log.Warn("failed to save stage result", "stage", st.Name, "err", rerr)
				}
				if ferr := e.Run.Fail(err.Error()); ferr != nil {
					log.Warn("failed to update run meta", "err", ferr)
				}
			}
			return nil, fmt.Errorf("stage %q failed: %w", st.Name, err)
		}

		ctx.Set(KeyLast, out)
		prev = out

		if e.Run != nil {
			if rerr := e.Run.AddStageResult(run.StageResult{
				Name: st.Name, Uses: st.Uses, Status: "completed",
				DurationMS: duration.Milliseconds(),
			}); rerr != nil {
				log.Warn("failed to save stage result", "stage", st.Name, "err", rerr)
			}
		}
		if e.Display != nil {
			e.Display.StageDone(st.Name, st.Uses, duration)
		}
	}

	if e.Run != nil {
		if err := e.Run.Complete(); err != nil {
			log.Warn("failed to mark run complete", "err", err)
		}
	}
	return ctx, nil
}

// ParseJobIfPresent parses the job descriptor referenced by the first
// loader.kicad stage of cfg, without executing the pipeline. This is the
// discovery flow behind the "stages" command: a missing stage, missing job
// path or parse failure is logged and yields nil rather than an error.
func ParseJobIfPresent(cfg *Config, log *slog.Logger) *gbrjob.Job {
	var loader *Stage
	for i := range cfg.Stages {
		if cfg.Stages[i].Uses == "loader.kicad" {
			loader = &cfg.Stages[i]
			break
		}
	}
	if loader == nil {
		log.Debug("no loader.kicad stage present; skipping job parse")
		return nil
	}
	jobName, folder := jobParams(loader)
	if jobName == "" {
		log.Warn("loader.kicad stage found but job path missing")
		return nil
	}
	jobPath := jobName
	if folder != "" {
		jobPath = filepath.Join(folder, jobName)
	}
	if !filepath.IsAbs(jobPath) && cfg.SourcePath != "" {
		jobPath = filepath.Join(filepath.Dir(cfg.SourcePath), jobPath)
	}
	job, err := gbrjob.ParseFile(jobPath)
	if err != nil {
		log.Error("failed to parse job file", "path", jobPath, "err", err)
		return nil
	}
	return job
}
