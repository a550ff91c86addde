package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pgrudzien12/pcb-maker/internal/gbrjob"
)

// pipelineDirKey is injected into each stage's Raw mapping by the engine so
// stages can resolve relative paths against the pipeline document location.
const pipelineDirKey = "__pipeline_dir__"

// jobParams resolves the job file name and optional folder for a
// loader.kicad stage. Layers are checked in priority order:
//
//  1. the structured With mapping,
//  2. a legacy nested "with" mapping inside Raw,
//  3. the Raw stage mapping itself (oldest pipelines put params there).
//
// The first layer providing a non-empty "job" wins; "folder" is taken from
// the same layer.
func jobParams(st *Stage) (job, folder string) {
	layers := []map[string]any{st.With}
	if legacy, ok := st.Raw["with"].(map[string]any); ok {
		layers = append(layers, legacy)
	}
	layers = append(layers, st.Raw)
	for _, m := range layers {
		j, _ := m["job"].(string)
		if j == "" {
			continue
		}
		f, _ := m["folder"].(string)
		return j, f
	}
	return "", ""
}

type loaderKicadStage struct{ cfg *Stage }

func (s *loaderKicadStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	jobName, folder := jobParams(s.cfg)
	if jobName == "" {
		return nil, errorf("loader.kicad stage requires 'job' path")
	}
	jobPath := jobName
	if folder != "" {
		jobPath = filepath.Join(folder, jobName)
	}
	if !filepath.IsAbs(jobPath) {
		if dir, _ := s.cfg.Raw[pipelineDirKey].(string); dir != "" {
			jobPath = filepath.Join(dir, jobPath)
		}
	}
	log.Debug("loading job", "stage", s.cfg.Name, "path", jobPath)
	job, err := gbrjob.ParseFile(jobPath)
	if err != nil {
		return nil, err
	}
	ctx.Set(KeyJob, job)
	return job, nil
}

type laserIsolationStage struct{ cfg *Stage }

func (s *laserIsolationStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	source := ""
	if _, ok := ctx.Get(KeyJob); ok {
		source = KeyJob
	}
	result := Artifact{
		Kind:   "laser_isolation_paths",
		Source: source,
		Params: map[string]any{"paths": []any{}},
	}
	ctx.Set(KeyLaserIsolation, result)
	return result, nil
}

type laserOutlineStage struct{ cfg *Stage }

func (s *laserOutlineStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	var outline any
	if job, ok := ctx.Value(KeyJob).(*gbrjob.Job); ok {
		if layer := job.OutlineLayer(); layer != nil {
			outline = layer.Path
		}
	}
	ctx.Set(KeyLaserOutline, outline)
	return outline, nil
}

type laserRasterStage struct{ cfg *Stage }

func (s *laserRasterStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	enabled, _ := s.cfg.With["enabled"].(bool)
	result := Artifact{
		Kind:   "laser_raster",
		Params: map[string]any{"enabled": enabled},
	}
	ctx.Set(KeyLaserRaster, result)
	return result, nil
}

type millingIsolationStage struct{ cfg *Stage }

func (s *millingIsolationStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	result := Artifact{
		Kind:   "milling_isolation",
		Params: map[string]any{"tool_diameter": s.cfg.With["tool_diameter"]},
	}
	ctx.Set(KeyMillingIsolation, result)
	return result, nil
}

type millingBoardCutoutStage struct{ cfg *Stage }

func (s *millingBoardCutoutStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	result := Artifact{
		Kind:   "milling_board_cutout",
		Params: map[string]any{"tabs": s.cfg.With["tabs"]},
	}
	ctx.Set(KeyMillingBoardCutout, result)
	return result, nil
}

type outputLaserGcodeStage struct{ cfg *Stage }

func (s *outputLaserGcodeStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	gcode := placeholderGcode("laser", s.cfg.With["file"])
	ctx.Set(KeyLaserGcode, gcode)
	return gcode, nil
}

type outputCncGcodeStage struct{ cfg *Stage }

func (s *outputCncGcodeStage) Run(prev any, ctx *Context, log *slog.Logger) (any, error) {
	gcode := placeholderGcode("cnc", s.cfg.With["file"])
	ctx.Set(KeyCncGcode, gcode)
	return gcode, nil
}

func placeholderGcode(flavor string, outfile any) string {
	if name, ok := outfile.(string); ok && name != "" {
		return fmt.Sprintf("; %s gcode placeholder for %s", flavor, name)
	}
	return fmt.Sprintf("; %s gcode placeholder", flavor)
}
