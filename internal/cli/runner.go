package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pgrudzien12/pcb-maker/internal/assets"
	"github.com/pgrudzien12/pcb-maker/internal/config"
	vlog "github.com/pgrudzien12/pcb-maker/internal/log"
	"github.com/pgrudzien12/pcb-maker/internal/pipeline"
	"github.com/pgrudzien12/pcb-maker/internal/run"
)

// runPipeline is the entry point behind the make command.
func runPipeline(pipelineRef string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logFile := openLogFile()
	vlog.Init(level, logFile)
	if logFile != nil {
		defer logFile.Close()
	}

	if pipelineRef == "" {
		pipelineRef = cfg.DefaultPipeline
	}
	ppl, err := loadPipeline(pipelineRef)
	if err != nil {
		return fmt.Errorf("loading pipeline %q: %w", pipelineRef, err)
	}
	vlog.Info("loaded pipeline", "version", ppl.Version, "stages", len(ppl.Stages))

	r, err := run.New(pipelineRef, ppl.Version)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	disp := pipeline.NewDisplay(pipelineRef, verbose)
	disp.Header(ppl.Version)

	engine := &pipeline.Engine{
		Config:  ppl,
		Log:     vlog.Logger(),
		Run:     r,
		Display: disp,
	}

	start := time.Now()
	ctx, err := engine.Execute()
	if err != nil {
		disp.Failed(err)
		return err
	}
	disp.Summary(len(ppl.Stages), time.Since(start))

	saveGcodeArtifacts(r, ctx)
	return nil
}

// loadPipeline treats the reference as a file path first; anything that is
// not a readable file falls back to named-pipeline lookup via assets.
func loadPipeline(ref string) (*pipeline.Config, error) {
	if st, err := os.Stat(ref); err == nil && !st.IsDir() {
		return pipeline.LoadFile(ref)
	}
	data, err := assets.LoadPipeline(ref)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q not found", ref)
	}
	return pipeline.Load(data)
}

// saveGcodeArtifacts copies generated G-code strings into the run directory.
func saveGcodeArtifacts(r *run.Run, ctx *pipeline.Context) {
	for key, name := range map[string]string{
		pipeline.KeyLaserGcode: "laser.nc",
		pipeline.KeyCncGcode:   "cnc.nc",
	} {
		gcode, ok := ctx.Value(key).(string)
		if !ok || gcode == "" {
			continue
		}
		if err := r.WriteFile(name, gcode); err != nil {
			vlog.Warn("failed to write gcode artifact", "file", name, "err", err)
		}
	}
}

func openLogFile() *os.File {
	dir := ".pcb-maker"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(dir+"/pcb-maker.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}
