package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgrudzien12/pcb-maker/internal/gbrjob"
	vlog "github.com/pgrudzien12/pcb-maker/internal/log"
)

const testJobJSON = `{
  "GeneralSpecs": {
    "Size": {"X": 100.2, "Y": 107.2},
    "BoardThickness": 1.6,
    "LayerNumber": 2
  },
  "DesignRules": [{"PadToPad": 0.2}],
  "FilesAttributes": [
    {"Path": "board-F_Cu.gbr", "FileFunction": "Copper,L1,Top", "FilePolarity": "Positive"},
    {"Path": "board-Edge_Cuts.gbr", "FileFunction": "Profile,NP"}
  ]
}`

// writePipelineFixture writes a job descriptor plus a pipeline document
// referencing it by relative path, and returns the pipeline path.
func writePipelineFixture(t *testing.T, pipelineYAML string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "board-job.gbrjob"), []byte(testJobJSON), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "pipe.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteThreeStages(t *testing.T) {
	path := writePipelineFixture(t, `
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
    with:
      job: board-job.gbrjob
  - name: isolate
    uses: laser.isolation
  - name: gcode
    uses: output.laser_gcode
    with:
      file: out.nc
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	ctx, err := engine.Execute()
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	job, ok := ctx.Value(KeyJob).(*gbrjob.Job)
	if !ok {
		t.Fatalf("context %q = %T, want *gbrjob.Job", KeyJob, ctx.Value(KeyJob))
	}
	if job.BoardSizeX != 100.2 || job.BoardSizeY != 107.2 {
		t.Errorf("board size = %v x %v, want 100.2 x 107.2", job.BoardSizeX, job.BoardSizeY)
	}

	iso, ok := ctx.Value(KeyLaserIsolation).(Artifact)
	if !ok {
		t.Fatalf("context %q = %T, want Artifact", KeyLaserIsolation, ctx.Value(KeyLaserIsolation))
	}
	if iso.Kind != "laser_isolation_paths" || iso.Source != KeyJob {
		t.Errorf("isolation artifact = %+v", iso)
	}

	gcode, ok := ctx.Value(KeyLaserGcode).(string)
	if !ok || gcode == "" {
		t.Fatalf("context %q = %v, want placeholder gcode", KeyLaserGcode, ctx.Value(KeyLaserGcode))
	}
	if ctx.Last() != any(gcode) {
		t.Errorf("Last() = %v, want final stage output %q", ctx.Last(), gcode)
	}
	if ctx.Version() != "0.2" {
		t.Errorf("Version() = %q, want 0.2", ctx.Version())
	}
}

// stage types are resolved before anything runs, so a bad uses means no
// stage executes at all.
func TestExecuteUnknownStageType(t *testing.T) {
	path := writePipelineFixture(t, `
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
    with:
      job: board-job.gbrjob
  - name: bogus
    uses: bogus.stage
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	ctx, err := engine.Execute()
	if err == nil {
		t.Fatal("expected error for unknown stage type")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Errorf("error type = %T, want *pipeline.Error", err)
	}
	if ctx != nil {
		t.Errorf("context = %v, want nil when no stage ran", ctx)
	}
}

func TestExecuteMissingJobParam(t *testing.T) {
	cfg, err := Load([]byte(`
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	_, err = engine.Execute()
	if err == nil {
		t.Fatal("expected error for missing job parameter")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Errorf("error type = %T, want *pipeline.Error", err)
	}
}

func TestExecuteStageErrorPropagates(t *testing.T) {
	path := writePipelineFixture(t, `
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
    with:
      job: no-such-job.gbrjob
  - name: isolate
    uses: laser.isolation
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	_, err = engine.Execute()
	if err == nil {
		t.Fatal("expected error for unreadable job file")
	}
	var derr *gbrjob.Error
	if !errors.As(err, &derr) {
		t.Errorf("error type = %T, want wrapped *gbrjob.Error", err)
	}
}

func TestExecuteInjectsPipelineDir(t *testing.T) {
	path := writePipelineFixture(t, `
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
    with:
      job: board-job.gbrjob
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	if _, err := engine.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := filepath.Dir(path)
	if got := cfg.Stages[0].Raw[pipelineDirKey]; got != want {
		t.Errorf("injected pipeline dir = %v, want %q", got, want)
	}

	// Re-running must not disturb the injected value.
	if _, err := engine.Execute(); err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if got := cfg.Stages[0].Raw[pipelineDirKey]; got != want {
		t.Errorf("pipeline dir after re-run = %v, want %q", got, want)
	}
}

func TestParseJobIfPresent(t *testing.T) {
	path := writePipelineFixture(t, `
version: "0.2"
stages:
  - name: load
    uses: loader.kicad
    with:
      job: board-job.gbrjob
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	job := ParseJobIfPresent(cfg, vlog.Logger())
	if job == nil {
		t.Fatal("ParseJobIfPresent() = nil, want parsed job")
	}
	if job.BoardSizeX != 100.2 {
		t.Errorf("BoardSizeX = %v, want 100.2", job.BoardSizeX)
	}
}

func TestParseJobIfPresentTolerance(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"no loader stage", "version: \"1\"\nstages:\n  - name: x\n    uses: laser.isolation"},
		{"loader without job", "version: \"1\"\nstages:\n  - name: x\n    uses: loader.kicad"},
		{"job file unreadable", "version: \"1\"\nstages:\n  - name: x\n    uses: loader.kicad\n    with:\n      job: nope.gbrjob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load([]byte(tt.yml))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if job := ParseJobIfPresent(cfg, vlog.Logger()); job != nil {
				t.Errorf("ParseJobIfPresent() = %v, want nil", job)
			}
		})
	}
}

func TestExecuteAllPlaceholderStages(t *testing.T) {
	yml := `
version: "0.3"
stages:
  - name: iso
    uses: laser.isolation
  - name: outline
    uses: laser.outline
  - name: raster
    uses: laser.raster
    with:
      enabled: true
  - name: mill
    uses: milling.isolation
    with:
      tool_diameter: 0.8
  - name: cutout
    uses: milling.board_cutout
    with:
      tabs: 4
  - name: cnc
    uses: output.cnc_gcode
    with:
      file: out.nc
`
	cfg, err := Load([]byte(yml))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	engine := &Engine{Config: cfg, Log: vlog.Logger()}
	ctx, err := engine.Execute()
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	checks := []struct {
		key  string
		kind string
	}{
		{KeyLaserIsolation, "laser_isolation_paths"},
		{KeyLaserRaster, "laser_raster"},
		{KeyMillingIsolation, "milling_isolation"},
		{KeyMillingBoardCutout, "milling_board_cutout"},
	}
	for _, c := range checks {
		art, ok := ctx.Value(c.key).(Artifact)
		if !ok {
			t.Errorf("context %q = %T, want Artifact", c.key, ctx.Value(c.key))
			continue
		}
		if art.Kind != c.kind {
			t.Errorf("context %q kind = %q, want %q", c.key, art.Kind, c.kind)
		}
	}

	// No job loaded, so the outline stage records an absent path.
	if v, ok := ctx.Get(KeyLaserOutline); !ok || v != nil {
		t.Errorf("context %q = %v (present=%v), want stored nil", KeyLaserOutline, v, ok)
	}

	raster := ctx.Value(KeyLaserRaster).(Artifact)
	if raster.Params["enabled"] != true {
		t.Errorf("raster enabled = %v, want true", raster.Params["enabled"])
	}
	mill := ctx.Value(KeyMillingIsolation).(Artifact)
	if mill.Params["tool_diameter"] != 0.8 {
		t.Errorf("mill tool_diameter = %v, want 0.8", mill.Params["tool_diameter"])
	}

	want := fmt.Sprintf("; cnc gcode placeholder for %s", "out.nc")
	if got := ctx.Value(KeyCncGcode); got != want {
		t.Errorf("cnc gcode = %v, want %q", got, want)
	}
}
