package pipeline

import (
	"log/slog"
)

// stageImpl is the executable form of a configured stage.
//
// Run receives the previous stage's output (nil for the first stage), the
// shared run context and a logging sink, and returns the stage's output.
type stageImpl interface {
	Run(prev any, ctx *Context, log *slog.Logger) (any, error)
}

type stageFactory func(*Stage) stageImpl

// stageRegistry is the closed mapping from Uses identifiers to stage
// constructors. Adding a new stage behavior means adding an entry here;
// resolution is exact-match only, never partial or fuzzy.
var stageRegistry = map[string]stageFactory{
	"loader.kicad":         func(s *Stage) stageImpl { return &loaderKicadStage{cfg: s} },
	"laser.isolation":      func(s *Stage) stageImpl { return &laserIsolationStage{cfg: s} },
	"laser.outline":        func(s *Stage) stageImpl { return &laserOutlineStage{cfg: s} },
	"laser.raster":         func(s *Stage) stageImpl { return &laserRasterStage{cfg: s} },
	"milling.isolation":    func(s *Stage) stageImpl { return &millingIsolationStage{cfg: s} },
	"milling.board_cutout": func(s *Stage) stageImpl { return &millingBoardCutoutStage{cfg: s} },
	"output.laser_gcode":   func(s *Stage) stageImpl { return &outputLaserGcodeStage{cfg: s} },
	"output.cnc_gcode":     func(s *Stage) stageImpl { return &outputCncGcodeStage{cfg: s} },
}

// resolveStage materializes the implementation for a configured stage.
func resolveStage(st *Stage) (stageImpl, error) {
	factory, ok := stageRegistry[st.Uses]
	if !ok {
		return nil, errorf("unknown stage uses %q", st.Uses)
	}
	return factory(st), nil
}

// StageTypes returns the registered Uses identifiers, for diagnostics.
func StageTypes() []string {
	out := make([]string, 0, len(stageRegistry))
	for k := range stageRegistry {
		out = append(out, k)
	}
	return out
}
