// Package gbrjob parses the JSON job file emitted by KiCad fabrication
// output (.gbrjob) to extract:
//   - general specs (board size, thickness, layer count)
//   - design rules (first ruleset for now)
//   - file / layer attributes (copper layers, profile outline, masks, etc.)
//
// The aim is to provide structured data for subsequent pipeline stages to
// decide which Gerber layer files to load for isolation / drilling / outline
// detection.
package gbrjob

import (
	"fmt"
	"log/slog"
	"strings"
)

// Board side markers as they appear in FileFunction tags.
const (
	SideTop = "Top"
	SideBot = "Bot"
)

// LayerFile describes one output file declared in the job descriptor.
type LayerFile struct {
	Path       string
	Functions  []string // raw function-tag tokens, kept for diagnostics
	Polarity   string   // empty when absent
	LayerIndex int      // 1-based copper layer index, 0 when not applicable
	Side       string   // SideTop, SideBot or empty
	IsCopper   bool
	IsProfile  bool
}

// Job is the typed representation of one fabrication job.
type Job struct {
	SourcePath     string
	BoardSizeX     float64 // mm, 0 when absent from the descriptor
	BoardSizeY     float64 // mm, 0 when absent from the descriptor
	BoardThickness *float64
	LayerNumber    *int
	// DesignRules holds the first ruleset found in the descriptor. Further
	// rulesets are ignored for now; if multi-ruleset jobs ever matter this
	// is the one place to change.
	DesignRules map[string]any
	Layers      []LayerFile
}

// CopperLayers returns the layer files classified as copper, in source order.
func (j *Job) CopperLayers() []LayerFile {
	var out []LayerFile
	for _, l := range j.Layers {
		if l.IsCopper {
			out = append(out, l)
		}
	}
	return out
}

// OutlineLayer returns the first profile/outline layer file, or nil.
func (j *Job) OutlineLayer() *LayerFile {
	for i := range j.Layers {
		if j.Layers[i].IsProfile {
			return &j.Layers[i]
		}
	}
	return nil
}

// LayerByIndex returns the copper layer file with the given 1-based index, or nil.
func (j *Job) LayerByIndex(idx int) *LayerFile {
	if idx == 0 {
		return nil
	}
	for i := range j.Layers {
		if j.Layers[i].LayerIndex == idx {
			return &j.Layers[i]
		}
	}
	return nil
}

// Summarize logs a concise summary of this job (board metrics, layers).
// Callers get CLI-friendly output without duplicating logging code.
func (j *Job) Summarize(log *slog.Logger, verbose bool) {
	thickness := "?"
	if j.BoardThickness != nil {
		thickness = fmt.Sprintf("%g", *j.BoardThickness)
	}
	log.Info("job summary",
		"board_size_mm", fmt.Sprintf("%g x %g", j.BoardSizeX, j.BoardSizeY),
		"thickness_mm", thickness,
		"copper_layers", len(j.CopperLayers()),
		"outline", j.OutlineLayer() != nil)
	if len(j.DesignRules) > 0 {
		var brief []string
		for k, v := range j.DesignRules {
			switch v.(type) {
			case string, float64, int, bool:
				brief = append(brief, fmt.Sprintf("%s=%v", k, v))
			}
			if len(brief) >= 5 {
				break
			}
		}
		log.Info("design rules (subset)", "rules", strings.Join(brief, ", "))
	}
	if !verbose {
		return
	}
	for _, lf := range j.Layers {
		var flags []string
		if lf.IsCopper {
			flags = append(flags, fmt.Sprintf("Cu%d", lf.LayerIndex))
		}
		if lf.IsProfile {
			flags = append(flags, "outline")
		}
		if lf.Side != "" {
			flags = append(flags, strings.ToLower(lf.Side))
		}
		flagStr := "-"
		if len(flags) > 0 {
			flagStr = strings.Join(flags, ",")
		}
		log.Debug("layer file", "path", lf.Path, "flags", flagStr, "polarity", lf.Polarity)
	}
}
