package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Display handles terminal progress output for a pipeline run.
type Display struct {
	w       io.Writer
	title   string
	verbose bool
}

// NewDisplay creates a display that writes to stdout.
func NewDisplay(title string, verbose bool) *Display {
	return &Display{w: os.Stdout, title: title, verbose: verbose}
}

// usesColumnWidth is the fixed display width reserved for the stage-type column.
const usesColumnWidth = 22

// Header prints the pipeline header.
func (d *Display) Header(version string) {
	fmt.Fprintf(d.w, "\npcb-maker — %s (pipeline %s)\n", d.title, version)
	fmt.Fprintln(d.w, strings.Repeat("─", 64))
}

// ListStages prints the declared stages without executing anything.
func (d *Display) ListStages(cfg *Config) {
	for i, st := range cfg.Stages {
		fmt.Fprintf(d.w, "%2d. %-20s %-*s\n", i+1, st.Name, usesColumnWidth, st.Uses)
	}
}

// StageStart prints a stage-in-progress line (verbose mode only; stages are
// fast enough that the completed line is the interesting one).
func (d *Display) StageStart(name, uses string) {
	if !d.verbose {
		return
	}
	fmt.Fprintf(d.w, "⏳ %-20s %-*s running...\n", name, usesColumnWidth, uses)
}

// StageDone prints a completed stage line.
func (d *Display) StageDone(name, uses string, duration time.Duration) {
	fmt.Fprintf(d.w, "✅ %-20s %-*s %.1fms\n",
		name, usesColumnWidth, uses, float64(duration.Microseconds())/1000)
}

// StageFailed prints a failed stage line.
func (d *Display) StageFailed(name, uses string, err error) {
	fmt.Fprintf(d.w, "❌ %-20s %-*s %s\n", name, usesColumnWidth, uses, err.Error())
}

// Summary prints the final run summary.
func (d *Display) Summary(stages int, totalDuration time.Duration) {
	fmt.Fprintln(d.w, strings.Repeat("─", 64))
	fmt.Fprintf(d.w, "✅ Done  %d stages  %.2fs\n\n", stages, totalDuration.Seconds())
}

// Failed prints a failure summary.
func (d *Display) Failed(err error) {
	fmt.Fprintln(d.w, strings.Repeat("─", 64))
	fmt.Fprintf(d.w, "❌ Failed: %s\n\n", err.Error())
}
