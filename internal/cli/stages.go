package cli

import (
	"fmt"

	vlog "github.com/pgrudzien12/pcb-maker/internal/log"
	"github.com/pgrudzien12/pcb-maker/internal/pipeline"
	"github.com/spf13/cobra"
)

var stagesPipeline string
var stagesVerbose bool

var stagesCmd = &cobra.Command{
	Use:          "stages",
	Short:        "List the stages a pipeline declares, without running it",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if stagesVerbose {
			level = "debug"
		}
		vlog.Init(level, nil)

		ppl, err := loadPipeline(stagesPipeline)
		if err != nil {
			return fmt.Errorf("loading pipeline %q: %w", stagesPipeline, err)
		}
		vlog.Info("loaded pipeline", "version", ppl.Version)

		disp := pipeline.NewDisplay(stagesPipeline, stagesVerbose)
		disp.Header(ppl.Version)
		disp.ListStages(ppl)

		// Discovery step: if the pipeline declares a KiCad loader, parse
		// and summarize the job so the user can sanity-check the board
		// before executing anything.
		if job := pipeline.ParseJobIfPresent(ppl, vlog.Logger()); job != nil {
			job.Summarize(vlog.Logger(), stagesVerbose)
		}
		return nil
	},
}

func init() {
	stagesCmd.Flags().StringVarP(&stagesPipeline, "pipeline", "p", "", "Pipeline YAML file (required)")
	stagesCmd.Flags().BoolVarP(&stagesVerbose, "verbose", "v", false, "Enable verbose logging output")
	stagesCmd.MarkFlagRequired("pipeline")
}
