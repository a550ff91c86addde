package cli

import (
	"github.com/spf13/cobra"
)

var makePipeline string
var makeVerbose bool

var makeCmd = &cobra.Command{
	Use:          "make",
	Short:        "Run a fabrication pipeline",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(makePipeline, makeVerbose)
	},
}

func init() {
	makeCmd.Flags().StringVarP(&makePipeline, "pipeline", "p", "", "Pipeline YAML file (or named pipeline; default from config)")
	makeCmd.Flags().BoolVarP(&makeVerbose, "verbose", "v", false, "Enable verbose logging output")
}
